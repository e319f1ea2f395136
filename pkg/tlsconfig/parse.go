package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/ansel1/merry/v2"
)

// ParseClientTLSConfig builds the client tls.Config and returns it with a list of warnings about insecure
// settings.
func ParseClientTLSConfig(config *TLSConfig) (*tls.Config, []string, error) {
	var caCertPool *x509.CertPool
	if len(config.CACertFiles) > 0 {
		caCertPool = x509.NewCertPool()
		for _, caCert := range config.CACertFiles {
			cert, err := os.ReadFile(caCert)
			if err != nil {
				return nil, nil, merry.Wrap(err, merry.WithValue("file", caCert))
			}
			if !caCertPool.AppendCertsFromPEM(cert) {
				return nil, nil, merry.Errorf("no certificates found in %v", caCert)
			}
		}
	}

	certificates := make([]tls.Certificate, 0, len(config.CertificatePairs))
	for _, certPair := range config.CertificatePairs {
		certificate, err := tls.LoadX509KeyPair(certPair.CertFile, certPair.PrivateKeyFile)
		if err != nil {
			return nil, nil, merry.Wrap(err, merry.WithValue("file", certPair.CertFile))
		}
		certificates = append(certificates, certificate)
	}

	minTLSVersion, err := ParseTLSVersion(config.MinTLSVersion, tls.VersionTLS12)
	if err != nil {
		return nil, nil, err
	}
	maxTLSVersion, err := ParseTLSVersion(config.MaxTLSVersion, tls.VersionTLS13)
	if err != nil {
		return nil, nil, err
	}
	if minTLSVersion > maxTLSVersion {
		return nil, nil, merry.Errorf("minTLSVersion %v is above maxTLSVersion %v", config.MinTLSVersion, config.MaxTLSVersion)
	}

	curves, err := ParseCurves(config.Curves)
	if err != nil {
		return nil, nil, err
	}

	ciphers, insecureCiphers, err := CipherSuitesToUint16(config.CipherSuites)
	if err != nil {
		return nil, nil, err
	}

	warns := make([]string, 0)
	for _, c := range insecureCiphers {
		warns = append(warns, "insecure cipher requested: "+c)
	}
	if config.InsecureSkipVerify {
		warns = append(warns, "InsecureSkipVerify is set to true, it's not recommended to use that in production")
	}

	tlsConfig := &tls.Config{
		RootCAs:            caCertPool,
		Certificates:       certificates,
		MinVersion:         minTLSVersion,
		MaxVersion:         maxTLSVersion,
		ServerName:         config.ServerName,
		InsecureSkipVerify: config.InsecureSkipVerify,
		CurvePreferences:   curves,
		CipherSuites:       ciphers,
	}

	return tlsConfig, warns, nil
}
