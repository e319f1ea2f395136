package tlsconfig

import (
	"crypto/tls"

	"github.com/ansel1/merry/v2"
)

type ClientCertificatePair struct {
	CertFile       string `mapstructure:"certFile"`
	PrivateKeyFile string `mapstructure:"privateKeyFile"`
}

// TLSConfig is the client side TLS configuration used to talk to graphite over https.
type TLSConfig struct {
	CACertFiles      []string                `mapstructure:"caCertFiles"`
	CertificatePairs []ClientCertificatePair `mapstructure:"certificatePairs"`

	ServerName         string   `mapstructure:"serverName"`
	InsecureSkipVerify bool     `mapstructure:"insecureSkipVerify"`
	MinTLSVersion      string   `mapstructure:"minTLSVersion"`
	MaxTLSVersion      string   `mapstructure:"maxTLSVersion"`
	CipherSuites       []string `mapstructure:"cipherSuites"`
	Curves             []string `mapstructure:"curves"`
}

var supportedCurveIDs = map[string]tls.CurveID{
	"CurveP256": tls.CurveP256,
	"CurveP384": tls.CurveP384,
	"CurveP521": tls.CurveP521,
	"X25519":    tls.X25519,
}

var tlsVersionMap = map[string]uint16{
	"VersionTLS12": tls.VersionTLS12,
	"VersionTLS13": tls.VersionTLS13,
	"TLS12":        tls.VersionTLS12,
	"TLS13":        tls.VersionTLS13,
	"TLS1.2":       tls.VersionTLS12,
	"TLS1.3":       tls.VersionTLS13,
	"TLS 1.2":      tls.VersionTLS12,
	"TLS 1.3":      tls.VersionTLS13,
}

// ParseTLSVersion maps a version name to its tls constant. Empty string means defaultVersion.
func ParseTLSVersion(tlsVersion string, defaultVersion uint16) (uint16, error) {
	if tlsVersion == "" {
		return defaultVersion, nil
	}
	if tv, ok := tlsVersionMap[tlsVersion]; ok {
		return tv, nil
	}
	return 0, merry.Errorf("invalid tls version specified: %v", tlsVersion)
}

// ParseCurves returns list of tls.CurveIDs that can be passed to tls.Config or error if they are not supported
// ParseCurves also deduplicate input list
func ParseCurves(curveNames []string) ([]tls.CurveID, error) {
	seen := make(map[string]struct{})
	res := make([]tls.CurveID, 0, len(curveNames))
	for _, name := range curveNames {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		id, ok := supportedCurveIDs[name]
		if !ok {
			return nil, merry.Errorf("invalid curve name specified: %v", name)
		}
		res = append(res, id)
	}

	return res, nil
}

// CipherSuitesToUint16 for a given list of ciphers returns list of corresponding ids and the names of insecure
// ones that were requested. Unknown ciphers are an error.
func CipherSuitesToUint16(ciphers []string) ([]uint16, []string, error) {
	// nil keeps crypto/tls defaults
	if len(ciphers) == 0 {
		return nil, nil, nil
	}
	res := make([]uint16, 0, len(ciphers))
	insecureCiphers := make([]string, 0)

	cipherSuites := make(map[string]uint16)
	cipherNames := make([]string, 0)
	for _, cipher := range tls.CipherSuites() {
		cipherSuites[cipher.Name] = cipher.ID
		cipherNames = append(cipherNames, cipher.Name)
	}
	insecure := make(map[string]uint16)
	for _, cipher := range tls.InsecureCipherSuites() {
		insecure[cipher.Name] = cipher.ID
	}

	for _, c := range ciphers {
		if id, ok := cipherSuites[c]; ok {
			res = append(res, id)
		} else if id, ok := insecure[c]; ok {
			res = append(res, id)
			insecureCiphers = append(insecureCiphers, c)
		} else {
			return nil, nil, merry.Errorf("unknown cipher specified: %v, supported ciphers: %+v", c, cipherNames)
		}
	}

	return res, insecureCiphers, nil
}
