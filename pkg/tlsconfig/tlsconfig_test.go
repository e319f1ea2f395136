package tlsconfig

import (
	"crypto/tls"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTLSVersion(t *testing.T) {
	v, err := ParseTLSVersion("", tls.VersionTLS12)
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS12), v)

	v, err = ParseTLSVersion("TLS 1.3", tls.VersionTLS12)
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS13), v)

	_, err = ParseTLSVersion("SSLv3", tls.VersionTLS12)
	assert.Error(t, err)
}

func TestParseCurves(t *testing.T) {
	curves, err := ParseCurves([]string{"X25519", "CurveP256", "X25519"})
	require.NoError(t, err)
	assert.Equal(t, []tls.CurveID{tls.X25519, tls.CurveP256}, curves)

	_, err = ParseCurves([]string{"Curve25519Extra"})
	assert.Error(t, err)
}

func TestCipherSuitesToUint16(t *testing.T) {
	ids, warns, err := CipherSuitesToUint16(nil)
	require.NoError(t, err)
	assert.Nil(t, ids)
	assert.Empty(t, warns)

	ids, warns, err = CipherSuitesToUint16([]string{"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256", "TLS_RSA_WITH_RC4_128_SHA"})
	require.NoError(t, err)
	assert.Equal(t, []uint16{tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256, tls.TLS_RSA_WITH_RC4_128_SHA}, ids)
	assert.Equal(t, []string{"TLS_RSA_WITH_RC4_128_SHA"}, warns)

	_, _, err = CipherSuitesToUint16([]string{"NOT_A_CIPHER"})
	assert.Error(t, err)
}

func TestParseClientTLSConfig(t *testing.T) {
	cfg, warns, err := ParseClientTLSConfig(&TLSConfig{
		ServerName:         "graphite.example.com",
		InsecureSkipVerify: true,
		MinTLSVersion:      "TLS1.2",
	})
	require.NoError(t, err)
	assert.Equal(t, "graphite.example.com", cfg.ServerName)
	assert.Nil(t, cfg.RootCAs)
	assert.Nil(t, cfg.CipherSuites)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.Equal(t, uint16(tls.VersionTLS13), cfg.MaxVersion)
	assert.Len(t, warns, 1)

	_, _, err = ParseClientTLSConfig(&TLSConfig{MinTLSVersion: "TLS13", MaxTLSVersion: "TLS12"})
	assert.Error(t, err)

	_, _, err = ParseClientTLSConfig(&TLSConfig{CACertFiles: []string{filepath.Join(t.TempDir(), "missing.pem")}})
	assert.Error(t, err)

	notPEM := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(notPEM, []byte("not a certificate"), 0o600))
	_, _, err = ParseClientTLSConfig(&TLSConfig{CACertFiles: []string{notPEM}})
	assert.Error(t, err)
}
