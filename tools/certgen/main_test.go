package main

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	o, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, options{dir: "certs", host: "localhost"}, o)

	o, err = parseFlags([]string{"-d", "out", "--host", "api.test", "--new-ca"})
	require.NoError(t, err)
	assert.Equal(t, options{dir: "out", host: "api.test", newCA: true}, o)
}

func TestRun_WritesLoadableBundle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	require.NoError(t, run(options{dir: dir, host: "localhost"}))

	for _, name := range []string{"ca.crt", "ca.key", "server.crt", "server.key"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	pair, err := tls.LoadX509KeyPair(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"))
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	require.NoError(t, err)

	caPEM, err := os.ReadFile(filepath.Join(dir, "ca.crt"))
	require.NoError(t, err)
	pool := x509.NewCertPool()
	require.True(t, pool.AppendCertsFromPEM(caPEM))
	_, err = leaf.Verify(x509.VerifyOptions{Roots: pool, DNSName: "localhost"})
	assert.NoError(t, err)
}

func TestRun_ReusesExistingCA(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run(options{dir: dir, host: "localhost"}))
	first, err := os.ReadFile(filepath.Join(dir, "ca.crt"))
	require.NoError(t, err)

	require.NoError(t, run(options{dir: dir, host: "localhost"}))
	second, err := os.ReadFile(filepath.Join(dir, "ca.crt"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second), "CA should be reused")

	require.NoError(t, run(options{dir: dir, host: "localhost", newCA: true}))
	third, err := os.ReadFile(filepath.Join(dir, "ca.crt"))
	require.NoError(t, err)
	assert.False(t, bytes.Equal(first, third), "--new-ca should replace the CA")
}
