package storage

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/donorlink/internal/certgen"
)

// tlsServer starts an HTTPS server with a certificate issued by a fresh CA
// and returns its URL plus the path of the written CA file.
func tlsServer(t *testing.T) (string, string) {
	t.Helper()
	caCert, caKey, caBundle, err := certgen.GenerateCA("Test CA")
	require.NoError(t, err)
	srvBundle, err := certgen.GenerateServerCertificate("127.0.0.1", caCert, caKey)
	require.NoError(t, err)
	pair, err := tls.X509KeyPair(srvBundle.CertPEM, srvBundle.KeyPEM)
	require.NoError(t, err)

	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	srv.TLS = &tls.Config{Certificates: []tls.Certificate{pair}}
	srv.StartTLS()
	t.Cleanup(srv.Close)

	caPath := filepath.Join(t.TempDir(), "ca.crt")
	require.NoError(t, os.WriteFile(caPath, caBundle.CertPEM, 0o600))
	return srv.URL, caPath
}

func TestNewHTTPClient_NoCA(t *testing.T) {
	client, err := NewHTTPClient("", 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, client.Timeout)
}

func TestNewHTTPClient_BadCAFile(t *testing.T) {
	_, err := NewHTTPClient("nonexistent.pem", time.Second)
	assert.ErrorIs(t, err, os.ErrNotExist)

	garbage := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("invalid pem"), 0o600))
	_, err = NewHTTPClient(garbage, time.Second)
	assert.ErrorContains(t, err, "failed to parse CA cert")
}

func TestNewHTTPClient_TrustsCA(t *testing.T) {
	url, caPath := tlsServer(t)

	client, err := NewHTTPClient(caPath, time.Second)
	require.NoError(t, err)
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))

	// Without the CA the system roots reject the dev certificate.
	plain, err := NewHTTPClient("", time.Second)
	require.NoError(t, err)
	_, err = plain.Get(url)
	assert.Error(t, err)
}
