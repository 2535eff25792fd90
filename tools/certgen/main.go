// Package main writes a development CA and a mock API server certificate
// under the "certs" directory. Point the mock API at server.crt/server.key
// and the client at ca.crt.
package main

import (
	"crypto/x509"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/atinyakov/donorlink/internal/certgen"
)

type options struct {
	dir  string
	host string
	// newCA forces a new authority even when ca.crt/ca.key already exist.
	newCA bool
}

func parseFlags(args []string) (options, error) {
	var o options
	flags := pflag.NewFlagSet("certgen", pflag.ContinueOnError)
	flags.StringVarP(&o.dir, "dir", "d", "certs", "output directory")
	flags.StringVar(&o.host, "host", "localhost", "server host name or IP")
	flags.BoolVar(&o.newCA, "new-ca", false, "regenerate the CA even if one exists")
	if err := flags.Parse(args); err != nil {
		return options{}, err
	}
	return o, nil
}

// loadOrCreateCA reuses an existing authority so clients that already trust
// ca.crt keep working after the server certificate is reissued.
func loadOrCreateCA(o options) (*x509.Certificate, any, error) {
	certPath := filepath.Join(o.dir, "ca.crt")
	keyPath := filepath.Join(o.dir, "ca.key")
	if !o.newCA {
		cert, key, err := certgen.LoadCACredentials(certPath, keyPath)
		if err == nil {
			return cert, key, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, err
		}
	}

	cert, key, b, err := certgen.GenerateCA("DonorLink Dev CA")
	if err != nil {
		return nil, nil, err
	}
	if err := b.WriteFiles(certPath, keyPath); err != nil {
		return nil, nil, err
	}
	return cert, key, nil
}

func run(o options) error {
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", o.dir, err)
	}
	caCert, caKey, err := loadOrCreateCA(o)
	if err != nil {
		return fmt.Errorf("ca: %w", err)
	}
	b, err := certgen.GenerateServerCertificate(o.host, caCert, caKey)
	if err != nil {
		return fmt.Errorf("server certificate: %w", err)
	}
	return b.WriteFiles(filepath.Join(o.dir, "server.crt"), filepath.Join(o.dir, "server.key"))
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if err := run(o); err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
	fmt.Printf("Certificates written to ./%s\n", o.dir)
}
