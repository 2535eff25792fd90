// Package config provides functionality for managing configuration options
// for the client and the mock API using command-line flags, environment
// variables, an optional .env file and an optional config file.
//
// Precedence, highest first: flags, DONORLINK_* environment variables,
// config file, defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. DONORLINK_API_URL.
const EnvPrefix = "DONORLINK"

// ClientOptions holds the configuration values for the CLI client.
type ClientOptions struct {
	// APIURL is the backend base URL.
	APIURL string `mapstructure:"api_url"`
	// TokenFile is where the session token is persisted.
	TokenFile string `mapstructure:"token_file"`
	// TokenSecret, when set, seals the persisted token.
	TokenSecret string `mapstructure:"token_secret"`
	// CAFile is an extra CA bundle to trust, for a self-signed mock API.
	CAFile string `mapstructure:"ca_file"`
	// Timeout bounds every API call.
	Timeout time.Duration `mapstructure:"timeout"`
	// LogLevel is the zap level.
	LogLevel string `mapstructure:"log_level"`
	// Config is the path to the config file.
	Config string `mapstructure:"config"`
}

// ServerOptions holds the configuration values for the mock API.
type ServerOptions struct {
	// Addr is the listening address (ip:port).
	Addr string `mapstructure:"addr"`
	// JWTSecret signs session tokens.
	JWTSecret string `mapstructure:"jwt_secret"`
	// TokenTTL is the lifetime of issued session tokens.
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	// OTPTTL is how long an issued code stays valid.
	OTPTTL time.Duration `mapstructure:"otp_ttl"`
	// CleanupInterval is the period of the expired-code cleaner.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `mapstructure:"tls_cert"`
	TLSKey  string `mapstructure:"tls_key"`
	// LogLevel is the zap level.
	LogLevel string `mapstructure:"log_level"`
	// Config is the path to the config file.
	Config string `mapstructure:"config"`
}

// TLS reports whether HTTPS is configured.
func (o *ServerOptions) TLS() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".donorlink", "session.json")
	}
	return filepath.Join(home, ".donorlink", "session.json")
}

func clientDefaults() map[string]any {
	return map[string]any{
		"api_url":      "http://localhost:8080",
		"token_file":   defaultTokenFile(),
		"token_secret": "",
		"ca_file":      "",
		"timeout":      15 * time.Second,
		"log_level":    "error",
		"config":       "",
	}
}

func serverDefaults() map[string]any {
	return map[string]any{
		"addr":             "localhost:8080",
		"jwt_secret":       "",
		"token_ttl":        24 * time.Hour,
		"otp_ttl":          10 * time.Minute,
		"cleanup_interval": time.Minute,
		"tls_cert":         "",
		"tls_key":          "",
		"log_level":        "info",
		"config":           "",
	}
}

// ClientFlags registers the client flags on fs.
func ClientFlags(fs *pflag.FlagSet) {
	d := clientDefaults()
	fs.String("api-url", d["api_url"].(string), "backend base URL")
	fs.String("token-file", d["token_file"].(string), "path of the persisted session token")
	fs.String("token-secret", "", "secret used to seal the persisted token")
	fs.String("ca-file", "", "additional CA certificate to trust (PEM)")
	fs.Duration("timeout", d["timeout"].(time.Duration), "per-request timeout")
	fs.String("log-level", d["log_level"].(string), "log level (debug, info, warn, error)")
	fs.StringP("config", "c", "", "path to config file")
}

// ServerFlags registers the mock API flags on fs.
func ServerFlags(fs *pflag.FlagSet) {
	d := serverDefaults()
	fs.StringP("addr", "a", d["addr"].(string), "run on ip:port server")
	fs.String("jwt-secret", "", "secret used to sign session tokens")
	fs.Duration("token-ttl", d["token_ttl"].(time.Duration), "session token lifetime")
	fs.Duration("otp-ttl", d["otp_ttl"].(time.Duration), "one-time code lifetime")
	fs.Duration("cleanup-interval", d["cleanup_interval"].(time.Duration), "expired code cleanup period")
	fs.String("tls-cert", "", "server certificate (PEM); enables HTTPS with --tls-key")
	fs.String("tls-key", "", "server private key (PEM)")
	fs.String("log-level", d["log_level"].(string), "log level (debug, info, warn, error)")
	fs.StringP("config", "c", "", "path to config file")
}

// LoadClient resolves the client options. fs may be nil.
func LoadClient(fs *pflag.FlagSet) (*ClientOptions, error) {
	var o ClientOptions
	if err := load(fs, clientDefaults(), &o); err != nil {
		return nil, err
	}
	o.APIURL = strings.TrimRight(o.APIURL, "/")
	if o.APIURL == "" {
		return nil, errors.New("api_url must not be empty")
	}
	if o.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", o.Timeout)
	}
	return &o, nil
}

// LoadServer resolves the mock API options. fs may be nil.
func LoadServer(fs *pflag.FlagSet) (*ServerOptions, error) {
	var o ServerOptions
	if err := load(fs, serverDefaults(), &o); err != nil {
		return nil, err
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		return nil, errors.New("tls_cert and tls_key must be set together")
	}
	if o.TokenTTL <= 0 || o.OTPTTL <= 0 {
		return nil, errors.New("token_ttl and otp_ttl must be positive")
	}
	return &o, nil
}

func load(fs *pflag.FlagSet, defaults map[string]any, out any) error {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for key := range defaults {
			if f := fs.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return fmt.Errorf("bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %q: %w", path, err)
		}
	}

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}
