// Package config assembles the run configuration from defaults, an
// optional TOML file, environment credentials, and command-line flags, in
// ascending precedence.
package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/pelletier/go-toml/v2"

	adldap "github.com/8bits1beard-io/admove/internal/ldap"
)

// Kerberos holds GSSAPI authentication settings. All fields are optional;
// an empty struct means simple bind or anonymous.
type Kerberos struct {
	Realm  string `toml:"realm"`
	Keytab string `toml:"keytab"`
	Config string `toml:"config"`
	CCache string `toml:"ccache"`
	SPN    string `toml:"spn"`
}

// Config is the full run configuration.
type Config struct {
	// Mandatory run parameters.
	Input       string `toml:"input"`
	Destination string `toml:"destination"`
	LogPath     string `toml:"log"`
	Server      string `toml:"server"`

	// Connection settings.
	BaseDN         string `toml:"base_dn"`
	TimeoutSeconds int    `toml:"timeout_seconds" default:"30"`
	MaxConnections int    `toml:"max_connections" default:"2"`
	Insecure       bool   `toml:"insecure"`

	// Credentials.
	Username string   `toml:"username"`
	Password string   `toml:"password"`
	Kerberos Kerberos `toml:"kerberos"`

	Verbose bool `toml:"verbose"`
}

// New returns a Config with defaults applied.
func New() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("applying configuration defaults: %w", err)
	}
	return cfg, nil
}

// LoadFile overlays settings from a TOML file onto cfg.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv fills credentials from ADMOVE_USERNAME and ADMOVE_PASSWORD when
// not already set by file or flag.
func (c *Config) ApplyEnv() {
	if c.Username == "" {
		c.Username = os.Getenv("ADMOVE_USERNAME")
	}
	if c.Password == "" {
		c.Password = os.Getenv("ADMOVE_PASSWORD")
	}
}

// Validate checks the mandatory parameters before any directory work.
func (c *Config) Validate() error {
	var missing []string
	if c.Input == "" {
		missing = append(missing, "--input")
	}
	if c.Destination == "" {
		missing = append(missing, "--destination")
	}
	if c.LogPath == "" {
		missing = append(missing, "--log")
	}
	if c.Server == "" {
		missing = append(missing, "--server")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required parameters: %s", strings.Join(missing, ", "))
	}

	if c.TimeoutSeconds <= 0 {
		return errors.New("timeout_seconds must be positive")
	}
	if c.MaxConnections < 1 {
		return errors.New("max_connections must be at least 1")
	}
	return nil
}

// Timeout returns the configured directory operation timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ConnectionConfig converts the run configuration into a directory
// connection configuration. A --server value containing a scheme is used as
// a direct LDAP URL; anything else is treated as a domain for SRV
// discovery.
func (c *Config) ConnectionConfig(log *slog.Logger) *adldap.ConnectionConfig {
	conn := adldap.DefaultConfig()

	if strings.Contains(c.Server, "://") {
		conn.LDAPURLs = []string{c.Server}
	} else {
		conn.Domain = c.Server
	}

	conn.BaseDN = c.BaseDN
	conn.Timeout = c.Timeout()
	conn.MaxConnections = c.MaxConnections
	conn.Username = c.Username
	conn.Password = c.Password
	conn.KerberosRealm = c.Kerberos.Realm
	conn.KerberosKeytab = c.Kerberos.Keytab
	conn.KerberosConfig = c.Kerberos.Config
	conn.KerberosCCache = c.Kerberos.CCache
	conn.KerberosSPN = c.Kerberos.SPN
	conn.Logger = log

	if c.Insecure {
		if conn.TLSConfig == nil {
			conn.TLSConfig = &tls.Config{}
		}
		conn.TLSConfig.InsecureSkipVerify = true
	}

	return conn
}
