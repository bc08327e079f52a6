package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := New()
	require.NoError(t, err)
	cfg.Input = "computers.txt"
	cfg.Destination = "OU=Workstations,DC=example,DC=com"
	cfg.LogPath = "run.log"
	cfg.Server = "example.com"
	return cfg
}

func TestNewAppliesDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.TimeoutSeconds)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, 2, cfg.MaxConnections)
	assert.False(t, cfg.Insecure)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing input", mutate: func(c *Config) { c.Input = "" }, wantErr: "--input"},
		{name: "missing destination", mutate: func(c *Config) { c.Destination = "" }, wantErr: "--destination"},
		{name: "missing log", mutate: func(c *Config) { c.LogPath = "" }, wantErr: "--log"},
		{name: "missing server", mutate: func(c *Config) { c.Server = "" }, wantErr: "--server"},
		{name: "zero timeout", mutate: func(c *Config) { c.TimeoutSeconds = 0 }, wantErr: "timeout"},
		{name: "zero pool", mutate: func(c *Config) { c.MaxConnections = 0 }, wantErr: "max_connections"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateReportsAllMissing(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	for _, flag := range []string{"--input", "--destination", "--log", "--server"} {
		assert.Contains(t, err.Error(), flag)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admove.toml")
	content := `
server = "dc01.example.com"
base_dn = "DC=example,DC=com"
timeout_seconds = 45
insecure = true

[kerberos]
realm = "EXAMPLE.COM"
keytab = "/etc/admove.keytab"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := New()
	require.NoError(t, err)
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, "dc01.example.com", cfg.Server)
	assert.Equal(t, "DC=example,DC=com", cfg.BaseDN)
	assert.Equal(t, 45*time.Second, cfg.Timeout())
	assert.True(t, cfg.Insecure)
	assert.Equal(t, "EXAMPLE.COM", cfg.Kerberos.Realm)
	assert.Equal(t, "/etc/admove.keytab", cfg.Kerberos.Keytab)
}

func TestLoadFileMissing(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)
	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "absent.toml")))
}

func TestLoadFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("server = [unclosed"), 0o644))

	cfg, err := New()
	require.NoError(t, err)
	assert.Error(t, cfg.LoadFile(path))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("ADMOVE_USERNAME", "svc-admove@example.com")
	t.Setenv("ADMOVE_PASSWORD", "hunter2")

	cfg, err := New()
	require.NoError(t, err)
	cfg.ApplyEnv()

	assert.Equal(t, "svc-admove@example.com", cfg.Username)
	assert.Equal(t, "hunter2", cfg.Password)
}

func TestApplyEnvDoesNotOverride(t *testing.T) {
	t.Setenv("ADMOVE_USERNAME", "env-user")

	cfg, err := New()
	require.NoError(t, err)
	cfg.Username = "flag-user"
	cfg.ApplyEnv()

	assert.Equal(t, "flag-user", cfg.Username)
}

func TestConnectionConfig(t *testing.T) {
	t.Run("domain for SRV discovery", func(t *testing.T) {
		cfg := validConfig(t)
		conn := cfg.ConnectionConfig(nil)
		assert.Equal(t, "example.com", conn.Domain)
		assert.Empty(t, conn.LDAPURLs)
	})

	t.Run("direct URL", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Server = "ldaps://dc01.example.com:636"
		conn := cfg.ConnectionConfig(nil)
		assert.Equal(t, []string{"ldaps://dc01.example.com:636"}, conn.LDAPURLs)
		assert.Empty(t, conn.Domain)
	})

	t.Run("insecure sets TLS config", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Insecure = true
		conn := cfg.ConnectionConfig(nil)
		require.NotNil(t, conn.TLSConfig)
		assert.True(t, conn.TLSConfig.InsecureSkipVerify)
	})

	t.Run("kerberos settings carried", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Kerberos = Kerberos{Realm: "EXAMPLE.COM", SPN: "ldap/dc01.example.com"}
		conn := cfg.ConnectionConfig(nil)
		assert.Equal(t, "EXAMPLE.COM", conn.KerberosRealm)
		assert.Equal(t, "ldap/dc01.example.com", conn.KerberosSPN)
	})
}
