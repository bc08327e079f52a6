package ldap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ConnectionConfig)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*ConnectionConfig) {},
		},
		{
			name:    "zero max connections",
			mutate:  func(c *ConnectionConfig) { c.MaxConnections = 0 },
			wantErr: "MaxConnections",
		},
		{
			name:    "max connections over limit",
			mutate:  func(c *ConnectionConfig) { c.MaxConnections = MaxConnectionPoolLimit + 1 },
			wantErr: "MaxConnections",
		},
		{
			name:    "zero idle time",
			mutate:  func(c *ConnectionConfig) { c.MaxIdleTime = 0 },
			wantErr: "MaxIdleTime",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *ConnectionConfig) { c.Timeout = 0 },
			wantErr: "timeout",
		},
		{
			name:    "negative retries",
			mutate:  func(c *ConnectionConfig) { c.MaxRetries = -1 },
			wantErr: "MaxRetries",
		},
		{
			name:    "backoff factor at 1.0",
			mutate:  func(c *ConnectionConfig) { c.BackoffFactor = 1.0 },
			wantErr: "BackoffFactor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := validateConfig(config)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNewConnectionPoolRejectsInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.MaxConnections = -1
	config.LDAPURLs = []string{"ldaps://dc01.example.com:636"}

	_, err := NewConnectionPool(context.Background(), config)
	assert.Error(t, err)
}

func TestNewConnectionPoolResolvesConfiguredURLs(t *testing.T) {
	config := DefaultConfig()
	config.LDAPURLs = []string{
		"ldaps://dc01.example.com:636",
		"ldap://dc02.example.com:389",
	}

	pool, err := NewConnectionPool(context.Background(), config)
	require.NoError(t, err)
	defer pool.Close()

	stats := pool.Stats()
	assert.Zero(t, stats.Active)
	assert.Zero(t, stats.Created)
}

func TestNewConnectionPoolRejectsBadURL(t *testing.T) {
	config := DefaultConfig()
	config.LDAPURLs = []string{"https://not-ldap.example.com"}

	_, err := NewConnectionPool(context.Background(), config)
	assert.Error(t, err)
}

func TestPoolCloseIsIdempotent(t *testing.T) {
	config := DefaultConfig()
	config.LDAPURLs = []string{"ldaps://dc01.example.com:636"}

	pool, err := NewConnectionPool(context.Background(), config)
	require.NoError(t, err)

	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())

	// Get on a closed pool fails without dialing
	_, err = pool.Get(context.Background())
	assert.Error(t, err)
}

func TestPoolStatsUptime(t *testing.T) {
	config := DefaultConfig()
	config.LDAPURLs = []string{"ldaps://dc01.example.com:636"}

	pool, err := NewConnectionPool(context.Background(), config)
	require.NoError(t, err)
	defer pool.Close()

	assert.Greater(t, pool.Stats().Uptime, time.Duration(0))
}
