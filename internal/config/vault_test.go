package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"jobpilot/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

type fakeSecrets map[string]map[string]any

func (f fakeSecrets) GetSecretV2(path string) (*VaultSecret, error) {
	data, ok := f[path]
	if !ok {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return &VaultSecret{Data: data, Version: 1}, nil
}

func TestDecodeKVv2Version(t *testing.T) {
	tests := []struct {
		name        string
		version     any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", version: int64(42), expected: 42},
		{name: "float64 value", version: float64(42), expected: 42},
		{name: "json number", version: json.Number("7"), expected: 7},
		{name: "string value", version: "42", expected: 42},
		{name: "invalid string value", version: "not-a-number", expectError: true},
		{name: "unsupported type", version: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{
				"data":     map[string]any{"api_key": "secret"},
				"metadata": map[string]any{"version": tt.version},
			}
			secret, err := decodeKVv2(raw, "secret/data/test")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, secret.Version)
			assert.Equal(t, "secret", secret.Data["api_key"])
		})
	}
}

func TestDecodeKVv2RejectsKVv1(t *testing.T) {
	_, err := decodeKVv2(map[string]any{"api_key": "x"}, "secret/test")
	assert.ErrorContains(t, err, "missing 'data' field")

	_, err = decodeKVv2(map[string]any{"data": map[string]any{}}, "secret/test")
	assert.ErrorContains(t, err, "missing 'metadata' field")
}

func TestApplySecrets(t *testing.T) {
	cfg := &Config{}
	cfg.AI.GenerateTest.APIKey = "op-specific"
	cfg.Vault.Secrets = VaultSecrets{
		APIKeys:   "secret/data/api",
		GeminiKey: "secret/data/gemini",
		SearchKey: "secret/data/search",
		Database:  "secret/data/db",
		Storage:   "secret/data/storage",
		Events:    "secret/data/events",
	}
	secrets := fakeSecrets{
		"secret/data/api":     {"keys": "k1, k2,,k3"},
		"secret/data/gemini":  {"api_key": "gemini-key"},
		"secret/data/search":  {"api_key": "search-key"},
		"secret/data/db":      {"dsn": "postgres://jobpilot@db/jobpilot"},
		"secret/data/storage": {"access_key_id": "AKIA", "secret_access_key": "shh"},
		"secret/data/events":  {"url": "amqp://guest:guest@mq:5672/"},
	}

	require.NoError(t, applySecrets(secrets, cfg, newTestLogger()))

	assert.Equal(t, []string{"k1", "k2", "k3"}, cfg.Server.APIKeys)
	assert.Equal(t, "gemini-key", cfg.AI.APIKey)
	assert.Equal(t, "gemini-key", cfg.AI.ParseResume.APIKey)
	assert.Equal(t, "gemini-key", cfg.AI.AnalyzeJobs.APIKey)
	assert.Equal(t, "op-specific", cfg.AI.GenerateTest.APIKey)
	assert.Equal(t, "search-key", cfg.Search.APIKey)
	assert.Equal(t, "postgres://jobpilot@db/jobpilot", cfg.Database.DSN)
	assert.Equal(t, "AKIA", cfg.Storage.AccessKeyID)
	assert.Equal(t, "shh", cfg.Storage.SecretAccessKey)
	assert.Equal(t, "amqp://guest:guest@mq:5672/", cfg.Events.URL)
}

func TestApplySecretsErrors(t *testing.T) {
	t.Run("missing path", func(t *testing.T) {
		cfg := &Config{}
		cfg.Vault.Secrets.Database = "secret/data/db"
		err := applySecrets(fakeSecrets{}, cfg, newTestLogger())
		assert.ErrorContains(t, err, "failed to load database from vault")
	})

	t.Run("missing key", func(t *testing.T) {
		cfg := &Config{}
		cfg.Vault.Secrets.SearchKey = "secret/data/search"
		err := applySecrets(fakeSecrets{"secret/data/search": {"token": "x"}}, cfg, newTestLogger())
		assert.ErrorContains(t, err, "key 'api_key' not found")
	})

	t.Run("non string value", func(t *testing.T) {
		cfg := &Config{}
		cfg.Vault.Secrets.Events = "secret/data/events"
		err := applySecrets(fakeSecrets{"secret/data/events": {"url": 5}}, cfg, newTestLogger())
		assert.ErrorContains(t, err, "is not a string")
	})
}

func TestLoadTLSCerts(t *testing.T) {
	t.Run("content fields", func(t *testing.T) {
		cfg := &Config{}
		cfg.Vault.Secrets.TLSCerts = "secret/data/tls"
		secrets := fakeSecrets{"secret/data/tls": {"cert": "CERT", "key": "KEY"}}

		require.NoError(t, applySecrets(secrets, cfg, newTestLogger()))
		assert.Equal(t, "CERT", cfg.Server.TLS.CertContent)
		assert.Equal(t, "KEY", cfg.Server.TLS.KeyContent)
		assert.Empty(t, cfg.Server.TLS.CAContent)
	})

	t.Run("deprecated file fields", func(t *testing.T) {
		cfg := &Config{}
		cfg.Vault.Secrets.TLSCerts = "secret/data/tls"
		secrets := fakeSecrets{"secret/data/tls": {"cert_file": "/etc/cert.pem"}}

		err := applySecrets(secrets, cfg, newTestLogger())
		assert.ErrorContains(t, err, "'cert_file' field is no longer supported")
	})
}

func TestResolveVaultToken(t *testing.T) {
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token\n"), 0600))

	tests := []struct {
		name        string
		config      VaultConfig
		expected    string
		expectError bool
	}{
		{name: "inline token", config: VaultConfig{Token: "inline"}, expected: "inline"},
		{name: "inline wins over file", config: VaultConfig{Token: "inline", TokenFile: tokenFile}, expected: "inline"},
		{name: "token file", config: VaultConfig{TokenFile: tokenFile}, expected: "file-token"},
		{name: "missing file", config: VaultConfig{TokenFile: filepath.Join(dir, "absent")}, expectError: true},
		{name: "no token", config: VaultConfig{}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := resolveVaultToken(tt.config)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, token)
		})
	}
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{}
	cfg.Vault.Enabled = false
	assert.NoError(t, ApplyVaultSecrets(cfg, newTestLogger()))
}
