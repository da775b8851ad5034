package config

import (
	"fmt"
	"os"
	"strings"

	"jobpilot/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/spf13/cast"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines KVv2 paths for each secret. Empty paths are skipped.
type VaultSecrets struct {
	APIKeys   string `mapstructure:"apiKeys"`   // key "keys", comma separated
	GeminiKey string `mapstructure:"geminiKey"` // key "api_key"
	SearchKey string `mapstructure:"searchKey"` // key "api_key"
	Database  string `mapstructure:"database"`  // key "dsn"
	Storage   string `mapstructure:"storage"`   // keys "access_key_id", "secret_access_key"
	Events    string `mapstructure:"events"`    // key "url"
	TLSCerts  string `mapstructure:"tlsCerts"`  // keys "cert", "key", "ca"
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

type secretReader interface {
	GetSecretV2(path string) (*VaultSecret, error)
}

// NewVaultClient creates a new Vault client from configuration
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		return nil, nil
	}

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	logger.Info("Connected to Vault",
		"address", vaultConfig.Address,
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{client: client, config: config, logger: logger}, nil
}

func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token

	if token == "" && config.TokenFile != "" {
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}

	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	return decodeKVv2(secret.Data, path)
}

func decodeKVv2(raw map[string]any, path string) (*VaultSecret, error) {
	data, ok := raw["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}

	metadata, ok := raw["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	versionRaw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := cast.ToInt64E(versionRaw)
	if err != nil {
		return nil, fmt.Errorf("could not parse secret version at %s: %w", path, err)
	}

	return &VaultSecret{Data: data, Version: version}, nil
}

// String returns data[key] as a string, or an error when it is missing or
// not a string.
func (s *VaultSecret) String(key string) (string, error) {
	value, ok := s.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret", key)
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string", key)
	}
	return str, nil
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}

	return applySecrets(client, config, logger)
}

// secretBinding copies named keys of one KVv2 secret into config fields.
type secretBinding struct {
	name   string
	path   string
	fields map[string]*string
}

func applySecrets(reader secretReader, config *Config, logger *errors.Logger) error {
	paths := config.Vault.Secrets

	var apiKeys, geminiKey string
	bindings := []secretBinding{
		{"api keys", paths.APIKeys, map[string]*string{"keys": &apiKeys}},
		{"gemini key", paths.GeminiKey, map[string]*string{"api_key": &geminiKey}},
		{"search key", paths.SearchKey, map[string]*string{"api_key": &config.Search.APIKey}},
		{"database", paths.Database, map[string]*string{"dsn": &config.Database.DSN}},
		{"storage", paths.Storage, map[string]*string{
			"access_key_id":     &config.Storage.AccessKeyID,
			"secret_access_key": &config.Storage.SecretAccessKey,
		}},
		{"events", paths.Events, map[string]*string{"url": &config.Events.URL}},
	}

	for _, b := range bindings {
		if b.path == "" {
			continue
		}
		secret, err := reader.GetSecretV2(b.path)
		if err != nil {
			return fmt.Errorf("failed to load %s from vault: %w", b.name, err)
		}
		for key, target := range b.fields {
			value, err := secret.String(key)
			if err != nil {
				return fmt.Errorf("failed to load %s from vault (%s): %w", b.name, b.path, err)
			}
			*target = value
		}
		logger.Info("Secret loaded from Vault", "secret", b.name, "version", secret.Version)
	}

	if apiKeys != "" {
		config.Server.APIKeys = splitKeys(apiKeys)
	}
	if geminiKey != "" {
		applyGeminiKeyToConfig(config, geminiKey)
	}

	if paths.TLSCerts != "" {
		if err := loadTLSCerts(reader, config, logger); err != nil {
			return err
		}
	}
	return nil
}

func splitKeys(value string) []string {
	parts := strings.Split(value, ",")
	keys := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			keys = append(keys, part)
		}
	}
	return keys
}

// applyGeminiKeyToConfig applies the Gemini API key to every AI operation
// that has no key of its own
func applyGeminiKeyToConfig(config *Config, geminiKey string) {
	config.AI.APIKey = geminiKey
	for _, op := range []*OperationAIConfig{&config.AI.ParseResume, &config.AI.AnalyzeJobs, &config.AI.GenerateTest} {
		if op.APIKey == "" {
			op.APIKey = geminiKey
		}
	}
}

func loadTLSCerts(reader secretReader, config *Config, logger *errors.Logger) error {
	tlsData, err := reader.GetSecretV2(config.Vault.Secrets.TLSCerts)
	if err != nil {
		return fmt.Errorf("failed to load TLS certificates from vault: %w", err)
	}

	for _, field := range []string{"cert_file", "key_file", "ca_file"} {
		if _, ok := tlsData.Data[field]; ok {
			return fmt.Errorf("vault TLS configuration error: '%s' field is no longer supported. Store certificate content in '%s' field instead",
				field, strings.TrimSuffix(field, "_file"))
		}
	}

	loaded := 0
	targets := map[string]*string{
		"cert": &config.Server.TLS.CertContent,
		"key":  &config.Server.TLS.KeyContent,
		"ca":   &config.Server.TLS.CAContent,
	}
	for key, target := range targets {
		if content, ok := tlsData.Data[key].(string); ok && content != "" {
			*target = content
			loaded++
		}
	}

	logger.Info("TLS certificates loaded from Vault", "certificates_loaded", loaded)
	return nil
}
