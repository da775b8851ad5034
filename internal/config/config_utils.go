package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()

	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Search.APIKey == "" {
		c.Search.APIKey = os.Getenv("FIRECRAWL_API_KEY")
	}
}

// applyServerAPIKeyFallbacks accepts a comma separated key list from the
// environment, which viper does not split for slices
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 1 && strings.Contains(c.Server.APIKeys[0], ",") {
		c.Server.APIKeys = strings.Split(c.Server.APIKeys[0], ",")
	}
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("JOBPILOT_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = strings.Split(apiKeysEnv, ",")
		}
	}
	for i, key := range c.Server.APIKeys {
		c.Server.APIKeys[i] = strings.TrimSpace(key)
	}
}

func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

func configured(value string) string {
	if value == "" {
		return "***NOT SET***"
	}
	return "***CONFIGURED***"
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"JOBPILOT_AI_APIKEY",
		"JOBPILOT_AI_MODEL",
		"JOBPILOT_DATABASE_DRIVER",
		"JOBPILOT_DATABASE_DSN",
		"JOBPILOT_STORAGE_BACKEND",
		"JOBPILOT_SEARCH_APIKEY",
		"JOBPILOT_EVENTS_URL",
		"JOBPILOT_SERVER_PORT",
		"JOBPILOT_APP_LOGLEVEL",
		"JOBPILOT_VAULT_ENABLED",
		"GEMINI_API_KEY",
		"FIRECRAWL_API_KEY",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		lower := strings.ToLower(envVar)
		if strings.Contains(lower, "key") || strings.Contains(lower, "dsn") || strings.Contains(lower, "url") {
			log.Printf("[CONFIG]   %s=***MASKED***", envVar)
		} else {
			log.Printf("[CONFIG]   %s=%s", envVar, value)
		}
		hasEnvVars = true
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] AI Model: %s", c.AI.Model)
	log.Printf("[CONFIG] AI API Key: %s", configured(c.AI.APIKey))
	log.Printf("[CONFIG] Database Driver: %s", c.Database.Driver)
	log.Printf("[CONFIG] Storage Backend: %s", c.Storage.Backend)
	log.Printf("[CONFIG] Search API Key: %s", configured(c.Search.APIKey))
	log.Printf("[CONFIG] Events Enabled: %t", c.Events.Enabled)
	log.Printf("[CONFIG] Server: %s:%s (TLS %s)", c.Server.Host, c.Server.Port, c.Server.TLS.Mode)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Println("[CONFIG] =====================================")
}
