package config

// Operation names shared by the AI service, metrics and logs.
const (
	OperationParseResume  = "parseResume"
	OperationAnalyzeJobs  = "analyzeJobs"
	OperationGenerateTest = "generateTest"
)

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// GetOperationConfig returns the AI configuration for op with global
// fallbacks applied. Unknown operations get the global settings only.
func (c *Config) GetOperationConfig(op string) OperationAIConfig {
	var cfg OperationAIConfig
	switch op {
	case OperationParseResume:
		cfg = c.AI.ParseResume
	case OperationAnalyzeJobs:
		cfg = c.AI.AnalyzeJobs
	case OperationGenerateTest:
		cfg = c.AI.GenerateTest
	}

	c.applyOperationDefaults(&cfg)
	return cfg
}
