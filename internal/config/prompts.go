package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// loadPrompts replaces inline prompts with file contents wherever a prompt
// file is configured.
func (c *Config) loadPrompts() error {
	ops := []struct {
		name    string
		prompts *PromptConfig
	}{
		{OperationParseResume, &c.AI.ParseResume.Prompts},
		{OperationAnalyzeJobs, &c.AI.AnalyzeJobs.Prompts},
		{OperationGenerateTest, &c.AI.GenerateTest.Prompts},
	}

	loaded := 0
	for _, op := range ops {
		n, err := op.prompts.load(op.name)
		if err != nil {
			return err
		}
		loaded += n
	}

	if loaded == 0 {
		log.Println("[CONFIG] No custom prompt files loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompt files loaded: %d", loaded)
	}
	return nil
}

func (p *PromptConfig) load(operation string) (int, error) {
	loaded := 0
	if p.SystemFile != "" {
		content, err := loadPromptFromFile(p.SystemFile, "system", operation)
		if err != nil {
			return loaded, err
		}
		p.System = content
		loaded++
	}
	if p.UserFile != "" {
		content, err := loadPromptFromFile(p.UserFile, "user", operation)
		if err != nil {
			return loaded, err
		}
		p.User = content
		loaded++
	}
	return loaded, nil
}

func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
		}
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmed))
	return trimmed, nil
}
