package config

import (
	"fmt"
	"os"

	"github.com/lei/datagov-gateway/internal/models"
	"gopkg.in/yaml.v3"
)

// ResourcesConfig represents the resources file structure
type ResourcesConfig struct {
	Resources []ResourceDefinition `yaml:"resources"`
}

// ResourceDefinition represents a resource entry in the resources file
type ResourceDefinition struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
}

// LoadResources reads the list of resources the proxy exposes
func LoadResources(path string) ([]*models.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resources file: %w", err)
	}

	var cfg ResourcesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse resources file: %w", err)
	}

	// Validate and convert to models
	resources := make([]*models.Resource, 0, len(cfg.Resources))
	seen := make(map[string]bool)
	for i, rd := range cfg.Resources {
		if rd.ID == "" {
			return nil, fmt.Errorf("resource at index %d missing id", i)
		}
		if seen[rd.ID] {
			return nil, fmt.Errorf("resource %s listed twice", rd.ID)
		}
		seen[rd.ID] = true

		displayName := rd.DisplayName
		if displayName == "" {
			displayName = rd.ID
		}

		resources = append(resources, &models.Resource{
			ID:          rd.ID,
			DisplayName: displayName,
			Description: rd.Description,
		})
	}

	return resources, nil
}
