package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/invisireel/backend/internal/models"
)

// fileCatalog is the YAML override layout. Lists left out keep the built-in values.
type fileCatalog struct {
	Templates     []models.Template     `yaml:"templates"`
	Categories    []models.Category     `yaml:"categories"`
	FlowTemplates []models.FlowTemplate `yaml:"flow_templates"`
	Music         []models.MusicOption  `yaml:"music"`
	Plans         []models.Plan         `yaml:"plans"`
	Voices        []models.Voice        `yaml:"voices"`
}

// Load returns the built-in catalog, overridden by the lists in the YAML file at path.
// An empty path returns Default().
func Load(path string) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	if err := c.apply(data); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) apply(data []byte) error {
	var f fileCatalog
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse catalog file: %w", err)
	}
	if len(f.Templates) > 0 {
		c.templates = f.Templates
	}
	if len(f.Categories) > 0 {
		c.categories = f.Categories
	}
	if len(f.FlowTemplates) > 0 {
		c.flowTemplates = f.FlowTemplates
	}
	if len(f.Music) > 0 {
		c.music = f.Music
	}
	if len(f.Plans) > 0 {
		c.plans = f.Plans
	}
	if len(f.Voices) > 0 {
		c.voices = f.Voices
	}
	return nil
}
