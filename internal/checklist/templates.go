// internal/checklist/templates.go
package checklist

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"kitchenback/internal/errs"
	"kitchenback/internal/logger"
)

// Template is a reusable checklist definition, one per recurring routine
// (opening checks, closing checks, sanitation rounds).
type Template struct {
	Name        string   `yaml:"name"`
	Workshop    string   `yaml:"workshop"`
	Responsible string   `yaml:"responsible"`
	Items       []string `yaml:"items"`
}

type templateFile struct {
	Templates []Template `yaml:"templates"`
}

// LoadTemplates reads checklist templates from a yaml file. A missing file
// is not an error; the restaurant simply has no predefined routines.
func LoadTemplates(path string) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.LogInfo("No checklist templates at %s", path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read templates file: %w", err)
	}

	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse templates file: %w", err)
	}

	for i, tmpl := range file.Templates {
		if tmpl.Name == "" {
			return nil, fmt.Errorf("template %d has no name: %w", i, errs.ErrValidation)
		}
		if tmpl.Workshop == "" {
			return nil, fmt.Errorf("template %q has no workshop: %w", tmpl.Name, errs.ErrValidation)
		}
		if len(tmpl.Items) == 0 {
			return nil, fmt.Errorf("template %q has no items: %w", tmpl.Name, errs.ErrValidation)
		}
	}

	logger.LogInfo("Loaded %d checklist template(s) from %s", len(file.Templates), path)
	return file.Templates, nil
}

// FindTemplate looks a template up by name.
func FindTemplate(templates []Template, name string) (Template, error) {
	for _, tmpl := range templates {
		if tmpl.Name == name {
			return tmpl, nil
		}
	}
	return Template{}, fmt.Errorf("checklist template %q: %w", name, errs.ErrNotFound)
}
