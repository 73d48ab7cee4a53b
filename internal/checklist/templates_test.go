package checklist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"kitchenback/internal/errs"
)

func writeTemplateFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checklists.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write template file: %v", err)
	}
	return path
}

func TestLoadTemplates(t *testing.T) {
	path := writeTemplateFile(t, `
templates:
  - name: "Opening checks"
    workshop: "Hot Workshop"
    responsible: "shift chef"
    items:
      - "Fridge temperatures logged"
      - "Surfaces sanitized"
  - name: "Closing checks"
    workshop: "Hot Workshop"
    items:
      - "Equipment switched off"
`)

	templates, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("LoadTemplates failed: %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(templates))
	}
	if templates[0].Name != "Opening checks" || len(templates[0].Items) != 2 {
		t.Errorf("unexpected first template: %+v", templates[0])
	}
}

func TestLoadTemplatesMissingFile(t *testing.T) {
	templates, err := LoadTemplates(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if templates != nil {
		t.Errorf("expected nil templates, got %v", templates)
	}
}

func TestLoadTemplatesValidation(t *testing.T) {
	path := writeTemplateFile(t, `
templates:
  - name: "No items"
    workshop: "Hot Workshop"
    items: []
`)

	if _, err := LoadTemplates(path); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("template without items: expected validation error, got %v", err)
	}
}

func TestFindTemplate(t *testing.T) {
	templates := []Template{{Name: "Opening checks", Workshop: "Hot Workshop", Items: []string{"x"}}}

	if _, err := FindTemplate(templates, "Opening checks"); err != nil {
		t.Errorf("existing template not found: %v", err)
	}
	if _, err := FindTemplate(templates, "Midnight checks"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
