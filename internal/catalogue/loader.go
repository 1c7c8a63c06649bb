package catalogue

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/skylog/internal/domain"
)

//go:embed messier.yaml
var builtin []byte

// Loader reads a catalogue document, either the embedded one or a YAML
// file given by path.
type Loader struct {
	filePath string
}

// NewLoader creates a loader. An empty filePath selects the built-in
// catalogue.
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads, decodes and validates the catalogue.
func (l *Loader) Load() ([]domain.CatalogueEntry, error) {
	data := builtin
	source := "built-in catalogue"
	if l.filePath != "" {
		raw, err := os.ReadFile(l.filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalogue file: %w", err)
		}
		data = raw
		source = l.filePath
	}

	entries, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return entries, nil
}

func decode(data []byte) ([]domain.CatalogueEntry, error) {
	var entries []domain.CatalogueEntry
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue yaml: %w", err)
	}
	if err := validate(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

var ErrEmptyCatalogue = errors.New("catalogue has no entries")

func validate(entries []domain.CatalogueEntry) error {
	if len(entries) == 0 {
		return ErrEmptyCatalogue
	}
	seen := make(map[int]bool, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return fmt.Errorf("entry #%d (id %d) has no name", i, e.ID)
		}
		if seen[e.ID] {
			return fmt.Errorf("duplicate catalogue id %d (%s)", e.ID, e.Name)
		}
		if !e.Type.Valid() {
			return fmt.Errorf("entry %s has unknown type %q", e.Name, e.Type)
		}
		seen[e.ID] = true
	}
	return nil
}
