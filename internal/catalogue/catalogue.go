package catalogue

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/MrSnakeDoc/skylog/internal/domain"
)

// UnknownName is shown for an observation whose linked catalogue id no
// longer resolves.
const UnknownName = "Unknown"

// DefaultEncyclopediaURL is the outbound link template; %s receives the
// path-escaped entry name.
const DefaultEncyclopediaURL = "https://en.wikipedia.org/wiki/%s"

// Catalogue is the read-only reference list. It is safe for concurrent use
// because nothing mutates it after New.
type Catalogue struct {
	entries      []domain.CatalogueEntry
	byID         map[int]int // id -> index in entries
	encyclopedia string
}

// New builds a catalogue from entries, keeping their order.
func New(entries []domain.CatalogueEntry, encyclopediaURL string) *Catalogue {
	if encyclopediaURL == "" || !strings.Contains(encyclopediaURL, "%s") {
		encyclopediaURL = DefaultEncyclopediaURL
	}
	c := &Catalogue{
		entries:      slices.Clone(entries),
		byID:         make(map[int]int, len(entries)),
		encyclopedia: encyclopediaURL,
	}
	for i, e := range c.entries {
		c.byID[e.ID] = i
	}
	return c
}

// List returns every entry in catalogue order.
func (c *Catalogue) List() []domain.CatalogueEntry {
	return slices.Clone(c.entries)
}

// Len returns the number of entries.
func (c *Catalogue) Len() int { return len(c.entries) }

// FindByID looks an entry up. A missing id is not an error.
func (c *Catalogue) FindByID(id int) (domain.CatalogueEntry, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.CatalogueEntry{}, false
	}
	return c.entries[i], true
}

// NameOf resolves a weak reference for display: "" when there is no
// reference, UnknownName when it dangles.
func (c *Catalogue) NameOf(id *int) string {
	if id == nil {
		return ""
	}
	if e, ok := c.FindByID(*id); ok {
		return e.Name
	}
	return UnknownName
}

// EncyclopediaURL returns the public encyclopedia page for e.
func (c *Catalogue) EncyclopediaURL(e domain.CatalogueEntry) string {
	return fmt.Sprintf(c.encyclopedia, url.PathEscape(e.Name))
}
