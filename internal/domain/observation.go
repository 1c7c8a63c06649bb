package domain

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format observations are recorded with.
const DateLayout = "2006-01-02"

// Observation is one user-submitted record of a night under the sky.
//
// An Observation is immutable once the store has accepted it: the store
// only ever appends whole records, it never edits them.
type Observation struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is derived from the creation time (Unix milliseconds) and is
	// strictly increasing within a store. See IDGenerator.
	ID int64 `json:"id"`

	// ─────────────────────────────
	// User content
	// ─────────────────────────────

	// PhotoData is the picture as text, normally a data URL
	// ("data:image/jpeg;base64,..."). The store treats it as opaque.
	PhotoData string `json:"photoData"`

	// Comment is free text, rendered as Markdown. May be empty.
	Comment string `json:"comment"`

	// Date is the night of the observation, formatted with DateLayout.
	Date string `json:"date"`

	Category Category `json:"category"`

	// LinkedCatalogueID is a weak reference to a CatalogueEntry.ID.
	// It is never resolved into a pointer: the entry may not exist.
	LinkedCatalogueID *int `json:"linkedCatalogueId,omitempty"`

	// ─────────────────────────────
	// Flags
	// ─────────────────────────────

	Keep bool `json:"keep"`

	// Watermarked records that the user asked for a watermark.
	// It has no effect on PhotoData.
	Watermarked bool `json:"watermarked"`
}

// Candidate is an observation as submitted, before validation and
// before an ID is assigned.
type Candidate struct {
	PhotoData         string `json:"photoData"`
	Comment           string `json:"comment"`
	Date              string `json:"date"`
	Category          string `json:"category"`
	LinkedCatalogueID *int   `json:"linkedCatalogueId,omitempty"`
	Keep              *bool  `json:"keep,omitempty"` // nil means true
	Watermarked       bool   `json:"watermarked"`
}

// Validate checks the candidate and returns the observation it describes,
// without an ID. Checks run in a fixed order so the first problem wins:
// photo, date presence, date format, category.
func (c Candidate) Validate() (Observation, error) {
	if strings.TrimSpace(c.PhotoData) == "" {
		return Observation{}, ErrMissingPhoto
	}
	date := strings.TrimSpace(c.Date)
	if date == "" {
		return Observation{}, ErrMissingDate
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return Observation{}, ErrInvalidDate
	}
	category, err := ParseCategory(c.Category)
	if err != nil {
		return Observation{}, err
	}

	keep := true
	if c.Keep != nil {
		keep = *c.Keep
	}

	var linked *int
	if c.LinkedCatalogueID != nil {
		id := *c.LinkedCatalogueID
		linked = &id
	}

	return Observation{
		PhotoData:         c.PhotoData,
		Comment:           c.Comment,
		Date:              date,
		Category:          category,
		LinkedCatalogueID: linked,
		Keep:              keep,
		Watermarked:       c.Watermarked,
	}, nil
}
