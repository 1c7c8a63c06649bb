package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/skylog/internal/catalogue"
	"github.com/MrSnakeDoc/skylog/internal/domain"
	"github.com/MrSnakeDoc/skylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skylog/internal/logger"
)

type catalogueEntryResponse struct {
	domain.CatalogueEntry
	EncyclopediaURL string `json:"encyclopediaUrl"`
}

func toEntryResponse(c *catalogue.Catalogue, e domain.CatalogueEntry) catalogueEntryResponse {
	return catalogueEntryResponse{CatalogueEntry: e, EncyclopediaURL: c.EncyclopediaURL(e)}
}

// entryFromURL resolves the {id} URL parameter. ok is false for a
// malformed or unknown id.
func entryFromURL(r *http.Request, c *catalogue.Catalogue) (domain.CatalogueEntry, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return domain.CatalogueEntry{}, false
	}
	return c.FindByID(id)
}

// ListCatalogue serves GET /api/catalogue.
func ListCatalogue(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := d.Catalogue.List()
		out := make([]catalogueEntryResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, toEntryResponse(d.Catalogue, e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GetCatalogueEntry serves GET /api/catalogue/{id}.
func GetCatalogueEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := entryFromURL(r, d.Catalogue)
		if !ok {
			writeError(w, http.StatusNotFound, "not_found", "catalogue entry not found")
			return
		}
		writeJSON(w, http.StatusOK, toEntryResponse(d.Catalogue, e))
	}
}

// Wiki redirects to the encyclopedia page of a catalogue entry.
func Wiki(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := entryFromURL(r, d.Catalogue)
		if !ok {
			http.NotFound(w, r)
			return
		}
		target := d.Catalogue.EncyclopediaURL(e)
		d.Logger.Debug("encyclopedia redirect",
			logger.Int("id", e.ID),
			logger.String("target", target))
		http.Redirect(w, r, target, http.StatusFound)
	}
}
