package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/MrSnakeDoc/skylog/internal/domain"
	"github.com/MrSnakeDoc/skylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skylog/internal/logger"
	"github.com/MrSnakeDoc/skylog/internal/photo"
)

//go:embed templates/*.html
var templateFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// mdRenderer renders comments. Raw HTML in the input is omitted and
// dangerous link schemes are dropped since WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) template.HTML {
	if md == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// photoSrc only lets image data URLs through to <img src>; anything else
// renders as a placeholder.
func photoSrc(data string) template.URL {
	if !photo.IsImageDataURL(data) {
		return ""
	}
	return template.URL(data)
}

type observationView struct {
	domain.Observation
	PhotoSrc      template.URL
	CommentHTML   template.HTML
	CatalogueName string
}

type catalogueView struct {
	domain.CatalogueEntry
	WikiPath string
}

// formValues echoes a rejected submission back into the form.
type formValues struct {
	Date      string
	Comment   string
	Category  string
	Messier   string
	Keep      bool
	Watermark bool
}

type indexPage struct {
	Theme        string
	CSRFField    template.HTML
	ReturnTo     string
	Filter       domain.CategoryFilter
	Filters      []domain.CategoryFilter
	Categories   []domain.Category
	Catalogue    []catalogueView
	Observations []observationView
	Total        int
	Added        bool
	Error        string
	Form         formValues
}

func defaultForm(now func() string) formValues {
	return formValues{Date: now(), Category: string(domain.DefaultCategory), Keep: true}
}

// renderIndex fills in the catalogue and the filtered observations and
// writes the page with status.
func renderIndex(w http.ResponseWriter, r *http.Request, d deps.Deps, status int, page indexPage) {
	page.Theme = themeFrom(r)
	page.CSRFField = csrf.TemplateField(r)
	page.ReturnTo = r.URL.RequestURI()
	if r.Method != http.MethodGet {
		page.ReturnTo = "/"
	}
	if page.Filter == "" {
		page.Filter = domain.FilterAll
	}
	page.Filters = append([]domain.CategoryFilter{domain.FilterAll}, categoriesAsFilters()...)
	page.Categories = domain.Categories

	for _, e := range d.Catalogue.List() {
		page.Catalogue = append(page.Catalogue, catalogueView{
			CatalogueEntry: e,
			WikiPath:       "/catalogue/" + strconv.Itoa(e.ID) + "/wiki",
		})
	}

	all := d.Store.Observations()
	page.Total = len(all)
	for o := range domain.FilterByCategory(all, page.Filter) {
		page.Observations = append(page.Observations, observationView{
			Observation:   o,
			PhotoSrc:      photoSrc(o.PhotoData),
			CommentHTML:   renderMarkdown(o.Comment),
			CatalogueName: d.Catalogue.NameOf(o.LinkedCatalogueID),
		})
	}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, page); err != nil {
		d.Logger.Error("failed to render index", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func categoriesAsFilters() []domain.CategoryFilter {
	out := make([]domain.CategoryFilter, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		out = append(out, domain.CategoryFilter(c))
	}
	return out
}
