package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/skylog/internal/domain"
	"github.com/MrSnakeDoc/skylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skylog/internal/logger"
	"github.com/MrSnakeDoc/skylog/internal/observation"
	"github.com/MrSnakeDoc/skylog/internal/photo"
	"github.com/MrSnakeDoc/skylog/internal/utils"
)

const (
	ThemeCookie = "skylog_theme"
	themeLight  = "light"
	themeDark   = "dark"
)

func themeFrom(r *http.Request) string {
	if c, err := r.Cookie(ThemeCookie); err == nil && c.Value == themeDark {
		return themeDark
	}
	return themeLight
}

func today(d deps.Deps) func() string {
	return func() string { return d.Now().Format(domain.DateLayout) }
}

// Index serves the main page: the form, the catalogue and the
// observations filtered by ?category=.
func Index(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := indexPage{
			Added: r.URL.Query().Get("added") == "1",
			Form:  defaultForm(today(d)),
		}
		status := http.StatusOK

		filter, err := domain.ParseFilter(r.URL.Query().Get("category"))
		if err != nil {
			status = http.StatusBadRequest
			page.Error = err.Error()
			filter = domain.FilterAll
		}
		page.Filter = filter

		renderIndex(w, r, d, status, page)
	}
}

// SubmitObservation handles the multipart form on POST /observations.
// The form must already be parsed (mw.ParseForm).
func SubmitObservation(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := formValues{
			Date:      strings.TrimSpace(r.PostFormValue("date")),
			Comment:   r.PostFormValue("comment"),
			Category:  r.PostFormValue("category"),
			Messier:   strings.TrimSpace(r.PostFormValue("messier")),
			Keep:      r.PostFormValue("keep") != "",
			Watermark: r.PostFormValue("watermark") != "",
		}
		reject := func(status int, msg string) {
			renderIndex(w, r, d, status, indexPage{Error: msg, Form: form})
		}

		keep := form.Keep
		c := domain.Candidate{
			Comment:     form.Comment,
			Date:        form.Date,
			Category:    form.Category,
			Keep:        &keep,
			Watermarked: form.Watermark,
		}
		if form.Messier != "" {
			id, err := strconv.Atoi(form.Messier)
			if err != nil {
				reject(http.StatusBadRequest, "unknown catalogue object")
				return
			}
			c.LinkedCatalogueID = &id
		}

		data, err := readUpload(r, d.MaxPhotoBytes)
		if err != nil {
			d.Logger.Debug("photo upload refused", logger.Error(err))
			reject(http.StatusBadRequest, err.Error())
			return
		}
		c.PhotoData = data

		_, err = d.Store.Add(r.Context(), c)
		var verr *domain.ValidationError
		var perr *observation.PersistError
		switch {
		case err == nil:
			http.Redirect(w, r, "/?added=1", http.StatusSeeOther)
		case errors.As(err, &verr):
			reject(http.StatusBadRequest, verr.Message)
		case errors.As(err, &perr):
			d.Logger.Error("failed to persist observation", logger.Error(err))
			reject(http.StatusInternalServerError, "the observation could not be saved, please try again")
		default:
			d.Logger.Error("failed to add observation", logger.Error(err))
			reject(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		}
	}
}

// readUpload returns the "photo" part as a data URL, or "" when no file
// was sent.
func readUpload(r *http.Request, limit int64) (string, error) {
	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer utils.Close(file)

	declared := header.Header.Get("Content-Type")
	if declared == "" {
		declared = photo.TypeByExtension(header.Filename)
	}
	return photo.ReadDataURL(file, declared, limit)
}

// Theme flips the light/dark cookie and sends the user back.
func Theme(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := themeDark
		if themeFrom(r) == themeDark {
			next = themeLight
		}
		http.SetCookie(w, &http.Cookie{
			Name:     ThemeCookie,
			Value:    next,
			Path:     "/",
			MaxAge:   int((365 * 24 * time.Hour).Seconds()),
			HttpOnly: true,
			Secure:   d.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, safeReturn(r.PostFormValue("return")), http.StatusSeeOther)
	}
}

// safeReturn accepts local paths only.
func safeReturn(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	return p
}

// Calendar sends the user to their calendar.
func Calendar(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, d.CalendarURL, http.StatusFound)
	}
}
