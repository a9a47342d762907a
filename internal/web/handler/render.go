// Package handler serves the HTML pages of the web interface.
package handler

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"

	"github.com/mcoot/powerup-ledger/internal/web/middleware"
	"github.com/mcoot/powerup-ledger/internal/web/templates"
)

func pageData(r *http.Request, title string) templates.PageData {
	return templates.PageData{
		Title:   title,
		Session: middleware.GetSession(r.Context()),
		Flash:   middleware.GetFlash(r.Context()),
	}
}

// render buffers the page so a failed render can still produce a 500
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// NotFound renders the HTML not-found page
func NotFound(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusNotFound, templates.NotFound(pageData(r, "Not found"), "The page you requested does not exist."))
}

// Panic renders the HTML error page after a recovered panic
func Panic(w http.ResponseWriter, r *http.Request, _ any) {
	render(w, r, http.StatusInternalServerError, templates.ServerError(pageData(r, "Error")))
}
