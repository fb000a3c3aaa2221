package api

import (
	"embed"
	"log/slog"
	"net/http"
)

//go:embed static/openapi.json static/docs.html
var static embed.FS

func handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	serveStatic(w, "static/openapi.json", "application/json")
}

func handleDocs(w http.ResponseWriter, r *http.Request) {
	serveStatic(w, "static/docs.html", "text/html; charset=utf-8")
}

func serveStatic(w http.ResponseWriter, name, contentType string) {
	b, err := static.ReadFile(name)
	if err != nil {
		slog.Error("reading embedded asset", "name", name, "error", err)
		internalError(w)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(b)
}
