package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"ambulancewatch/internal/config"
)

// Pages maps page routes to HTML files in the static directory.
var Pages = map[string]string{
	"/":             "index",
	"/main":         "main",
	"/about":        "about",
	"/how-it-works": "how_it_works",
	"/service":      "service",
	"/contact":      "contact",
	"/help":         "help",
	"/detection":    "detection",
}

// PageHandler serves STATIC_DIR/<page>.html, or 404 when the file is missing.
func PageHandler(cfg *config.Config, page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		servePage(w, r, cfg.StaticDir, page)
	}
}

func servePage(w http.ResponseWriter, r *http.Request, staticDir, page string) {
	filePath := filepath.Join(staticDir, page+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, r, filePath)
}
