package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/3-lines-studio/hydrate"
)

func main() {
	cfg, err := hydrate.LoadConfig("hydrate.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	app, err := hydrate.New(*cfg)
	if err != nil {
		log.Fatalf("Failed to start renderer: %v", err)
	}
	defer func() { _ = app.Close() }()

	router := chi.NewRouter()
	router.Get("/message/{message}", func(w http.ResponseWriter, req *http.Request) {
		html, err := app.Render(req.Context(), "pages/home.jsx", map[string]any{
			"name": chi.URLParam(req, "message"),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	})
	router.Mount("/", app.Handler())

	log.Printf("Serving on http://localhost%s", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, router); err != nil {
		log.Fatal(err)
	}
}
