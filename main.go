package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
)

// GET / — landing page: reports whether the visitor holds a session.
func indexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, login, ok := currentUserID(r)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"authenticated": ok,
			"login":         login,
		})
	}
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/", indexHandler())
	mux.Handle("/dating", datingHandler(db))
	mux.Handle("/login", loginHandler(db))
	mux.Handle("/logout", logoutHandler())
	mux.Handle("/register", registerHandler(db))
	mux.Handle("/photo/", getPhotoHandler(db))
	mux.Handle("/profile", profileHandler(db))
	mux.Handle("/delete_profile", deleteProfileHandler(db))

	// Health check endpoint for Docker
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return mux
}

func main() {
	cfg, err := NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.Level(cfg.LogLevel),
	})))

	jwtSecret = []byte(cfg.SessionSecret)
	initDB(cfg.DatabaseDSN)

	slog.Info("starting matchpoint backend", "address", cfg.Address)
	if err := http.ListenAndServe(cfg.Address, withCORS(newMux())); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
