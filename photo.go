package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// GET /photo/{id}
//
// Serves the stored bytes exactly as uploaded. The content type is a fixed
// assumption, not sniffed from the data.
func getPhotoHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}

		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		// /photo/{id}
		if len(parts) != 2 || parts[0] != "photo" {
			http.NotFound(w, r)
			return
		}
		userID, err := strconv.Atoi(parts[1])
		if err != nil {
			http.NotFound(w, r)
			return
		}

		var photo []byte
		err = db.QueryRow("SELECT photo FROM users WHERE id = $1", userID).Scan(&photo)
		if err == sql.ErrNoRows || (err == nil && len(photo) == 0) {
			writeText(w, http.StatusNotFound, "photo not found")
			return
		} else if err != nil {
			slog.Error("error fetching photo", "user", userID, "error", err)
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "private, max-age=3600")
		_, _ = w.Write(photo)
	}
}
