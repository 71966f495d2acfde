package main

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// ProfileForm carries the editable profile fields. Login and password are
// immutable after registration and have no place here.
type ProfileForm struct {
	Name      string
	Gender    string `validate:"omitempty,oneof=male female"`
	Seeking   string `validate:"omitempty,oneof=male female"`
	BirthDate string `validate:"omitempty,datetime=2006-01-02"`
	About     string
	Active    bool
}

// profileResponse shapes a profile row for JSON output. The credential hash
// never leaves the store; the photo is reported as presence only.
func profileResponse(u *UserProfile) map[string]interface{} {
	return map[string]interface{}{
		"id":         u.ID,
		"login":      u.Login,
		"name":       u.Name,
		"gender":     u.Gender,
		"seeking":    u.Seeking,
		"birth_date": u.BirthDate,
		"about":      u.About,
		"active":     u.Active,
		"has_photo":  len(u.Photo) > 0,
	}
}

func fetchOwnProfile(db *sql.DB, userID int) (*UserProfile, error) {
	var u UserProfile
	err := db.QueryRow(`
		SELECT id, login, name, gender, seeking, birth_date, about, photo, active
		FROM users WHERE id = $1
	`, userID).Scan(&u.ID, &u.Login, &u.Name, &u.Gender, &u.Seeking, &u.BirthDate, &u.About, &u.Photo, &u.Active)
	if err == sql.ErrNoRows {
		return nil, errProfileNotFound
	} else if err != nil {
		return nil, err
	}
	return &u, nil
}

// GET /profile and POST /profile
func profileHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(userIDKey).(int)

		current, err := fetchOwnProfile(db, userID)
		if errors.Is(err, errProfileNotFound) {
			writeError(w, http.StatusNotFound, "profile_not_found")
			return
		} else if err != nil {
			slog.Error("error fetching profile", "user", userID, "error", err)
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}

		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, profileResponse(current))

		case http.MethodPost:
			r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
			if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
				writeError(w, http.StatusRequestEntityTooLarge, "body_too_large")
				return
			}

			form := ProfileForm{
				Name:      strings.TrimSpace(r.FormValue("name")),
				Gender:    strings.TrimSpace(r.FormValue("gender")),
				Seeking:   strings.TrimSpace(r.FormValue("looking_for")),
				BirthDate: strings.TrimSpace(r.FormValue("birth_date")),
				About:     strings.TrimSpace(r.FormValue("about")),
				Active:    r.FormValue("active") == "on",
			}
			if err := validate.Struct(form); err != nil {
				writeError(w, http.StatusBadRequest, validationCode(err))
				return
			}

			// Full replace of the mutable fields. The stored photo is kept
			// unless the form carried a new upload.
			photo := current.Photo
			if uploaded := readPhotoUpload(r); uploaded != nil {
				photo = uploaded
			}

			_, err := db.Exec(`
				UPDATE users
				SET name = $1, gender = $2, seeking = $3, birth_date = $4, about = $5, photo = $6, active = $7
				WHERE id = $8
			`, form.Name, form.Gender, form.Seeking, form.BirthDate, form.About, photo, form.Active, userID)
			if err != nil {
				slog.Error("error updating profile", "user", userID, "error", err)
				writeError(w, http.StatusInternalServerError, "profile_save_error")
				return
			}

			updated := *current
			updated.Name = form.Name
			updated.Gender = form.Gender
			updated.Seeking = form.Seeking
			updated.BirthDate = form.BirthDate
			updated.About = form.About
			updated.Photo = photo
			updated.Active = form.Active
			writeJSON(w, http.StatusOK, profileResponse(&updated))

		default:
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
		}
	})
}

// POST /delete_profile — unconditional hard delete, then the session goes too.
func deleteProfileHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		userID := r.Context().Value(userIDKey).(int)

		if _, err := db.Exec("DELETE FROM users WHERE id = $1", userID); err != nil {
			slog.Error("error deleting profile", "user", userID, "error", err)
			writeError(w, http.StatusInternalServerError, "delete_error")
			return
		}

		clearSessionCookie(w)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
}
