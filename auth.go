package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// UserIDKey is the key type for storing user ID in context
type UserIDKey string

const userIDKey UserIDKey = "userID"

const (
	sessionCookieName = "session"
	sessionTTL        = 24 * time.Hour
)

// Set from config in main; tests override it.
var jwtSecret = []byte("your_secret_key_please_change_in_production")

// Uploaded photos are read fully into memory, so the request body is capped.
const maxUploadBytes = 8 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Logins are restricted to latin letters, digits and a little punctuation.
	_ = v.RegisterValidation("login_charset", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, r := range s {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			case r == '_' || r == '.' || r == '-':
			default:
				return false
			}
		}
		return s != ""
	})
	return v
}

// RegisterForm carries the registration fields, validated at the boundary
// before anything reaches the database.
type RegisterForm struct {
	Login     string `validate:"required,login_charset"`
	Password  string `validate:"required"`
	Name      string
	Gender    string `validate:"omitempty,oneof=male female"`
	Seeking   string `validate:"omitempty,oneof=male female"`
	BirthDate string `validate:"omitempty,datetime=2006-01-02"`
	About     string
	Active    bool
}

func registerHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"form":   "register",
				"fields": []string{"login", "password", "name", "gender", "looking_for", "birth_date", "about", "active", "photo"},
			})
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large")
			return
		}

		form := RegisterForm{
			Login:     strings.TrimSpace(r.FormValue("login")),
			Password:  r.FormValue("password"),
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

		photo := readPhotoUpload(r)

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "hash_error")
			slog.Error("error hashing password", "error", err)
			return
		}

		var newID int
		err = db.QueryRow(`
			INSERT INTO users (login, password_hash, name, gender, seeking, birth_date, about, photo, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`, form.Login, string(hashedPassword), form.Name, form.Gender, form.Seeking,
			form.BirthDate, form.About, photo, form.Active).Scan(&newID)
		if err != nil {
			if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
				writeError(w, http.StatusConflict, "login_taken")
				return
			}
			writeError(w, http.StatusInternalServerError, "register_error")
			slog.Error("error saving user to database", "error", err)
			return
		}

		slog.Info("user registered", "id", newID, "login", form.Login)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// validationCode maps the first failed field to a stable error code.
func validationCode(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Field() == "Login" && fe.Tag() == "login_charset" {
			return "invalid_login_charset"
		}
		return "invalid_" + strings.ToLower(fe.Field())
	}
	return "validation_error"
}

// readPhotoUpload returns the uploaded photo bytes, or nil when the form
// carried no file. The bytes are stored as-is.
func readPhotoUpload(r *http.Request) []byte {
	f, hdr, err := r.FormFile("photo")
	if err != nil || hdr.Filename == "" {
		return nil
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil || len(data) == 0 {
		return nil
	}
	return data
}

func loginHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"form":   "login",
				"fields": []string{"username", "password"},
			})
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}

		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_form")
			return
		}
		login := strings.TrimSpace(r.FormValue("username"))
		password := r.FormValue("password")
		if login == "" || password == "" {
			writeError(w, http.StatusBadRequest, "missing_fields")
			return
		}

		var userID int
		var passwordHash string
		err := db.QueryRow("SELECT id, password_hash FROM users WHERE login = $1", login).Scan(&userID, &passwordHash)
		if err == sql.ErrNoRows {
			writeText(w, http.StatusUnauthorized, "invalid login or password")
			return
		} else if err != nil {
			slog.Error("error querying user", "error", err)
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}

		// Compare the provided password with the stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
			writeText(w, http.StatusUnauthorized, "invalid login or password")
			return
		}

		token, err := newSessionToken(userID, login)
		if err != nil {
			slog.Error("error generating session token", "error", err)
			writeError(w, http.StatusInternalServerError, "token_generation_error")
			return
		}
		setSessionCookie(w, token)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clearSessionCookie(w)
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// --- Session cookie helpers ---

func newSessionToken(userID int, login string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"login":   login,
		"exp":     time.Now().Add(sessionTTL).Unix(),
	})
	return token.SignedString(jwtSecret)
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// currentUserID resolves the signed session cookie to a user id.
func currentUserID(r *http.Request) (int, string, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return 0, "", false
	}
	token, err := jwt.Parse(c.Value, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, "", false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", false
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", false
	}
	login, _ := claims["login"].(string)
	return int(userID), login, true
}

// authenticate resolves the session once per request and passes the identity
// on through the request context. Anonymous requests go to the login page.
func authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := currentUserID(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	}
}
