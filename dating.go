package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// Candidates per match browser page.
const perPage = 3

// MatchPage is one page of candidate matches for a viewer.
type MatchPage struct {
	Page       int         `json:"page"`
	Candidates []Candidate `json:"candidates"`
	HasNext    bool        `json:"has_next"`
	NextPage   int         `json:"next_page,omitempty"`
}

// GET /dating?page=N
func datingHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		viewerID := r.Context().Value(userIDKey).(int)
		page := parsePage(r.URL.Query().Get("page"))

		result, err := browseMatches(db, viewerID, page, time.Now())
		switch {
		case errors.Is(err, errProfileNotFound):
			writeError(w, http.StatusNotFound, "profile_not_found")
		case errors.Is(err, errRecordCorrupt):
			slog.Error("corrupt birth date in candidate row", "viewer", viewerID, "error", err)
			writeError(w, http.StatusInternalServerError, "record_corrupt")
		case err != nil:
			slog.Error("error browsing matches", "viewer", viewerID, "error", err)
			writeError(w, http.StatusInternalServerError, "db_error")
		default:
			writeJSON(w, http.StatusOK, result)
		}
	})
}

// parsePage falls back to the first page on missing or malformed input.
func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// browseMatches returns one page of candidate profiles for the viewer.
//
// A candidate is shown only under the mutual-interest filter: the candidate's
// gender equals what the viewer is seeking AND the candidate's seeking value
// equals the viewer's gender. Inactive profiles and the viewer's own row are
// never candidates. Results are ordered by ascending id so LIMIT/OFFSET
// pagination is stable, and has_next comes from an exact count rather than a
// full-page heuristic.
func browseMatches(db *sql.DB, viewerID, page int, now time.Time) (*MatchPage, error) {
	var gender, seeking string
	err := db.QueryRow("SELECT gender, seeking FROM users WHERE id = $1", viewerID).Scan(&gender, &seeking)
	if err == sql.ErrNoRows {
		return nil, errProfileNotFound
	} else if err != nil {
		return nil, fmt.Errorf("looking up viewer criteria: %w", err)
	}

	var total int
	err = db.QueryRow(`
		SELECT COUNT(*) FROM users
		WHERE active = TRUE AND gender = $1 AND seeking = $2 AND id <> $3
	`, seeking, gender, viewerID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("counting candidates: %w", err)
	}

	offset := (page - 1) * perPage
	rows, err := db.Query(`
		SELECT id, name, gender, about, photo IS NOT NULL, birth_date
		FROM users
		WHERE active = TRUE AND gender = $1 AND seeking = $2 AND id <> $3
		ORDER BY id ASC
		LIMIT $4 OFFSET $5
	`, seeking, gender, viewerID, perPage, offset)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	candidates := []Candidate{}
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Gender, &c.About, &c.HasPhoto, &c.BirthDate); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		c.Age, err = deriveAge(c.BirthDate, now)
		if err != nil {
			return nil, fmt.Errorf("%w: user %d: %v", errRecordCorrupt, c.ID, err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading candidates: %w", err)
	}

	result := &MatchPage{
		Page:       page,
		Candidates: candidates,
		HasNext:    offset+len(candidates) < total,
	}
	if result.HasNext {
		result.NextPage = page + 1
	}
	return result, nil
}

// deriveAge computes age in whole years at the reference date, subtracting
// one year when the birthday has not yet occurred that year.
func deriveAge(birthDate string, now time.Time) (int, error) {
	born, err := time.Parse("2006-01-02", birthDate)
	if err != nil {
		return 0, err
	}
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	return age, nil
}
