package main

import "errors"

// UserProfile is one row of the users table. The gender and seeking columns
// share one value set ("male", "female") so the mutual-interest filter is
// well defined.
type UserProfile struct {
	ID           int
	Login        string
	PasswordHash string
	Name         string
	Gender       string
	Seeking      string
	BirthDate    string
	About        string
	Photo        []byte
	Active       bool
}

// Candidate is a match browser result: another user's profile annotated
// with the age derived from their birth date.
type Candidate struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	About     string `json:"about"`
	HasPhoto  bool   `json:"has_photo"`
	BirthDate string `json:"birth_date"`
	Age       int    `json:"age"`
}

var (
	errProfileNotFound = errors.New("profile not found")
	errRecordCorrupt   = errors.New("record corrupt")
)
