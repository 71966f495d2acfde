package main

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// Initialize JWT secret for the test suite
func init() {
	jwtSecret = []byte("test-secret-key-for-testing")
}

// newMockDB returns a sqlmock-backed *sql.DB and its expectation handle.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return mockDB, mock
}

// withSession attaches a valid session cookie for the given user.
func withSession(t *testing.T, r *http.Request, userID int, login string) {
	t.Helper()

	token, err := newSessionToken(userID, login)
	if err != nil {
		t.Fatalf("failed to sign session token: %v", err)
	}
	r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
}

// sessionCookieFrom digs the session cookie out of a recorded response.
func sessionCookieFrom(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	return nil
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet database expectations: %v", err)
	}
}
