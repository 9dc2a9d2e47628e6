package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/notely/identity/pkg/auth"
	"github.com/notely/identity/pkg/domain"
	"github.com/notely/identity/pkg/repository"
)

var testSecret = []byte("test-signing-secret-at-least-32-chars")

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemoryStore()

	hash, err := auth.HashPassword("Passw0rd")
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range []*domain.User{
		{ID: uuid.New(), Username: "alice", Email: "a@x.com", PasswordHash: hash, EmailVerified: true},
		{ID: uuid.New(), Username: "bob", Email: "b@x.com", PasswordHash: hash, EmailVerified: false},
	} {
		u.CreatedAt = time.Now()
		u.UpdatedAt = u.CreatedAt
		if err := store.CreateUser(context.Background(), u); err != nil {
			t.Fatal(err)
		}
	}

	return NewHandler(logger, auth.NewLoginService(store, testSecret, "test", time.Hour))
}

func postLogin(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/user/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestLogin_Success(t *testing.T) {
	h := newTestHandler(t)

	rec := postLogin(h, `{"email":"a@x.com","password":"Passw0rd"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["sessionToken"] == "" {
		t.Error("response missing sessionToken")
	}

	// Web clients also get the HttpOnly cookie.
	cookies := rec.Result().Cookies()
	found := false
	for _, c := range cookies {
		if c.Name == "session_token" && c.Value != "" && c.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Error("session cookie not set")
	}
}

func TestLogin_StatusMapping(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "wrong password",
			body:       `{"email":"a@x.com","password":"WrongPass1"}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown email",
			body:       `{"email":"ghost@x.com","password":"Passw0rd"}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unverified account",
			body:       `{"email":"b@x.com","password":"Passw0rd"}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing fields",
			body:       `{"email":"a@x.com"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid body",
			body:       `{bad`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postLogin(h, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body %s", rec.Code, tt.wantStatus, rec.Body)
			}
		})
	}
}

func TestLogin_UniformUnauthorizedBody(t *testing.T) {
	h := newTestHandler(t)

	// The two 401 cases must be byte-identical so the responses cannot
	// be used to probe which emails are registered.
	wrongPass := postLogin(h, `{"email":"a@x.com","password":"WrongPass1"}`)
	unknown := postLogin(h, `{"email":"ghost@x.com","password":"Passw0rd"}`)

	if wrongPass.Body.String() != unknown.Body.String() {
		t.Errorf("bodies differ: %q vs %q", wrongPass.Body, unknown.Body)
	}
}
