package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRegisterLoginAndMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "jdoe", "John Doe")

	rec := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "jdoe",
		"email":    "other@example.com",
		"name":     "Other",
		"password": "correct horse",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: status %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "jdoe", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: status %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "jdoe", "password": "correct horse"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d", rec.Code)
	}
	var me struct {
		Username     string `json:"username"`
		PasswordHash string `json:"password_hash"`
	}
	decode(t, rec, &me)
	if me.Username != "jdoe" || me.PasswordHash != "" {
		t.Fatalf("unexpected me payload %s", rec.Body.String())
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := []map[string]string{
		{"username": "jdoe", "email": "not-an-email", "name": "John", "password": "correct horse"},
		{"username": "jd", "email": "j@example.com", "name": "John", "password": "correct horse"},
		{"username": "jdoe", "email": "j@example.com", "name": "John", "password": "short"},
		{"username": "jdoe", "email": "j@example.com", "password": "correct horse"},
		{"username": "   ab", "email": "j@example.com", "name": "John", "password": "correct horse"},
		{"username": "jdoe", "email": "j@example.com", "name": "   ", "password": "correct horse"},
	}
	for _, body := range cases {
		if rec := env.do(t, http.MethodPost, "/auth/register", "", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("%v: status %d, want 400", body, rec.Code)
		}
	}
}

func TestRegisterTrimsFields(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "  jdoe  ",
		"email":    " jdoe@example.com ",
		"name":     " John Doe ",
		"password": "correct horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp AuthResponse
	decode(t, rec, &resp)
	if resp.Account.Username != "jdoe" || resp.Account.Email != "jdoe@example.com" || resp.Account.Name != "John Doe" {
		t.Fatalf("fields not trimmed: %+v", resp.Account)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "jdoe", "John Doe")

	rec := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "jane",
		"email":    "jdoe@example.com",
		"name":     "Jane Doe",
		"password": "correct horse",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email: status %d, want 409", rec.Code)
	}
}

func TestSession(t *testing.T) {
	env := newTestEnv(t)

	var anon SessionResponse
	decode(t, env.do(t, http.MethodGet, "/auth/session", "", nil), &anon)
	if anon.SignedIn || anon.Name != "User" || anon.Email != "user@example.com" {
		t.Fatalf("unexpected anonymous session %+v", anon)
	}
	if len(anon.Navigation) != 5 {
		t.Fatalf("expected 5 navigation items, got %d", len(anon.Navigation))
	}

	token := env.register(t, "ada", "Ada Lovelace")
	var session SessionResponse
	decode(t, env.do(t, http.MethodGet, "/auth/session", token, nil), &session)
	if !session.SignedIn || session.Name != "Ada Lovelace" || session.Email != "ada@example.com" {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/settings", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("api caller: status %d, want 401", rec.Code)
	}
	var body ErrorResponse
	decode(t, rec, &body)
	if body.Error != "unauthorized" {
		t.Fatalf("unexpected error body %+v", body)
	}

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	browser := httptest.NewRecorder()
	env.router.ServeHTTP(browser, req)
	if browser.Code != http.StatusSeeOther || browser.Header().Get("Location") != "/auth/login" {
		t.Fatalf("browser: status %d location %q", browser.Code, browser.Header().Get("Location"))
	}

	if rec := env.do(t, http.MethodGet, "/profile", "not-a-token", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d, want 401", rec.Code)
	}
}

func TestDeleteMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "jdoe", "John Doe")

	if rec := env.do(t, http.MethodDelete, "/auth/me", token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/auth/me", token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after delete: status %d, want 401", rec.Code)
	}
}
