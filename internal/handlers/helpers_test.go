package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/nexus-dash/apiserver/internal/directory"
	"github.com/nexus-dash/apiserver/internal/services"
	"github.com/nexus-dash/apiserver/internal/store"
	"github.com/nexus-dash/apiserver/types"
)

const testSecret = "test-secret"

type memAccounts struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]types.Account
}

func (m *memAccounts) GetByID(_ context.Context, id int) (types.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return types.Account{}, store.ErrNotFound
	}
	return a, nil
}

func (m *memAccounts) GetByUsername(_ context.Context, username string) (types.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Username == username {
			return a, nil
		}
	}
	return types.Account{}, store.ErrNotFound
}

func (m *memAccounts) Create(_ context.Context, a types.Account) (types.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.taken(a) {
		return types.Account{}, store.ErrConflict
	}
	m.nextID++
	a.ID = m.nextID
	m.byID[a.ID] = a
	return a, nil
}

func (m *memAccounts) Update(_ context.Context, a types.Account) (types.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[a.ID]; !ok {
		return types.Account{}, store.ErrNotFound
	}
	if m.taken(a) {
		return types.Account{}, store.ErrConflict
	}
	m.byID[a.ID] = a
	return a, nil
}

// taken mirrors the unique username and email columns.
func (m *memAccounts) taken(a types.Account) bool {
	for id, other := range m.byID {
		if id != a.ID && (other.Username == a.Username || other.Email == a.Email) {
			return true
		}
	}
	return false
}

func (m *memAccounts) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memProfiles struct {
	mu       sync.Mutex
	byID     map[int]types.Profile
	accounts *memAccounts
}

func (m *memProfiles) Get(_ context.Context, accountID int) (types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[accountID]
	if !ok {
		return types.Profile{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memProfiles) Upsert(_ context.Context, p types.Profile) (types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[p.AccountID] = p
	return p, nil
}

func (m *memProfiles) SaveWithAccount(ctx context.Context, p types.Profile, a types.Account) (types.Profile, types.Account, error) {
	a, err := m.accounts.Update(ctx, a)
	if err != nil {
		return types.Profile{}, types.Account{}, err
	}
	p, err = m.Upsert(ctx, p)
	return p, a, err
}

type memActivities struct {
	mu      sync.Mutex
	entries []types.Activity
}

func (m *memActivities) Record(_ context.Context, a types.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, a)
	return nil
}

func (m *memActivities) ListByAccount(_ context.Context, accountID, offset, limit int) ([]types.Activity, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []types.Activity{}
	total := 0
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].AccountID != accountID {
			continue
		}
		if total >= offset && len(items) < limit {
			items = append(items, m.entries[i])
		}
		total++
	}
	return items, total, nil
}

type stubSource struct {
	mu    sync.Mutex
	users []directory.RawUser
	err   error
}

func (s *stubSource) Fetch(context.Context) ([]directory.RawUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users, s.err
}

func (s *stubSource) set(users []directory.RawUser, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
	s.err = err
}

type developers struct{}

func (developers) Role() types.Role     { return types.RoleDeveloper }
func (developers) Status() types.Status { return types.StatusActive }
func (developers) Avatar() string       { return "👨‍💻" }
func (developers) Joined() types.Date   { return types.NewDate(2024, 2, 2) }
func (developers) Projects() int        { return 5 }

func rawUser(id int, name, email string) directory.RawUser {
	var u directory.RawUser
	u.ID = id
	u.Name = name
	u.Email = email
	u.Username = "user"
	u.Address.City = "Gwenborough"
	u.Address.Street = "Kulas Light"
	return u
}

type testEnv struct {
	router     *chi.Mux
	accounts   *memAccounts
	activities *memActivities
	source     *stubSource
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		accounts:   &memAccounts{byID: map[int]types.Account{}},
		activities: &memActivities{},
		source: &stubSource{users: []directory.RawUser{
			rawUser(1, "Alice Smith", "alice@x.io"),
			rawUser(2, "Bob Jones", "bob@y.io"),
			rawUser(3, "Carol Admin", "c@z.io"),
		}},
	}

	accountService := services.NewAccountService(env.accounts, nil)
	settingsService := services.NewSettingsService(nil)
	directoryService := services.NewDirectoryService(env.source, directory.NewNormalizer(developers{}), nil, nil, nil)
	profileService := services.NewProfileService(&memProfiles{byID: map[int]types.Profile{}, accounts: env.accounts}, env.activities, nil, nil)
	insights := NewInsightsHandler(services.NewInsightsService(), accountService)

	auth := RequireAuth(testSecret, "/auth/login")
	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, accountService, settingsService, testSecret, auth)
	})
	router.With(auth).Get("/dashboard", insights.Dashboard)
	router.With(auth).Get("/analytics", insights.Analytics)
	router.Route("/users", func(r chi.Router) { DirectoryRouter(r, directoryService, accountService, auth) })
	router.Route("/settings", func(r chi.Router) { SettingsRouter(r, settingsService, accountService, auth) })
	router.Route("/profile", func(r chi.Router) { ProfileRouter(r, profileService, accountService, auth) })
	env.router = router
	return env
}

// register creates an account through the API and returns its token.
func (e *testEnv) register(t *testing.T, username, name string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"name":     name,
		"password": "correct horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp AuthResponse
	decode(t, rec, &resp)
	return resp.Token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}
