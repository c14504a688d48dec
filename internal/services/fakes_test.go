package services

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"github.com/nexus-dash/apiserver/internal/directory"
	"github.com/nexus-dash/apiserver/internal/storage"
	"github.com/nexus-dash/apiserver/internal/store"
	"github.com/nexus-dash/apiserver/types"
)

type memAccounts struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]types.Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{nextID: 1, byID: map[int]types.Account{}}
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
	a.ID = m.nextID
	m.nextID++
	m.byID[a.ID] = a
	return a, nil
}

func (m *memAccounts) Update(_ context.Context, a types.Account) (types.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[a.ID]; !ok {
		return types.Account{}, store.ErrNotFound
	}
	m.byID[a.ID] = a
	return a, nil
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
	mu         sync.Mutex
	byID       map[int]types.Profile
	accounts   *memAccounts
	failUpsert error
}

func newMemProfiles(accounts *memAccounts) *memProfiles {
	return &memProfiles{byID: map[int]types.Profile{}, accounts: accounts}
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
	if m.failUpsert != nil {
		return types.Profile{}, m.failUpsert
	}
	p.Email = ""
	m.byID[p.AccountID] = p
	return p, nil
}

// SaveWithAccount applies both writes or neither.
func (m *memProfiles) SaveWithAccount(ctx context.Context, p types.Profile, a types.Account) (types.Profile, types.Account, error) {
	m.mu.Lock()
	fail := m.failUpsert
	m.mu.Unlock()
	if fail != nil {
		return types.Profile{}, types.Account{}, fail
	}
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
	var matched []types.Activity
	for _, a := range m.entries {
		if a.AccountID == accountID {
			matched = append(matched, a)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := len(matched)
	if offset >= total {
		return []types.Activity{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() (*storage.Storage, *memObjects) {
	backend := &memObjects{objects: map[string][]byte{}}
	return storage.NewStorage(backend), backend
}

func (m *memObjects) EnsureBucket(context.Context) error { return nil }

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ storage.PutOptions) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memObjects) Bucket() string { return "test" }

func (m *memObjects) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stubSource serves users or err and counts fetches.
type stubSource struct {
	mu      sync.Mutex
	users   []directory.RawUser
	err     error
	fetches int
	gate    chan struct{}
}

func (s *stubSource) Fetch(ctx context.Context) ([]directory.RawUser, error) {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	return s.users, nil
}

func (s *stubSource) set(users []directory.RawUser, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
	s.err = err
}

func (s *stubSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func rawUser(id int, name, email string) directory.RawUser {
	var u directory.RawUser
	u.ID = id
	u.Name = name
	u.Email = email
	u.Username = "user"
	u.Company.Name = "Acme"
	u.Address.City = "Gwenborough"
	u.Address.Street = "Kulas Light"
	return u
}
