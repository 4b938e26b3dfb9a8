package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/scmportal/accounts-api/internal/core/domain"
	"github.com/scmportal/accounts-api/internal/core/ports"
)

// memStore is an in-memory ports.Store. WithTx snapshots both tables and
// restores them when fn fails.
type memStore struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	roles  map[int64]*domain.Role
	nextID int64
	txs    int
}

func newMemStore() *memStore {
	return &memStore{users: make(map[int64]*domain.User), roles: make(map[int64]*domain.Role)}
}

func (s *memStore) Users() ports.UserRepository { return memUsers{s} }
func (s *memStore) Roles() ports.RoleRepository { return memRoles{s} }
func (s *memStore) Ping(context.Context) error  { return nil }

func (s *memStore) WithTx(_ context.Context, fn func(tx ports.Store) error) error {
	s.mu.Lock()
	s.txs++
	users := make(map[int64]*domain.User, len(s.users))
	for k, v := range s.users {
		users[k] = cloneUser(v)
	}
	roles := make(map[int64]*domain.Role, len(s.roles))
	for k, v := range s.roles {
		roles[k] = cloneRole(v)
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.users, s.roles = users, roles
		s.mu.Unlock()
		return err
	}
	return nil
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	c.Role = cloneRole(u.Role)
	return &c
}

func cloneRole(r *domain.Role) *domain.Role {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// seedUser stores a user with a bcrypt hash of password and returns it.
func (s *memStore) seedUser(email, password, role string, active bool) *domain.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &domain.User{Email: email, Name: "Seeded", PasswordHash: string(hash), IsActive: active}
	if role != "" {
		r, _ := memRoles{s}.GetOrCreate(context.Background(), role)
		u.Role = r
	}
	created, _ := memUsers{s}.Create(context.Background(), u)
	return created
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if domain.EmailKey(existing.Email) == domain.EmailKey(u.Email) {
			return nil, domain.ErrUserExists
		}
	}
	r.s.nextID++
	c := cloneUser(u)
	c.ID = r.s.nextID
	r.s.users[c.ID] = c
	return cloneUser(c), nil
}

func (r memUsers) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if domain.EmailKey(u.Email) == domain.EmailKey(email) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r memUsers) List(_ context.Context) ([]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memUsers) Update(_ context.Context, u *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	for id, existing := range r.s.users {
		if id != u.ID && domain.EmailKey(existing.Email) == domain.EmailKey(u.Email) {
			return nil, domain.ErrUserExists
		}
	}
	r.s.users[u.ID] = cloneUser(u)
	return cloneUser(u), nil
}

func (r memUsers) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}

type memRoles struct{ s *memStore }

func (r memRoles) byName(name string) *domain.Role {
	for _, role := range r.s.roles {
		if role.Name == name {
			return role
		}
	}
	return nil
}

func (r memRoles) GetOrCreate(_ context.Context, name string) (*domain.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if role := r.byName(name); role != nil {
		return cloneRole(role), nil
	}
	r.s.nextID++
	role := &domain.Role{ID: r.s.nextID, Name: name, IsActive: true}
	r.s.roles[role.ID] = role
	return cloneRole(role), nil
}

func (r memRoles) Create(_ context.Context, role *domain.Role) (*domain.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.byName(role.Name) != nil {
		return nil, domain.ErrRoleExists
	}
	r.s.nextID++
	c := cloneRole(role)
	c.ID = r.s.nextID
	r.s.roles[c.ID] = c
	return cloneRole(c), nil
}

func (r memRoles) FindByID(_ context.Context, id int64) (*domain.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return cloneRole(role), nil
}

func (r memRoles) List(_ context.Context) ([]*domain.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		out = append(out, cloneRole(role))
	}
	sort.Slice(out, func(i, j int) bool { return strings.Compare(out[i].Name, out[j].Name) < 0 })
	return out, nil
}

func (r memRoles) Update(_ context.Context, role *domain.Role) (*domain.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roles[role.ID]; !ok {
		return nil, domain.ErrRoleNotFound
	}
	if other := r.byName(role.Name); other != nil && other.ID != role.ID {
		return nil, domain.ErrRoleExists
	}
	r.s.roles[role.ID] = cloneRole(role)
	return cloneRole(role), nil
}

func (r memRoles) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roles[id]; !ok {
		return domain.ErrRoleNotFound
	}
	for _, u := range r.s.users {
		if u.Role != nil && u.Role.ID == id {
			return domain.ErrRoleInUse
		}
	}
	delete(r.s.roles, id)
	return nil
}

// countingThrottle is an in-memory LoginThrottle with a fixed limit.
type countingThrottle struct {
	limit    int
	failures map[string]int
}

func newCountingThrottle(limit int) *countingThrottle {
	return &countingThrottle{limit: limit, failures: make(map[string]int)}
}

func (t *countingThrottle) Allow(_ context.Context, key string) (bool, error) {
	return t.failures[key] < t.limit, nil
}

func (t *countingThrottle) Fail(_ context.Context, key string) error {
	t.failures[key]++
	return nil
}

func (t *countingThrottle) Reset(_ context.Context, key string) error {
	delete(t.failures, key)
	return nil
}

var adminActor = domain.Principal{UserID: 1, RoleName: domain.RoleSCMAdmin, IsActive: true}
