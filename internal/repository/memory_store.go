package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/relvanta/relvanta-api/internal/models"
)

// MemoryStore is a process-local Store used by tests and by `serve --store=memory`.
// Collections keep insertion order, standing in for a document store's
// natural order.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]models.User
	sessions  map[string]models.Session
	products  []models.Product
	services  []models.Service
	labs      []models.Lab
	pages     []models.Page
	redirects []models.Redirect
	access    map[string]models.ClientAccess
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]models.User),
		sessions: make(map[string]models.Session),
		access:   make(map[string]models.ClientAccess),
	}
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (m *MemoryStore) GetUserByID(_ context.Context, userID string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemoryStore) CreateUser(_ context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.UserID]; ok {
		return ErrDuplicate
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	m.users[user.UserID] = cloneUser(user)
	return nil
}

func (m *MemoryStore) UpdateUserProfile(_ context.Context, userID string, update ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil
	}
	u.Name = update.Name
	u.Picture = update.Picture
	u.FirebaseUID = update.FirebaseUID
	u.UpdatedAt = update.UpdatedAt
	m.users[userID] = cloneUser(u)
	return nil
}

// cloneUser detaches u's strings from caller memory. Request values may
// alias buffers that are reused once the request completes.
func cloneUser(u models.User) models.User {
	u.UserID = strings.Clone(u.UserID)
	u.Email = strings.Clone(u.Email)
	u.Name = strings.Clone(u.Name)
	u.FirebaseUID = strings.Clone(u.FirebaseUID)
	u.Role = models.Role(strings.Clone(string(u.Role)))
	u.Picture = cloneStringPtr(u.Picture)
	u.OrganizationSlug = cloneStringPtr(u.OrganizationSlug)
	return u
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	c := strings.Clone(*s)
	return &c
}

// UserCount reports the number of stored users.
func (m *MemoryStore) UserCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// SetUserRole changes a user's role. Roles are assigned out of band.
func (m *MemoryStore) SetUserRole(userID string, role models.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.Role = role
		m.users[userID] = u
	}
}

func (m *MemoryStore) CreateSession(_ context.Context, session models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[session.TokenHash]; ok {
		return ErrDuplicate
	}
	m.sessions[session.TokenHash] = session
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, tokenHash string) (models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[tokenHash]
	if !ok {
		return models.Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, tokenHash)
	return nil
}

// SessionCount reports the number of stored sessions, live or expired.
func (m *MemoryStore) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) PutProduct(p models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, p)
}

func (m *MemoryStore) PutService(s models.Service) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = append(m.services, s)
}

func (m *MemoryStore) PutLab(l models.Lab) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labs = append(m.labs, l)
}

func (m *MemoryStore) PutPage(p models.Page) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = append(m.pages, p)
}

func (m *MemoryStore) PutRedirect(r models.Redirect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redirects = append(m.redirects, r)
}

func (m *MemoryStore) PutClientAccess(a models.ClientAccess) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access[a.UserID] = a
}

func matches(f ContentFilter, visibility models.Visibility, fields map[string]string) bool {
	if f.Visibility != "" && visibility != f.Visibility {
		return false
	}
	if f.Status != "" && fields["status"] != f.Status {
		return false
	}
	if f.Category != "" && fields["category"] != f.Category {
		return false
	}
	if f.EngagementType != "" && fields["engagement_type"] != f.EngagementType {
		return false
	}
	return true
}

func limitReached(n int, f ContentFilter) bool {
	return f.Limit > 0 && n >= f.Limit
}

func (m *MemoryStore) ListProducts(_ context.Context, filter ContentFilter) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := []models.Product{}
	for _, p := range m.products {
		if matches(filter, p.Visibility, map[string]string{"status": string(p.Status), "category": p.Category}) {
			result = append(result, p)
		}
	}
	models.SortProducts(result)
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *MemoryStore) GetProduct(_ context.Context, slug string) (models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return models.Product{}, ErrNotFound
}

func (m *MemoryStore) ListServices(_ context.Context, filter ContentFilter) ([]models.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := []models.Service{}
	for _, s := range m.services {
		if limitReached(len(result), filter) {
			break
		}
		if matches(filter, s.Visibility, map[string]string{"engagement_type": string(s.EngagementType)}) {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *MemoryStore) GetService(_ context.Context, slug string) (models.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.services {
		if s.Slug == slug {
			return s, nil
		}
	}
	return models.Service{}, ErrNotFound
}

func (m *MemoryStore) ListLabs(_ context.Context, filter ContentFilter) ([]models.Lab, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := []models.Lab{}
	for _, l := range m.labs {
		if limitReached(len(result), filter) {
			break
		}
		if matches(filter, l.Visibility, map[string]string{"status": string(l.Status)}) {
			result = append(result, l)
		}
	}
	return result, nil
}

func (m *MemoryStore) GetLab(_ context.Context, slug string) (models.Lab, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.labs {
		if l.Slug == slug {
			return l, nil
		}
	}
	return models.Lab{}, ErrNotFound
}

func (m *MemoryStore) GetPage(_ context.Context, slug string) (models.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.pages {
		if p.Slug == slug {
			return p, nil
		}
	}
	return models.Page{}, ErrNotFound
}

func (m *MemoryStore) ListRedirects(_ context.Context, limit int) ([]models.Redirect, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.redirects)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]models.Redirect, n)
	copy(result, m.redirects[:n])
	return result, nil
}

func (m *MemoryStore) GetClientAccess(_ context.Context, userID string) (models.ClientAccess, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.access[userID]
	if !ok {
		return models.ClientAccess{}, ErrNotFound
	}
	return a, nil
}

var (
	_ Store         = (*MemoryStore)(nil)
	_ Store         = (*GormStore)(nil)
	_ LogRepository = (*GormStore)(nil)
)
