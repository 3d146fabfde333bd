// Package memory implementa un adapter en memoria para store.
// Pensado para dev y tests: los datos no sobreviven al proceso.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
	"github.com/dropDatabas3/facegate/internal/store"
)

func init() {
	store.RegisterAdapter(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Connect(_ context.Context, _ store.AdapterConfig) (store.AdapterConnection, error) {
	return New(), nil
}

// Store guarda todo bajo un único mutex: cada operación es atómica respecto de las demás.
type Store struct {
	mu        sync.Mutex
	clients   map[string]repository.Client
	users     map[string]repository.User
	templates []repository.Template
	codes     map[string]repository.AuthCode
	tokens    map[string]repository.Token
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		clients: make(map[string]repository.Client),
		users:   make(map[string]repository.User),
		codes:   make(map[string]repository.AuthCode),
		tokens:  make(map[string]repository.Token),
	}
}

func (s *Store) Name() string { return "memory" }
func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error { return nil }
func (s *Store) Clients() repository.ClientRepository { return s }
func (s *Store) Users() repository.UserRepository { return s }
func (s *Store) Templates() repository.TemplateRepository { return s }
func (s *Store) Enroller() repository.Enroller { return s }
func (s *Store) Grants() repository.GrantRepository { return s }

// ─── Clients ───

func (s *Store) GetClient(_ context.Context, clientID string) (*repository.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneClient(c), nil
}

func (s *Store) CreateClient(_ context.Context, c repository.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.ClientID]; ok {
		return repository.ErrConflict
	}
	s.clients[c.ClientID] = *cloneClient(c)
	return nil
}

func (s *Store) UpsertClient(_ context.Context, c repository.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.clients[c.ClientID]; ok {
		c.CreatedAt = prev.CreatedAt
	}
	s.clients[c.ClientID] = *cloneClient(c)
	return nil
}

func (s *Store) ListClients(context.Context) ([]repository.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, *cloneClient(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ClientID < out[j].ClientID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func cloneClient(c repository.Client) *repository.Client {
	c.RedirectURIs = slices.Clone(c.RedirectURIs)
	c.GrantTypes = slices.Clone(c.GrantTypes)
	c.ResponseTypes = slices.Clone(c.ResponseTypes)
	c.Scopes = slices.Clone(c.Scopes)
	return &c
}

// ─── Users / Templates ───

func (s *Store) GetUser(_ context.Context, id string) (*repository.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Store) Enroll(_ context.Context, u repository.User, t repository.Template) error {
	if u.ID == "" || t.ID == "" || t.UserID != u.ID || len(t.Vector) == 0 {
		return repository.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return repository.ErrConflict
	}
	for _, existing := range s.templates {
		if existing.ID == t.ID {
			return repository.ErrConflict
		}
	}
	s.users[u.ID] = u
	s.templates = append(s.templates, cloneTemplate(t))
	return nil
}

func (s *Store) ListTemplates(context.Context) ([]repository.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.Template, len(s.templates))
	for i, t := range s.templates {
		out[i] = cloneTemplate(t)
	}
	return out, nil
}

func (s *Store) ListByUser(_ context.Context, userID string) ([]repository.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.Template
	for _, t := range s.templates {
		if t.UserID == userID {
			out = append(out, cloneTemplate(t))
		}
	}
	return out, nil
}

func (s *Store) AddTemplate(_ context.Context, t repository.Template) error {
	if t.ID == "" || len(t.Vector) == 0 {
		return repository.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[t.UserID]; !ok {
		return repository.ErrNotFound
	}
	s.templates = append(s.templates, cloneTemplate(t))
	return nil
}

func cloneTemplate(t repository.Template) repository.Template {
	t.Vector = slices.Clone(t.Vector)
	return t
}

// ─── Grants ───

func (s *Store) SaveCode(_ context.Context, c repository.AuthCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.codes[c.CodeHash]; ok {
		return repository.ErrConflict
	}
	s.codes[c.CodeHash] = c
	return nil
}

func (s *Store) ConsumeCode(_ context.Context, codeHash string) (*repository.AuthCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[codeHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(s.codes, codeHash)
	return &c, nil
}

func (s *Store) SaveToken(_ context.Context, t repository.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[t.TokenHash]; ok {
		return repository.ErrConflict
	}
	s.tokens[t.TokenHash] = t
	return nil
}

func (s *Store) GetToken(_ context.Context, tokenHash string) (*repository.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (s *Store) ConsumeToken(_ context.Context, tokenHash, kind string) (*repository.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenHash]
	if !ok || t.Kind != kind {
		return nil, repository.ErrNotFound
	}
	delete(s.tokens, tokenHash)
	return &t, nil
}

func (s *Store) DeleteToken(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, tokenHash)
	return nil
}

func (s *Store) PurgeSubject(_ context.Context, userID string) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var codes, toks int
	for h, c := range s.codes {
		if c.UserID == userID {
			delete(s.codes, h)
			codes++
		}
	}
	for h, t := range s.tokens {
		if t.UserID == userID {
			delete(s.tokens, h)
			toks++
		}
	}
	return codes, toks, nil
}
