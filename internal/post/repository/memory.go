package repository

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/inkpress/inkpress/internal/post"
)

var (
	ErrNotFound     = errors.New("post not found")
	ErrSlugConflict = errors.New("slug already in use")
)

// MemoryRepo is the in-memory post repository used when no Mongo URI is
// configured and by unit tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	posts map[string]*post.Post
	slugs map[string]string // slug -> id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{posts: make(map[string]*post.Post), slugs: make(map[string]string)}
}

func (m *MemoryRepo) Create(p *post.Post) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.slugs[p.Slug]; taken {
		return "", ErrSlugConflict
	}
	if p.ID == "" {
		p.ID = fmt.Sprintf("post_%d", time.Now().UnixNano())
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	m.posts[p.ID] = p
	m.slugs[p.Slug] = p.ID
	return p.ID, nil
}

func (m *MemoryRepo) Get(id string) (*post.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.posts[id]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) GetBySlug(slug string) (*post.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.slugs[slug]; ok {
		return m.posts[id], nil
	}
	return nil, ErrNotFound
}

// List returns all posts ordered newest-first.
func (m *MemoryRepo) List() ([]*post.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*post.Post, 0, len(m.posts))
	for _, p := range m.posts {
		out = append(out, p)
	}
	post.SortByDateDesc(out)
	return out, nil
}

func (m *MemoryRepo) Update(id string, p *post.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.posts[id]
	if !ok {
		return ErrNotFound
	}
	if p.Slug != cur.Slug {
		if _, taken := m.slugs[p.Slug]; taken {
			return ErrSlugConflict
		}
		delete(m.slugs, cur.Slug)
		m.slugs[p.Slug] = id
	}
	p.ID = id
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	m.posts[id] = p
	return nil
}

func (m *MemoryRepo) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.slugs, p.Slug)
	delete(m.posts, id)
	return nil
}
