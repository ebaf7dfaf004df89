package service

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/inkpress/inkpress/internal/post"
	"github.com/inkpress/inkpress/internal/post/repository"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrSlugConflict = errors.New("slug already in use")
)

// ErrInvalidSource carries the lint violations that made a source
// unacceptable.
type ErrInvalidSource struct {
	Violations []post.Violation
}

func (e *ErrInvalidSource) Error() string {
	return fmt.Sprintf("post source failed %d structural check(s)", len(e.Violations))
}

// Repository is the persistence surface the service needs; satisfied by both
// the memory and Mongo repos.
type Repository interface {
	Create(p *post.Post) (string, error)
	Get(id string) (*post.Post, error)
	GetBySlug(slug string) (*post.Post, error)
	List() ([]*post.Post, error)
	Update(id string, p *post.Post) error
	Delete(id string) error
}

// Service defines the post business operations used by the handler layer.
type Service interface {
	Create(source string, draft bool) (*post.Post, error)
	Get(id string) (*post.Post, error)
	GetBySlug(slug string) (*post.Post, error)
	List() ([]*post.Post, error)
	ListPublished() ([]*post.Post, error)
	Update(id string, source string, draft *bool) (*post.Post, error)
	Publish(id string) (*post.Post, error)
	Delete(id string) error
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() Service {
	return &postService{repo: repository.NewMemoryRepo()}
}

// NewMongoService returns a Service backed by a MongoDB collection. The
// caller owns the client and collection lifecycle.
func NewMongoService(col *mongo.Collection) Service {
	return &postService{repo: repository.NewMongoRepo(col)}
}

type postService struct {
	repo Repository
}

// Create parses and lints the source, derives the slug from the title, and
// stores the post. Malformed sources never reach the repository.
func (s *postService) Create(source string, draft bool) (*post.Post, error) {
	p, err := buildPost(source)
	if err != nil {
		return nil, err
	}
	p.Draft = draft
	if _, err := s.repo.Create(p); err != nil {
		return nil, mapRepoErr(err)
	}
	return p, nil
}

func (s *postService) Get(id string) (*post.Post, error) {
	p, err := s.repo.Get(id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return p, nil
}

func (s *postService) GetBySlug(slug string) (*post.Post, error) {
	p, err := s.repo.GetBySlug(slug)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return p, nil
}

func (s *postService) List() ([]*post.Post, error) {
	return s.repo.List()
}

func (s *postService) ListPublished() ([]*post.Post, error) {
	all, err := s.repo.List()
	if err != nil {
		return nil, err
	}
	out := make([]*post.Post, 0, len(all))
	for _, p := range all {
		if p.Published() {
			out = append(out, p)
		}
	}
	return out, nil
}

// Update replaces the post source in place. A nil draft pointer leaves the
// draft flag untouched.
func (s *postService) Update(id string, source string, draft *bool) (*post.Post, error) {
	cur, err := s.repo.Get(id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	p, err := buildPost(source)
	if err != nil {
		return nil, err
	}
	p.Draft = cur.Draft
	if draft != nil {
		p.Draft = *draft
	}
	if err := s.repo.Update(id, p); err != nil {
		return nil, mapRepoErr(err)
	}
	return p, nil
}

func (s *postService) Publish(id string) (*post.Post, error) {
	cur, err := s.repo.Get(id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if cur.Draft {
		upd := *cur
		upd.Draft = false
		if err := s.repo.Update(id, &upd); err != nil {
			return nil, mapRepoErr(err)
		}
		return &upd, nil
	}
	return cur, nil
}

func (s *postService) Delete(id string) error {
	return mapRepoErr(s.repo.Delete(id))
}

func buildPost(source string) (*post.Post, error) {
	fm, body, err := post.ParseSource(source)
	if err != nil {
		return nil, &ErrInvalidSource{Violations: []post.Violation{{Field: "front-matter", Message: err.Error()}}}
	}
	if vs := post.Lint(fm, body); len(vs) > 0 {
		return nil, &ErrInvalidSource{Violations: vs}
	}
	return &post.Post{
		Slug:        post.Slugify(fm.Title),
		FrontMatter: fm,
		Body:        body,
	}, nil
}

func mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrSlugConflict):
		return ErrSlugConflict
	default:
		return err
	}
}
