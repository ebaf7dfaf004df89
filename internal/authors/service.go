package authors

import (
	"context"

	"github.com/inkpress/inkpress/internal/models"
)

// Service encapsulates author-related business logic.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// UpsertFromClaims creates or updates an author using OIDC claims. Returns
// nil without error when the claims carry no subject.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.Author, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, nil
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	return s.repo.UpsertBySub(ctx, &models.Author{Sub: sub, Email: email, Name: name})
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.Author, error) {
	return s.repo.GetBySub(ctx, sub)
}
