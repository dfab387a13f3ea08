package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/relvanta/relvanta-api/internal/models"
	"github.com/relvanta/relvanta-api/internal/repository"
)

type AccessService struct {
	repo repository.AccessRepository
	now  func() time.Time
}

func NewAccessService(repo repository.AccessRepository) *AccessService {
	return &AccessService{repo: repo, now: time.Now}
}

// GetClientAccess returns the stored grant for userID, or the default
// read-only empty grant when none is stored. Callers decide who may ask.
func (s *AccessService) GetClientAccess(ctx context.Context, userID string) (*models.ClientAccess, error) {
	access, err := s.repo.GetClientAccess(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		access = models.DefaultClientAccess(userID, s.now())
		return &access, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client access: %w", err)
	}
	return &access, nil
}
