package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/relvanta/relvanta-api/internal/models"
	"github.com/relvanta/relvanta-api/internal/repository"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrServiceNotFound = errors.New("service not found")
	ErrLabNotFound     = errors.New("lab not found")
	ErrPageNotFound    = errors.New("page not found")
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
	redirectLimit    = 1000
)

type ProductQuery struct {
	Visibility string
	Status     string
	Category   string
	Limit      int
}

type ServiceQuery struct {
	Visibility     string
	EngagementType string
	Limit          int
}

type LabQuery struct {
	Status string
	Limit  int
}

// ContentService applies the read-side visibility policy of each collection.
//
// Products and services list only public items unless the caller names a
// visibility; the named value is trusted as given. Slug lookups ignore
// visibility. Labs are always scoped to labs visibility and are only reachable
// behind an authenticated route.
type ContentService struct {
	repo repository.ContentRepository
}

func NewContentService(repo repository.ContentRepository) *ContentService {
	return &ContentService{repo: repo}
}

// NormalizeLimit bounds a caller-supplied limit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}

func listVisibility(requested string) models.Visibility {
	if requested == "" {
		return models.VisibilityPublic
	}
	return models.Visibility(requested)
}

func (s *ContentService) ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	ctx, span := tracer().Start(ctx, "content.ListProducts")
	defer span.End()

	filter := repository.ContentFilter{
		Visibility: listVisibility(q.Visibility),
		Status:     q.Status,
		Category:   q.Category,
		Limit:      NormalizeLimit(q.Limit),
	}
	span.SetAttributes(attribute.String("content.visibility", string(filter.Visibility)))

	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	models.SortProducts(products)
	return products, nil
}

func (s *ContentService) GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.repo.GetProduct(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (s *ContentService) ListServices(ctx context.Context, q ServiceQuery) ([]models.Service, error) {
	ctx, span := tracer().Start(ctx, "content.ListServices")
	defer span.End()

	services, err := s.repo.ListServices(ctx, repository.ContentFilter{
		Visibility:     listVisibility(q.Visibility),
		EngagementType: q.EngagementType,
		Limit:          NormalizeLimit(q.Limit),
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

func (s *ContentService) GetService(ctx context.Context, slug string) (*models.Service, error) {
	service, err := s.repo.GetService(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return &service, nil
}

func (s *ContentService) ListLabs(ctx context.Context, q LabQuery) ([]models.Lab, error) {
	ctx, span := tracer().Start(ctx, "content.ListLabs")
	defer span.End()

	labs, err := s.repo.ListLabs(ctx, repository.ContentFilter{
		Visibility: models.VisibilityLabs,
		Status:     q.Status,
		Limit:      NormalizeLimit(q.Limit),
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("failed to list labs: %w", err)
	}
	return labs, nil
}

func (s *ContentService) GetLab(ctx context.Context, slug string) (*models.Lab, error) {
	lab, err := s.repo.GetLab(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLabNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lab: %w", err)
	}
	return &lab, nil
}

func (s *ContentService) GetPage(ctx context.Context, slug string) (*models.Page, error) {
	page, err := s.repo.GetPage(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	return &page, nil
}

func (s *ContentService) ListRedirects(ctx context.Context) ([]models.Redirect, error) {
	redirects, err := s.repo.ListRedirects(ctx, redirectLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list redirects: %w", err)
	}
	return redirects, nil
}
