package services

import (
	"context"
	"testing"

	"github.com/relvanta/relvanta-api/internal/models"
	"github.com/relvanta/relvanta-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func product(slug string, v models.Visibility, order *int, status models.Status, name string) models.Product {
	return models.Product{
		ContentBase: models.ContentBase{ID: "id-" + slug, Slug: slug, Visibility: v, Order: order},
		Name:        name,
		Status:      status,
	}
}

func TestListProductsDefaultsToPublic(t *testing.T) {
	store := repository.NewMemoryStore()
	store.PutProduct(product("pub", models.VisibilityPublic, nil, models.StatusLive, "Pub"))
	store.PutProduct(product("prot", models.VisibilityProtected, nil, models.StatusLive, "Prot"))
	store.PutProduct(product("lab", models.VisibilityLabs, nil, models.StatusLive, "Lab"))
	svc := NewContentService(store)

	got, err := svc.ListProducts(context.Background(), ProductQuery{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "pub", got[0].Slug)

	// The requested visibility is trusted as given.
	got, err = svc.ListProducts(context.Background(), ProductQuery{Visibility: "labs"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "lab", got[0].Slug)
}

func TestListProductsOrdering(t *testing.T) {
	store := repository.NewMemoryStore()
	store.PutProduct(product("two", models.VisibilityPublic, intPtr(2), models.StatusBeta, "Two"))
	store.PutProduct(product("one", models.VisibilityPublic, intPtr(1), models.StatusLive, "One"))
	store.PutProduct(product("none", models.VisibilityPublic, nil, models.StatusLive, "None"))
	svc := NewContentService(store)

	got, err := svc.ListProducts(context.Background(), ProductQuery{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"one", "two", "none"}, []string{got[0].Slug, got[1].Slug, got[2].Slug})

	got, err = svc.ListProducts(context.Background(), ProductQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "one", got[0].Slug, "the limit applies to the ordered listing")
}

func TestListProductsFiltersAreAnded(t *testing.T) {
	store := repository.NewMemoryStore()
	a := product("a", models.VisibilityPublic, nil, models.StatusLive, "A")
	a.Category = "ai"
	b := product("b", models.VisibilityPublic, nil, models.StatusBeta, "B")
	b.Category = "ai"
	c := product("c", models.VisibilityPublic, nil, models.StatusLive, "C")
	c.Category = "data"
	store.PutProduct(a)
	store.PutProduct(b)
	store.PutProduct(c)
	svc := NewContentService(store)

	got, err := svc.ListProducts(context.Background(), ProductQuery{Status: "live", Category: "ai"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Slug)
}

func TestGetProductIgnoresVisibility(t *testing.T) {
	store := repository.NewMemoryStore()
	store.PutProduct(product("hidden", models.VisibilityProtected, nil, models.StatusLive, "Hidden"))
	svc := NewContentService(store)

	got, err := svc.GetProduct(context.Background(), "hidden")
	require.NoError(t, err)
	assert.Equal(t, "hidden", got.Slug)

	_, err = svc.GetProduct(context.Background(), "nonexistent-slug")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestListServicesAndLabs(t *testing.T) {
	store := repository.NewMemoryStore()
	store.PutService(models.Service{ContentBase: models.ContentBase{Slug: "audit", Visibility: models.VisibilityPublic}, EngagementType: models.EngagementPilot})
	store.PutService(models.Service{ContentBase: models.ContentBase{Slug: "build", Visibility: models.VisibilityPublic}, EngagementType: models.EngagementProject})
	store.PutService(models.Service{ContentBase: models.ContentBase{Slug: "secret", Visibility: models.VisibilityProtected}, EngagementType: models.EngagementPilot})
	store.PutLab(models.Lab{ContentBase: models.ContentBase{Slug: "l1", Visibility: models.VisibilityLabs}, Status: models.LabStatusRunning})
	store.PutLab(models.Lab{ContentBase: models.ContentBase{Slug: "l2", Visibility: models.VisibilityLabs}, Status: models.LabStatusFailed})
	store.PutLab(models.Lab{ContentBase: models.ContentBase{Slug: "stray", Visibility: models.VisibilityPublic}, Status: models.LabStatusRunning})
	svc := NewContentService(store)
	ctx := context.Background()

	services, err := svc.ListServices(ctx, ServiceQuery{EngagementType: "pilot"})
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "audit", services[0].Slug)

	labs, err := svc.ListLabs(ctx, LabQuery{})
	require.NoError(t, err)
	assert.Len(t, labs, 2)

	labs, err = svc.ListLabs(ctx, LabQuery{Status: "running"})
	require.NoError(t, err)
	require.Len(t, labs, 1)
	assert.Equal(t, "l1", labs[0].Slug)

	_, err = svc.GetService(ctx, "nope")
	assert.ErrorIs(t, err, ErrServiceNotFound)
	_, err = svc.GetLab(ctx, "nope")
	assert.ErrorIs(t, err, ErrLabNotFound)
	_, err = svc.GetPage(ctx, "nope")
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestListRedirectsCapped(t *testing.T) {
	store := repository.NewMemoryStore()
	for i := 0; i < redirectLimit+5; i++ {
		store.PutRedirect(models.Redirect{FromPath: "/a", ToPath: "/b", Permanent: true})
	}
	got, err := NewContentService(store).ListRedirects(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, redirectLimit)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultListLimit, NormalizeLimit(-3))
	assert.Equal(t, 7, NormalizeLimit(7))
	assert.Equal(t, MaxListLimit, NormalizeLimit(MaxListLimit+1))
}
