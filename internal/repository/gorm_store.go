package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/relvanta/relvanta-api/internal/database"
	"github.com/relvanta/relvanta-api/internal/models"
	"gorm.io/gorm"
)

// GormStore implements Store on top of a GORM handle.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Ping(ctx context.Context) error {
	return database.Ping(ctx, s.db)
}

// translate maps GORM sentinel errors onto the repository ones.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	return user, translate(err, "get user by email")
}

func (s *GormStore) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error
	return user, translate(err, "get user")
}

func (s *GormStore) CreateUser(ctx context.Context, user models.User) error {
	return translate(s.db.WithContext(ctx).Create(&user).Error, "create user")
}

func (s *GormStore) UpdateUserProfile(ctx context.Context, userID string, update ProfileUpdate) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"name":         update.Name,
			"picture":      update.Picture,
			"firebase_uid": update.FirebaseUID,
			"updated_at":   update.UpdatedAt,
		}).Error
	return translate(err, "update user profile")
}

func (s *GormStore) CreateSession(ctx context.Context, session models.Session) error {
	return translate(s.db.WithContext(ctx).Create(&session).Error, "create session")
}

func (s *GormStore) GetSession(ctx context.Context, tokenHash string) (models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&session).Error
	return session, translate(err, "get session")
}

func (s *GormStore) DeleteSession(ctx context.Context, tokenHash string) error {
	err := s.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&models.Session{}).Error
	return translate(err, "delete session")
}

// statusRankSQL mirrors models.Status.Rank so the store applies the listing
// order before the limit is taken.
func statusRankSQL() string {
	var b strings.Builder
	b.WriteString("CASE status")
	for i, status := range models.StatusPriority {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", status, i)
	}
	fmt.Fprintf(&b, " ELSE %d END", len(models.StatusPriority))
	return b.String()
}

func applyFilter(tx *gorm.DB, f ContentFilter) *gorm.DB {
	if f.Visibility != "" {
		tx = tx.Where("visibility = ?", f.Visibility)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		tx = tx.Where("category = ?", f.Category)
	}
	if f.EngagementType != "" {
		tx = tx.Where("engagement_type = ?", f.EngagementType)
	}
	if f.Limit > 0 {
		tx = tx.Limit(f.Limit)
	}
	return tx
}

func (s *GormStore) ListProducts(ctx context.Context, filter ContentFilter) ([]models.Product, error) {
	var products []models.Product
	err := applyFilter(s.db.WithContext(ctx), filter).
		Order("sort_order ASC NULLS LAST").
		Order(statusRankSQL()).
		Order("name ASC").
		Find(&products).Error
	return products, translate(err, "list products")
}

func (s *GormStore) GetProduct(ctx context.Context, slug string) (models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&product).Error
	return product, translate(err, "get product")
}

func (s *GormStore) ListServices(ctx context.Context, filter ContentFilter) ([]models.Service, error) {
	var services []models.Service
	err := applyFilter(s.db.WithContext(ctx), filter).Find(&services).Error
	return services, translate(err, "list services")
}

func (s *GormStore) GetService(ctx context.Context, slug string) (models.Service, error) {
	var service models.Service
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&service).Error
	return service, translate(err, "get service")
}

func (s *GormStore) ListLabs(ctx context.Context, filter ContentFilter) ([]models.Lab, error) {
	var labs []models.Lab
	err := applyFilter(s.db.WithContext(ctx), filter).Find(&labs).Error
	return labs, translate(err, "list labs")
}

func (s *GormStore) GetLab(ctx context.Context, slug string) (models.Lab, error) {
	var lab models.Lab
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&lab).Error
	return lab, translate(err, "get lab")
}

func (s *GormStore) GetPage(ctx context.Context, slug string) (models.Page, error) {
	var page models.Page
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&page).Error
	return page, translate(err, "get page")
}

func (s *GormStore) ListRedirects(ctx context.Context, limit int) ([]models.Redirect, error) {
	var redirects []models.Redirect
	err := s.db.WithContext(ctx).Limit(limit).Find(&redirects).Error
	return redirects, translate(err, "list redirects")
}

func (s *GormStore) GetClientAccess(ctx context.Context, userID string) (models.ClientAccess, error) {
	var access models.ClientAccess
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&access).Error
	return access, translate(err, "get client access")
}

func (s *GormStore) CreateSystemLogs(ctx context.Context, logs []models.SystemLog) error {
	return translate(s.db.WithContext(ctx).CreateInBatches(logs, 50).Error, "create system logs")
}

func (s *GormStore) DeleteSystemLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, translate(result.Error, "delete system logs")
}
