package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vfg-store/moderation-backend/internal/domain"
)

// CalculationFilter narrows ListCalculations results. Empty fields are
// ignored; Search matches the calculation name as a case-insensitive
// substring.
type CalculationFilter struct {
	UserID string
	Search string
	Method string
	DN     string

	// OrderBy is one of "created_at", "updated_at", "name" or "total_lu";
	// anything else falls back to newest first.
	OrderBy string
}

func applyCalculationFilter(q *gorm.DB, f CalculationFilter) *gorm.DB {
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Search)+"%")
	}
	if f.Method != "" {
		q = q.Where("method = ?", f.Method)
	}
	if f.DN != "" {
		q = q.Where("recommended_dn = ?", f.DN)
	}
	return q
}

func calculationOrder(orderBy string) string {
	switch orderBy {
	case "name":
		return "name ASC"
	case "total_lu":
		return "total_lu DESC"
	case "updated_at":
		return "updated_at DESC"
	default:
		return "created_at DESC"
	}
}

// CreateCalculation inserts a saved calculation with a generated UUID
// primary key and UTC timestamps.
func CreateCalculation(ctx context.Context, db *gorm.DB, c *domain.Calculation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	return db.WithContext(ctx).Create(c).Error
}

// GetCalculation fetches a calculation by ID, or ErrNotFound.
func GetCalculation(ctx context.Context, db *gorm.DB, id string) (*domain.Calculation, error) {
	var c domain.Calculation
	err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCalculations returns a page of calculations matching the filter.
func ListCalculations(ctx context.Context, db *gorm.DB, f CalculationFilter, offset, limit int) ([]domain.Calculation, error) {
	var calcs []domain.Calculation
	q := applyCalculationFilter(db.WithContext(ctx).Model(&domain.Calculation{}), f)
	err := q.Order(calculationOrder(f.OrderBy)).
		Offset(offset).
		Limit(limit).
		Find(&calcs).Error
	if err != nil {
		return nil, err
	}
	return calcs, nil
}

// CountCalculations returns the number of calculations matching the filter.
func CountCalculations(ctx context.Context, db *gorm.DB, f CalculationFilter) (int64, error) {
	var n int64
	q := applyCalculationFilter(db.WithContext(ctx).Model(&domain.Calculation{}), f)
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// AllCalculations returns every saved calculation for a user, used by the
// stats aggregation. Pass an empty userID for all users.
func AllCalculations(ctx context.Context, db *gorm.DB, userID string) ([]domain.Calculation, error) {
	var calcs []domain.Calculation
	q := db.WithContext(ctx).Model(&domain.Calculation{})
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Find(&calcs).Error; err != nil {
		return nil, err
	}
	return calcs, nil
}

// SaveCalculation persists the mutable columns of an existing calculation
// and refreshes UpdatedAt. Returns ErrNotFound when the row is missing.
func SaveCalculation(ctx context.Context, db *gorm.DB, c *domain.Calculation) error {
	c.UpdatedAt = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Calculation{}).
		Where("id = ?", c.ID).
		Select("*").
		Omit("id", "user_id", "created_at").
		Updates(c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCalculation removes a saved calculation by ID, or ErrNotFound.
func DeleteCalculation(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Calculation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
