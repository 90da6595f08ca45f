// Package domain defines the persistence models for products, the moderation
// waitlist, the audit log, and saved sizing calculations. These types are
// mapped with GORM and form the core data layer of the storefront back-office.
package domain

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product represents a storefront product as maintained by the moderation
// pipeline. Scraped payloads carry many more attributes than the typed
// columns below; everything beyond the inspected fields lives in Attributes.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Slug: unique URL identifier, lowercase.
//   - Name / Price / DiscountPrice / Stock / Status: the typed columns the
//     diff and validation engines inspect.
//   - Attributes: full payload as last approved, stored verbatim.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Product struct {
	ID            string            `json:"id"             gorm:"type:char(36);primaryKey"`
	Slug          string            `json:"slug"           gorm:"type:varchar(255);not null;uniqueIndex:ux_products_slug"`
	Name          string            `json:"name"           gorm:"type:varchar(512);not null"`
	Price         float64           `json:"price"          gorm:"not null"`
	DiscountPrice *float64          `json:"discount_price,omitempty"`
	Stock         *float64          `json:"stock,omitempty"`
	Status        string            `json:"status"         gorm:"type:varchar(32);not null;default:'active';index"`
	Attributes    datatypes.JSONMap `json:"attributes"     gorm:"type:json"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	DeletedAt     gorm.DeletedAt    `json:"-"              gorm:"index"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// WaitlistEntry is a pending, unapproved product creation or update awaiting
// moderation. Entries are terminal: approval or rejection deletes the row,
// and history survives only in the audit log.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - ProductSlug: slug of the affected product.
//   - ProductID: target product, nil for a brand-new product.
//   - Payload: full proposed product record, stored verbatim.
//   - DiffSummary: categorized summary computed at intake.
//   - Reason: queue classification (see waitlist.ValidReasons).
//   - Version: incremented on every payload edit.
//   - IsValid / ValidationErrors / RequiresManualReview /
//     PriceDropPercentage / HasInvalidDiscount: verdict fields mirrored
//     from the validator for queue filtering.
type WaitlistEntry struct {
	ID                   string            `json:"id"                     gorm:"type:char(36);primaryKey"`
	ProductSlug          string            `json:"product_slug"           gorm:"type:varchar(255);not null;index"`
	ProductID            *string           `json:"product_id"             gorm:"type:char(36);index"`
	Payload              datatypes.JSONMap `json:"payload_json"           gorm:"type:json;not null"`
	DiffSummary          datatypes.JSONMap `json:"diff_summary"           gorm:"type:json"`
	Reason               string            `json:"reason"                 gorm:"type:varchar(32);not null;index"`
	Version              int               `json:"version"                gorm:"not null;default:1"`
	CreatedBy            string            `json:"created_by"             gorm:"type:varchar(255);not null"`
	IsValid              bool              `json:"is_valid"               gorm:"not null"`
	ValidationErrors     datatypes.JSON    `json:"validation_errors"      gorm:"type:json"`
	RequiresManualReview bool              `json:"requires_manual_review" gorm:"not null;index"`
	PriceDropPercentage  *float64          `json:"price_drop_percentage"`
	HasInvalidDiscount   bool              `json:"has_invalid_discount"   gorm:"not null;index"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// TableName returns the database table name for WaitlistEntry.
func (WaitlistEntry) TableName() string { return "waitlist_updates" }

// IsNew reports whether the entry proposes a brand-new product.
func (e *WaitlistEntry) IsNew() bool { return e.ProductID == nil }

// AuditLogEntry records one moderation decision: who did what to which
// record, with full before/after snapshots. Rows are append-only, the system
// of record for "what changed and who did it"; they are never updated or
// deleted.
type AuditLogEntry struct {
	ID          string            `json:"id"           gorm:"type:char(36);primaryKey"`
	Actor       string            `json:"actor"        gorm:"type:varchar(255);not null;index"`
	Action      string            `json:"action"       gorm:"type:varchar(64);not null;index"`
	TargetType  string            `json:"target_type"  gorm:"type:varchar(64);not null;index"`
	TargetID    string            `json:"target_id"    gorm:"type:varchar(64);not null;index"`
	BeforeState datatypes.JSONMap `json:"before_state" gorm:"type:json"`
	AfterState  datatypes.JSONMap `json:"after_state"  gorm:"type:json"`
	Timestamp   time.Time         `json:"timestamp"    gorm:"not null;index"`
	Reason      *string           `json:"reason"       gorm:"type:text"`
}

// TableName returns the database table name for AuditLogEntry.
func (AuditLogEntry) TableName() string { return "audit_log" }

// Calculation is a saved hydraulic sizing result. Only the aggregated
// results are typed; the raw per-fixture counts are persisted verbatim in a
// single opaque field so a calculation can be recalled or duplicated.
type Calculation struct {
	ID                  string            `json:"id"                    gorm:"type:char(36);primaryKey"`
	UserID              string            `json:"user_id"               gorm:"type:varchar(64);not null;index"`
	Name                string            `json:"name"                  gorm:"type:varchar(255);not null"`
	Method              string            `json:"method"                gorm:"type:varchar(8);not null;index"`
	IncludeHydrantExtra bool              `json:"include_hydrant_extra" gorm:"not null"`
	TotalLU             float64           `json:"total_lu"              gorm:"not null"`
	TotalLps            float64           `json:"total_lps"             gorm:"not null"`
	TotalM3PerHour      float64           `json:"total_m3_per_hour"     gorm:"not null"`
	RecommendedDN       *string           `json:"recommended_dn"        gorm:"type:varchar(8);index"`
	FixtureCounts       datatypes.JSONMap `json:"fixture_counts"        gorm:"type:json;not null"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
	DeletedAt           gorm.DeletedAt    `json:"-"                     gorm:"index"`
}

// TableName returns the database table name for Calculation.
func (Calculation) TableName() string { return "plumber_calculations" }
