package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
)

// MaxCategoryDepth is the maximum depth of the category hierarchy
const MaxCategoryDepth = 5

// CategoryStatus represents the status of a category
type CategoryStatus string

const (
	CategoryStatusActive   CategoryStatus = "ACTIVE"
	CategoryStatusInactive CategoryStatus = "INACTIVE"
)

// IsValid returns true if the status is valid
func (s CategoryStatus) IsValid() bool {
	return s == CategoryStatusActive || s == CategoryStatusInactive
}

// Category is a node in the marketplace's browse tree. Categories form a
// hierarchy with a materialized path, so subtree queries are a prefix match.
type Category struct {
	shared.TenantAggregateRoot
	Slug        string         `gorm:"type:varchar(100);not null;uniqueIndex:idx_category_tenant_slug,priority:2"`
	Name        string         `gorm:"type:varchar(100);not null"`
	Description string         `gorm:"type:text"`
	ParentID    *uuid.UUID     `gorm:"type:uuid;index"`
	Path        string         `gorm:"type:varchar(500);not null;index"`
	Level       int            `gorm:"not null;default:0"`
	SortOrder   int            `gorm:"not null;default:0"`
	Status      CategoryStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a new root category
func NewCategory(tenantID uuid.UUID, slug, name string, now time.Time) (*Category, error) {
	if err := validateCategorySlug(slug); err != nil {
		return nil, err
	}
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}

	category := &Category{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Slug:                strings.ToLower(slug),
		Name:                name,
		Status:              CategoryStatusActive,
		Level:               0,
	}
	category.CreatedAt = now
	category.UpdatedAt = now
	// Root category path is just the ID.
	category.Path = category.ID.String()

	category.AddDomainEvent(NewCategoryCreatedEvent(category))
	return category, nil
}

// NewChildCategory creates a new category under a parent
func NewChildCategory(tenantID uuid.UUID, slug, name string, parent *Category, now time.Time) (*Category, error) {
	if parent == nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Parent category is required")
	}
	if parent.Level >= MaxCategoryDepth-1 {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Category depth cannot exceed %d levels", MaxCategoryDepth))
	}
	if err := validateCategorySlug(slug); err != nil {
		return nil, err
	}
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}

	category := &Category{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Slug:                strings.ToLower(slug),
		Name:                name,
		ParentID:            &parent.ID,
		Level:               parent.Level + 1,
		Status:              CategoryStatusActive,
	}
	category.CreatedAt = now
	category.UpdatedAt = now
	category.Path = parent.Path + "/" + category.ID.String()

	category.AddDomainEvent(NewCategoryCreatedEvent(category))
	return category, nil
}

// Update updates the category's basic information
func (c *Category) Update(name, description string, now time.Time) error {
	if err := validateCategoryName(name); err != nil {
		return err
	}

	c.Name = name
	c.Description = description
	c.Touch(now)
	return nil
}

// SetSortOrder sets the display order among siblings
func (c *Category) SetSortOrder(order int, now time.Time) {
	c.SortOrder = order
	c.Touch(now)
}

// Activate makes the category visible in the browse tree
func (c *Category) Activate(now time.Time) {
	c.Status = CategoryStatusActive
	c.Touch(now)
}

// Deactivate hides the category from the browse tree
func (c *Category) Deactivate(now time.Time) {
	c.Status = CategoryStatusInactive
	c.Touch(now)
}

// IsActive returns true if the category is visible
func (c *Category) IsActive() bool {
	return c.Status == CategoryStatusActive
}

// IsRoot returns true for top-level categories
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// IsDescendantOf reports whether this category sits under the other one
func (c *Category) IsDescendantOf(other *Category) bool {
	if other == nil {
		return false
	}
	return strings.HasPrefix(c.Path, other.Path+"/")
}

// validateCategorySlug validates the URL slug
func validateCategorySlug(slug string) error {
	if slug == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Category slug cannot be empty")
	}
	if len(slug) > 100 {
		return shared.NewDomainError("VALIDATION_ERROR", "Category slug cannot exceed 100 characters")
	}
	for _, r := range slug {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-') {
			return shared.NewDomainError("VALIDATION_ERROR", "Category slug can only contain letters, numbers, and hyphens")
		}
	}
	return nil
}

// validateCategoryName validates the category name
func validateCategoryName(name string) error {
	if name == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Category name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("VALIDATION_ERROR", "Category name cannot exceed 100 characters")
	}
	return nil
}
