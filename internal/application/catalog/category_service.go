package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/markethub/backend/internal/domain/catalog"
	"github.com/markethub/backend/internal/domain/shared"
)

// CategoryService handles the browse-tree operations
type CategoryService struct {
	categoryRepo   catalog.CategoryRepository
	productRepo    catalog.ProductRepository
	clock          shared.Clock
	eventPublisher shared.EventPublisher
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(
	categoryRepo catalog.CategoryRepository,
	productRepo catalog.ProductRepository,
	clock shared.Clock,
) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		clock:        clock,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *CategoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create adds a category, as a root or under an existing parent
func (s *CategoryService) Create(ctx context.Context, tenantID uuid.UUID, req CreateCategoryRequest) (*CategoryResponse, error) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	exists, err := s.categoryRepo.ExistsBySlug(ctx, tenantID, slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Category slug %s is already taken", slug))
	}

	now := s.clock.Now()
	var category *catalog.Category
	if req.ParentID != nil {
		parent, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, *req.ParentID)
		if err != nil {
			if shared.IsNotFound(err) {
				return nil, shared.NewValidationError("Parent category %s does not exist", req.ParentID)
			}
			return nil, err
		}
		category, err = catalog.NewChildCategory(tenantID, slug, req.Name, parent, now)
		if err != nil {
			return nil, err
		}
	} else {
		category, err = catalog.NewCategory(tenantID, slug, req.Name, now)
		if err != nil {
			return nil, err
		}
	}

	if req.Description != "" {
		if err := category.Update(req.Name, req.Description, now); err != nil {
			return nil, err
		}
	}
	if req.SortOrder != nil {
		category.SetSortOrder(*req.SortOrder, now)
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		// Events are delivered in-process after the save; a delivery failure
		// does not fail the creation
		_ = s.eventPublisher.Publish(ctx, category.GetDomainEvents()...)
	}
	category.ClearDomainEvents()

	response := ToCategoryResponse(category)
	return &response, nil
}

// GetByID retrieves a category by ID
func (s *CategoryService) GetByID(ctx context.Context, tenantID, categoryID uuid.UUID) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, categoryID)
	if err != nil {
		return nil, err
	}
	response := ToCategoryResponse(category)
	return &response, nil
}

// GetBySlug retrieves a category by its slug
func (s *CategoryService) GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, tenantID, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}
	response := ToCategoryResponse(category)
	return &response, nil
}

// ListRoots retrieves the top-level categories
func (s *CategoryService) ListRoots(ctx context.Context, tenantID uuid.UUID) ([]CategoryResponse, error) {
	categories, err := s.categoryRepo.FindRoots(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ToCategoryResponses(categories), nil
}

// ListChildren retrieves the direct children of a category
func (s *CategoryService) ListChildren(ctx context.Context, tenantID, parentID uuid.UUID) ([]CategoryResponse, error) {
	if _, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, parentID); err != nil {
		return nil, err
	}
	categories, err := s.categoryRepo.FindChildren(ctx, tenantID, parentID)
	if err != nil {
		return nil, err
	}
	return ToCategoryResponses(categories), nil
}

// GetTree builds the full category tree from one query. Children appear in
// sort order because the repository returns rows already ordered.
func (s *CategoryService) GetTree(ctx context.Context, tenantID uuid.UUID) ([]*CategoryTreeNode, error) {
	categories, err := s.categoryRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	nodes := make(map[uuid.UUID]*CategoryTreeNode, len(categories))
	for _, category := range categories {
		nodes[category.ID] = &CategoryTreeNode{
			ID:        category.ID,
			Slug:      category.Slug,
			Name:      category.Name,
			Level:     category.Level,
			SortOrder: category.SortOrder,
			Status:    string(category.Status),
			Children:  []*CategoryTreeNode{},
		}
	}

	roots := make([]*CategoryTreeNode, 0)
	for _, category := range categories {
		node := nodes[category.ID]
		if category.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*category.ParentID]; ok {
			parent.Children = append(parent.Children, node)
		}
	}

	return roots, nil
}

// Update changes a category's name, description and sort order
func (s *CategoryService) Update(ctx context.Context, tenantID, categoryID uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, categoryID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := category.Update(req.Name, req.Description, now); err != nil {
		return nil, err
	}
	if req.SortOrder != nil {
		category.SetSortOrder(*req.SortOrder, now)
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}

	response := ToCategoryResponse(category)
	return &response, nil
}

// Activate makes a category visible for browsing
func (s *CategoryService) Activate(ctx context.Context, tenantID, categoryID uuid.UUID) (*CategoryResponse, error) {
	return s.setStatus(ctx, tenantID, categoryID, true)
}

// Deactivate hides a category from browsing. Its products stay purchasable
// through direct links and search.
func (s *CategoryService) Deactivate(ctx context.Context, tenantID, categoryID uuid.UUID) (*CategoryResponse, error) {
	return s.setStatus(ctx, tenantID, categoryID, false)
}

func (s *CategoryService) setStatus(ctx context.Context, tenantID, categoryID uuid.UUID, active bool) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, categoryID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if active {
		category.Activate(now)
	} else {
		category.Deactivate(now)
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}

	response := ToCategoryResponse(category)
	return &response, nil
}

// Delete removes an empty leaf category
func (s *CategoryService) Delete(ctx context.Context, tenantID, categoryID uuid.UUID) error {
	category, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, categoryID)
	if err != nil {
		return err
	}

	hasChildren, err := s.categoryRepo.HasChildren(ctx, tenantID, category.ID)
	if err != nil {
		return err
	}
	if hasChildren {
		return shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Cannot delete category %s while it has child categories", category.Slug))
	}

	hasProducts, err := s.categoryRepo.HasProducts(ctx, tenantID, category.ID)
	if err != nil {
		return err
	}
	if hasProducts {
		return shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Cannot delete category %s while products are assigned to it", category.Slug))
	}

	return s.categoryRepo.Delete(ctx, tenantID, category.ID)
}
