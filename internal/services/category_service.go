package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	appvalidator "fintrack/internal/validator"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db       *gorm.DB
	audit    AuditRecorder
	validate *validator.Validate
	now      func() time.Time
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB, audit AuditRecorder) CategoryServicer {
	return &categoryService{
		db:       db,
		audit:    audit,
		validate: appvalidator.New(),
		now:      time.Now,
	}
}

// CreateCategory creates a new category. The name is stored trimmed and
// lowercased and must be unique.
func (s *categoryService) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	input.Name = normalizeName(input.Name)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err, "")
	}

	now := s.now().UTC()
	category := &models.Category{
		Name:        input.Name,
		Type:        input.Type,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var entry *models.AuditLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Category{}).Where("name = ?", category.Name).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.ErrCategoryExists
		}

		if err := tx.Create(category).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrCategoryExists
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var err error
		entry, err = s.audit.Record(tx, AuditEntry{
			Action:     models.AuditCreateCategory,
			EntityType: "category",
			EntityKey:  category.Name,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Announce(ctx, entry)
	return category, nil
}

// ListCategories returns every category in creation order.
func (s *categoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := s.db.WithContext(ctx).Order("created_at ASC").Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategory retrieves a category by name.
func (s *categoryService) GetCategory(ctx context.Context, name string) (*models.Category, error) {
	return findCategory(s.db.WithContext(ctx), normalizeName(name))
}

func findCategory(db *gorm.DB, name string) (*models.Category, error) {
	var category models.Category
	if err := db.Where("name = ?", name).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory changes the type and/or description of a category and
// records the changed fields. A missing category writes nothing.
func (s *categoryService) UpdateCategory(ctx context.Context, name string, update CategoryUpdate) (*models.Category, error) {
	name = normalizeName(name)
	if err := s.validate.Struct(update); err != nil {
		return nil, validationError(err, "")
	}

	changes := make(map[string]interface{})
	if update.Type != nil {
		changes["type"] = *update.Type
	}
	if update.Description != nil {
		changes["description"] = *update.Description
	}
	if len(changes) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "at least one of type or description is required")
	}

	var (
		category *models.Category
		entry    *models.AuditLog
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findCategory(tx, name)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{}, len(changes)+1)
		for k, v := range changes {
			updates[k] = v
		}
		updates["updated_at"] = s.now().UTC()

		if err := tx.Model(existing).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if category, err = findCategory(tx, name); err != nil {
			return err
		}

		entry, err = s.audit.Record(tx, AuditEntry{
			Action:     models.AuditUpdateCategory,
			EntityType: "category",
			EntityKey:  name,
			Payload:    map[string]interface{}{"changes": changes},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Announce(ctx, entry)
	return category, nil
}

// DeleteCategory removes a category and moves its transactions to the
// uncategorized sentinel, atomically with the audit entry. It returns the
// number of transactions reassigned.
func (s *categoryService) DeleteCategory(ctx context.Context, name string) (int64, error) {
	name = normalizeName(name)

	var (
		reassigned int64
		entry      *models.AuditLog
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findCategory(tx, name); err != nil {
			return err
		}

		if err := tx.Where("name = ?", name).Delete(&models.Category{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		result := tx.Model(&models.Transaction{}).
			Where("category = ?", name).
			Updates(map[string]interface{}{
				"category":   models.UncategorizedCategory,
				"updated_at": s.now().UTC(),
			})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		reassigned = result.RowsAffected

		var err error
		entry, err = s.audit.Record(tx, AuditEntry{
			Action:     models.AuditDeleteCategory,
			EntityType: "category",
			EntityKey:  name,
			Payload:    map[string]interface{}{"reassigned_transactions": reassigned},
		})
		return err
	})
	if err != nil {
		return 0, err
	}

	s.audit.Announce(ctx, entry)
	return reassigned, nil
}
