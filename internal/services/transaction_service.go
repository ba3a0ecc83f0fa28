package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/search"
	"fintrack/internal/uuid"
	appvalidator "fintrack/internal/validator"
)

// sortColumns maps the sort_by values accepted from clients to columns.
var sortColumns = map[string]string{
	"date":       "date",
	"amount":     "amount",
	"title":      "title",
	"type":       "type",
	"category":   "category",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// transactionService handles transaction-related business logic.
type transactionService struct {
	db       *gorm.DB
	audit    AuditRecorder
	validate *validator.Validate
	now      func() time.Time
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, audit AuditRecorder) TransactionServicer {
	s := &transactionService{
		db:    db,
		audit: audit,
		now:   time.Now,
	}
	s.validate = appvalidator.New(appvalidator.WithClock(func() time.Time { return s.now() }))
	return s
}

// withTags preloads tag rows in list order.
func withTags(db *gorm.DB) *gorm.DB {
	return db.Preload("TagLinks", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// CreateTransaction validates and stores a new transaction together with its
// tags, search terms, and audit entry.
func (s *transactionService) CreateTransaction(ctx context.Context, input TransactionInput) (*models.Transaction, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Category = normalizeName(input.Category)
	if input.Tags == nil {
		input.Tags = []string{}
	}

	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err, "")
	}

	now := s.now().UTC()
	transaction := &models.Transaction{
		Base:        models.Base{CreatedAt: now, UpdatedAt: now},
		Title:       input.Title,
		Description: input.Description,
		Amount:      input.Amount,
		Type:        input.Type,
		Category:    input.Category,
		Date:        input.Date.UTC(),
		Tags:        input.Tags,
	}

	var entry *models.AuditLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("TagLinks").Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := insertTags(tx, transaction.ID, transaction.Tags); err != nil {
			return err
		}
		if err := insertTerms(tx, transaction.ID, transaction.Title, transaction.Description); err != nil {
			return err
		}

		var err error
		entry, err = s.audit.Record(tx, AuditEntry{
			Action:     models.AuditCreateTransaction,
			EntityType: "transaction",
			EntityKey:  transaction.ID,
			Payload:    map[string]interface{}{"transaction_id": transaction.ID, "amount": transaction.Amount},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Announce(ctx, entry)
	return transaction, nil
}

func insertTags(tx *gorm.DB, transactionID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	links := make([]models.TransactionTag, len(tags))
	for i, tag := range tags {
		links[i] = models.TransactionTag{TransactionID: transactionID, Position: i, Tag: tag}
	}
	if err := tx.Create(&links).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func insertTerms(tx *gorm.DB, transactionID, title string, description *string) error {
	texts := []string{title}
	if description != nil {
		texts = append(texts, *description)
	}
	terms := search.Terms(texts...)
	if len(terms) == 0 {
		return nil
	}
	postings := make([]models.SearchTerm, len(terms))
	for i, term := range terms {
		postings[i] = models.SearchTerm{Term: term, TransactionID: transactionID}
	}
	if err := tx.Create(&postings).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ListTransactions returns one page of transactions matching every provided
// filter. No total count is computed.
func (s *transactionService) ListTransactions(ctx context.Context, filter TransactionFilter, sort TransactionSort, page pagination.PageRequest) ([]models.Transaction, error) {
	page.Defaults()

	field := sort.Field
	if field == "" {
		field = "date"
	}
	column, ok := sortColumns[field]
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidSortField, fmt.Sprintf("cannot sort by %q", field))
	}
	direction := "DESC"
	if sort.Ascending {
		direction = "ASC"
	}

	db := s.db.WithContext(ctx)
	q := applyTransactionFilters(db.Model(&models.Transaction{}), db, filter)

	transactions := []models.Transaction{}
	if err := q.Scopes(withTags, pagination.Paginate(page)).
		Order(fmt.Sprintf("%s %s", column, direction)).
		Order("id " + direction).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

func applyTransactionFilters(q, db *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.Category != nil && *f.Category != "" {
		q = q.Where("category = ?", normalizeName(*f.Category))
	}
	if f.Type != nil && *f.Type != "" {
		q = q.Where("type = ?", *f.Type)
	}
	// A one-sided range is ignored rather than applied as an open bound.
	if f.From != nil && f.To != nil {
		q = q.Where("date >= ? AND date <= ?", f.From.UTC(), f.To.UTC())
	}
	if tags := distinct(f.Tags); len(tags) > 0 {
		tagged := db.Model(&models.TransactionTag{}).
			Select("transaction_id").
			Where("tag IN ?", tags).
			Group("transaction_id").
			Having("COUNT(DISTINCT tag) = ?", len(tags))
		q = q.Where("id IN (?)", tagged)
	}
	return q
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// SearchTransactions returns transactions whose title or description contains
// any term of query, best matches first.
func (s *transactionService) SearchTransactions(ctx context.Context, query string) ([]models.Transaction, error) {
	terms := search.Terms(query)
	if len(terms) == 0 {
		return nil, apperrors.ErrEmptySearchQuery
	}

	db := s.db.WithContext(ctx)
	matches := db.Model(&models.SearchTerm{}).
		Select("transaction_id, COUNT(*) AS hits").
		Where("term IN ?", terms).
		Group("transaction_id")

	transactions := []models.Transaction{}
	if err := db.Scopes(withTags).
		Joins("JOIN (?) AS matches ON matches.transaction_id = transactions.id", matches).
		Order("matches.hits DESC").
		Order("transactions.date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// GetTransaction retrieves a transaction by ID.
func (s *transactionService) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	return findTransaction(s.db.WithContext(ctx), id)
}

func findTransaction(db *gorm.DB, id string) (*models.Transaction, error) {
	if !uuid.IsValid(id) {
		return nil, apperrors.ErrTransactionNotFound
	}

	var transaction models.Transaction
	if err := db.Scopes(withTags).Where("id = ?", id).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction applies the provided fields, refreshes updated_at, and
// records the changes. A missing transaction writes nothing.
func (s *transactionService) UpdateTransaction(ctx context.Context, id string, update TransactionUpdate) (*models.Transaction, error) {
	changes, err := s.normalizeUpdate(&update)
	if err != nil {
		return nil, err
	}

	var (
		transaction *models.Transaction
		entry       *models.AuditLog
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findTransaction(tx, id)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{}, len(changes)+1)
		for k, v := range changes {
			if k != "tags" {
				updates[k] = v
			}
		}
		updates["updated_at"] = s.now().UTC()

		if err := tx.Model(existing).Omit("TagLinks").Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if update.Tags != nil {
			if err := tx.Where("transaction_id = ?", id).Delete(&models.TransactionTag{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := insertTags(tx, id, *update.Tags); err != nil {
				return err
			}
		}

		if update.Title != nil || update.Description != nil {
			title, description := existing.Title, existing.Description
			if update.Title != nil {
				title = *update.Title
			}
			if update.Description != nil {
				description = update.Description
			}
			if err := tx.Where("transaction_id = ?", id).Delete(&models.SearchTerm{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := insertTerms(tx, id, title, description); err != nil {
				return err
			}
		}

		if transaction, err = findTransaction(tx, id); err != nil {
			return err
		}

		entry, err = s.audit.Record(tx, AuditEntry{
			Action:     models.AuditUpdateTransaction,
			EntityType: "transaction",
			EntityKey:  id,
			Payload:    map[string]interface{}{"transaction_id": id, "changes": changes},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Announce(ctx, entry)
	return transaction, nil
}

// normalizeUpdate validates the provided fields and returns them keyed by
// column. The future-date rule only applies at creation.
func (s *transactionService) normalizeUpdate(u *TransactionUpdate) (map[string]interface{}, error) {
	changes := make(map[string]interface{})

	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if err := s.validate.Var(title, "min=3,max=100"); err != nil {
			return nil, validationError(err, "title")
		}
		u.Title = &title
		changes["title"] = title
	}
	if u.Description != nil {
		if err := s.validate.Var(*u.Description, "max=500"); err != nil {
			return nil, validationError(err, "description")
		}
		changes["description"] = *u.Description
	}
	if u.Amount != nil {
		if err := s.validate.Var(*u.Amount, "gt=0"); err != nil {
			return nil, validationError(err, "amount")
		}
		changes["amount"] = *u.Amount
	}
	if u.Type != nil {
		if !u.Type.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be income or expense")
		}
		changes["type"] = *u.Type
	}
	if u.Category != nil {
		category := normalizeName(*u.Category)
		if err := s.validate.Var(category, "required,max=100"); err != nil {
			return nil, validationError(err, "category")
		}
		u.Category = &category
		changes["category"] = category
	}
	if u.Date != nil {
		date := u.Date.UTC()
		u.Date = &date
		changes["date"] = date
	}
	if u.Tags != nil {
		if err := s.validate.Var(*u.Tags, "max=10,dive,max=30"); err != nil {
			return nil, validationError(err, "tags")
		}
		changes["tags"] = *u.Tags
	}
	return changes, nil
}

// DeleteTransaction removes a transaction, its tags and search terms, and
// records the deletion.
func (s *transactionService) DeleteTransaction(ctx context.Context, id string) error {
	if !uuid.IsValid(id) {
		return apperrors.ErrTransactionNotFound
	}

	var entry *models.AuditLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		byID := func(db *gorm.DB) *gorm.DB { return db.Where("id = ?", id) }
		if err := deleteChildren(tx, byID); err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Transaction{})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrTransactionNotFound
		}

		var err error
		entry, err = s.audit.Record(tx, AuditEntry{
			Action:     models.AuditDeleteTransaction,
			EntityType: "transaction",
			EntityKey:  id,
			Payload:    map[string]interface{}{"transaction_id": id},
		})
		return err
	})
	if err != nil {
		return err
	}

	s.audit.Announce(ctx, entry)
	return nil
}

// BulkDeleteTransactions removes every transaction in category, or every
// transaction when category is nil, and returns how many were removed.
func (s *transactionService) BulkDeleteTransactions(ctx context.Context, category *string) (int64, error) {
	filter := map[string]interface{}{}
	if category != nil && *category != "" {
		filter["category"] = normalizeName(*category)
	}

	var (
		deleted int64
		entry   *models.AuditLog
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope := func(db *gorm.DB) *gorm.DB {
			if c, ok := filter["category"]; ok {
				return db.Where("category = ?", c)
			}
			return db.Where("1 = 1")
		}

		if err := deleteChildren(tx, scope); err != nil {
			return err
		}

		result := tx.Scopes(scope).Delete(&models.Transaction{})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		deleted = result.RowsAffected

		var err error
		entry, err = s.audit.Record(tx, AuditEntry{
			Action:     models.AuditBulkDeleteTransactions,
			EntityType: "transaction",
			Payload:    map[string]interface{}{"filter": filter, "count": deleted},
		})
		return err
	})
	if err != nil {
		return 0, err
	}

	s.audit.Announce(ctx, entry)
	return deleted, nil
}

// deleteChildren removes the tag rows and search postings of the
// transactions selected by scope. It must run before the parents are deleted.
func deleteChildren(tx *gorm.DB, scope func(*gorm.DB) *gorm.DB) error {
	for _, child := range []interface{}{&models.TransactionTag{}, &models.SearchTerm{}} {
		ids := tx.Model(&models.Transaction{}).Select("id").Scopes(scope)
		if err := tx.Where("transaction_id IN (?)", ids).Delete(child).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}
