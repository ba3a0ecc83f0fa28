package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	appvalidator "fintrack/internal/validator"
)

// reportService computes read-only aggregates over transactions.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

// ParseMonth parses "YYYY-MM" (a single-digit month is accepted) into its
// year and month components.
func ParseMonth(month string) (int, time.Month, error) {
	month = strings.TrimSpace(month)
	if !appvalidator.IsMonth(month) {
		return 0, 0, apperrors.ErrInvalidMonth
	}
	yearPart, monthPart, _ := strings.Cut(month, "-")
	year, _ := strconv.Atoi(yearPart)
	m, _ := strconv.Atoi(monthPart)
	return year, time.Month(m), nil
}

// MonthlySummary aggregates the transactions dated in month. Totals per type,
// the highest expense, and the per-category expense breakdown are folded
// from a single streamed query; that query and the tag lookup for the highest
// expense share one read-only transaction so they describe the same snapshot.
func (s *reportService) MonthlySummary(ctx context.Context, month string) (*MonthlySummary, error) {
	year, mon, err := ParseMonth(month)
	if err != nil {
		return nil, err
	}

	start := time.Date(year, mon, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var summary *MonthlySummary
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		agg, err := foldMonth(tx, year, mon, start, end)
		if err != nil {
			return err
		}
		summary = agg.summary(fmt.Sprintf("%04d-%02d", year, int(mon)))
		if summary.HighestExpense != nil {
			return loadTags(tx, summary.HighestExpense)
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func foldMonth(tx *gorm.DB, year int, mon time.Month, start, end time.Time) (*monthAggregate, error) {
	rows, err := tx.Model(&models.Transaction{}).
		Where("date >= ? AND date < ?", start, end).
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer rows.Close()

	agg := newMonthAggregate(year, mon)
	for rows.Next() {
		var t models.Transaction
		if err := tx.ScanRows(rows, &t); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		agg.add(t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return agg, nil
}

func loadTags(db *gorm.DB, t *models.Transaction) error {
	var links []models.TransactionTag
	if err := db.Where("transaction_id = ?", t.ID).Order("position ASC").Find(&links).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	t.Tags = make([]string, len(links))
	for i, link := range links {
		t.Tags[i] = link.Tag
	}
	return nil
}

// monthAggregate folds transactions into the three summary facets.
type monthAggregate struct {
	year  int
	month time.Month

	count     int
	byType    map[models.TransactionType]float64
	byExpense map[string]float64
	highest   *models.Transaction
}

func newMonthAggregate(year int, month time.Month) *monthAggregate {
	return &monthAggregate{
		year:      year,
		month:     month,
		byType:    make(map[models.TransactionType]float64),
		byExpense: make(map[string]float64),
	}
}

func (a *monthAggregate) add(t models.Transaction) {
	// Match on calendar components of the UTC date, whatever offset the
	// driver hands back.
	d := t.Date.UTC()
	if d.Year() != a.year || d.Month() != a.month {
		return
	}

	a.count++
	a.byType[t.Type] += t.Amount

	if t.Type != models.TransactionTypeExpense {
		return
	}
	a.byExpense[t.Category] += t.Amount
	if a.highest == nil || t.Amount > a.highest.Amount {
		highest := t
		a.highest = &highest
	}
}

func (a *monthAggregate) summary(month string) *MonthlySummary {
	s := &MonthlySummary{
		Month:             month,
		TransactionCount:  a.count,
		Totals:            make([]TypeTotal, 0, len(a.byType)),
		HighestExpense:    a.highest,
		CategoryBreakdown: make([]CategoryTotal, 0, len(a.byExpense)),
	}

	for typ, total := range a.byType {
		s.Totals = append(s.Totals, TypeTotal{Type: typ, Total: total})
	}
	sort.Slice(s.Totals, func(i, j int) bool { return s.Totals[i].Type < s.Totals[j].Type })

	for category, total := range a.byExpense {
		s.CategoryBreakdown = append(s.CategoryBreakdown, CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(s.CategoryBreakdown, func(i, j int) bool {
		bi, bj := s.CategoryBreakdown[i], s.CategoryBreakdown[j]
		if bi.Total != bj.Total {
			return bi.Total > bj.Total
		}
		return bi.Category < bj.Category
	})
	return s
}
