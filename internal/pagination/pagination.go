package pagination

import (
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest holds pagination parameters. Pages are 1-indexed.
type PageRequest struct {
	Page     int
	PageSize int
}

// PageQuery binds page and page_size from a query string. An explicit zero is
// rejected; only an absent parameter falls back to the default.
type PageQuery struct {
	Page     *int `form:"page" binding:"omitempty,min=1"`
	PageSize *int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Request converts the bound query into a PageRequest with defaults applied.
func (q PageQuery) Request() PageRequest {
	var p PageRequest
	if q.Page != nil {
		p.Page = *q.Page
	}
	if q.PageSize != nil {
		p.PageSize = *q.PageSize
	}
	p.Defaults()
	return p
}

// Defaults fills in default values when page or page_size are not provided
// and clamps page_size to MaxPageSize.
func (p *PageRequest) Defaults() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p *PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for the given page request.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Offset()).Limit(req.PageSize)
	}
}
