// Package pagination implements offset/limit windowing for list queries.
package pagination

import (
	"github.com/Masterminds/squirrel"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/apperror"
)

var (
	ErrNegativeOffset = apperror.InvalidArgument("from must not be negative")
	ErrInvalidLimit   = apperror.InvalidArgument("size must be at least 1")
)

// Order is a single ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

func (o Order) String() string {
	if o.Desc {
		return o.Column + " DESC"
	}
	return o.Column + " ASC"
}

// Page is an absolute offset window over a sorted result set.
type Page struct {
	Offset int
	Limit  int
	Sort   []Order
}

// New validates offset and limit and returns a Page sorted by sort.
// Invalid values are rejected, never clamped.
func New(offset, limit int, sort ...Order) (Page, error) {
	if offset < 0 {
		return Page{}, ErrNegativeOffset
	}
	if limit < 1 {
		return Page{}, ErrInvalidLimit
	}
	return Page{Offset: offset, Limit: limit, Sort: sort}, nil
}

// Apply adds ORDER BY, LIMIT and OFFSET clauses to the query.
func (p Page) Apply(q squirrel.SelectBuilder) squirrel.SelectBuilder {
	for _, o := range p.Sort {
		q = q.OrderBy(o.String())
	}
	return q.Limit(uint64(p.Limit)).Offset(uint64(p.Offset))
}
