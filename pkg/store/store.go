// Package store is the narrow persistence surface used by the logistics layer:
// per-record get, filter, create, update and a conditional update. It never
// opens multi-record transactions.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a record does not resolve.
var ErrNotFound = errors.New("store: record not found")

// Columns is a sparse set of column values, keyed by column name.
type Columns map[string]any

// Query selects records by column equality. A nil value matches NULL.
type Query struct {
	Where   Columns
	OrderBy string
	Limit   int
}

const defaultOrder = "created_at ASC, id ASC"

// Repository is the capability surface over one entity table.
type Repository[T any] interface {
	Get(ctx context.Context, id string) (*T, error)
	Filter(ctx context.Context, q Query) ([]T, error)
	Create(ctx context.Context, rec *T) error
	Update(ctx context.Context, id string, set Columns) error
	UpdateIf(ctx context.Context, id string, guard, set Columns) (bool, error)
}

// Base provides the shared GORM handle for collections.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Collection implements Repository on a GORM model.
type Collection[T any] struct {
	Base
}

// NewCollection binds a collection for model T.
func NewCollection[T any](db *gorm.DB) *Collection[T] {
	return &Collection[T]{Base: NewBase(db)}
}

func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	var rec T
	err := c.DB(ctx).Where("id = ?", id).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Collection[T]) Filter(ctx context.Context, q Query) ([]T, error) {
	tx := c.DB(ctx).Model(new(T))
	if len(q.Where) > 0 {
		tx = tx.Where(map[string]any(q.Where))
	}
	order := q.OrderBy
	if order == "" {
		order = defaultOrder
	}
	tx = tx.Order(order)
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	var out []T
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts rec. Identifiers are assigned by the model when empty.
func (c *Collection[T]) Create(ctx context.Context, rec *T) error {
	return c.DB(ctx).Create(rec).Error
}

// Update writes only the provided columns. ErrNotFound is returned when no
// row has the id.
func (c *Collection[T]) Update(ctx context.Context, id string, set Columns) error {
	if len(set) == 0 {
		return nil
	}
	res := c.DB(ctx).Model(new(T)).Where("id = ?", id).Updates(map[string]any(set))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateIf writes set only when every guard column still holds its expected
// value. It reports whether a row was written; false means the guard lost.
func (c *Collection[T]) UpdateIf(ctx context.Context, id string, guard, set Columns) (bool, error) {
	if len(set) == 0 {
		return false, errors.New("store: conditional update requires columns to set")
	}
	tx := c.DB(ctx).Model(new(T)).Where("id = ?", id)
	if len(guard) > 0 {
		tx = tx.Where(map[string]any(guard))
	}
	res := tx.Updates(map[string]any(set))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
