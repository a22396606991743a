package database

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListQuery filters and pages a resource listing
type ListQuery struct {
	// ParentID restricts location records to one parent. Ignored for
	// records without a parent.
	ParentID *uint
	Page     int
	PageSize int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Bounds returns the page and page size after defaults and caps
func (q ListQuery) Bounds() (page, pageSize int) {
	page = q.Page
	if page < 1 {
		page = 1
	}
	pageSize = q.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func (q ListQuery) normalize() (offset, limit int) {
	page, limit := q.Bounds()
	return (page - 1) * limit, limit
}

// ResourceStore is the CRUD repository shared by reference data and content
type ResourceStore[T any, P Resource[T]] struct {
	db Database
}

func NewResourceStore[T any, P Resource[T]](db Database) *ResourceStore[T, P] {
	return &ResourceStore[T, P]{db: db}
}

// List returns one page of records ordered by id, plus the total count
func (s *ResourceStore[T, P]) List(ctx context.Context, q ListQuery) ([]*T, int64, error) {
	scoped := func() *gorm.DB {
		tx := s.db.Conn(ctx).Model(P(new(T)))
		if q.ParentID != nil {
			if p, ok := any(P(new(T))).(parented); ok {
				tx = tx.Where(p.parentColumn()+" = ?", *q.ParentID)
			}
		}
		return tx
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	offset, limit := q.normalize()
	items := make([]*T, 0)
	if err := scoped().Order("id asc").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return items, total, nil
}

func (s *ResourceStore[T, P]) Get(ctx context.Context, id uint) (*T, error) {
	var item T
	if err := s.db.Conn(ctx).First(P(&item), id).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

// Create inserts item as active, ignoring any client supplied id or timestamps
func (s *ResourceStore[T, P]) Create(ctx context.Context, item *T) error {
	b := P(item).base()
	b.ID = 0
	b.Status = true
	b.CreatedAt, b.UpdatedAt = time.Time{}, time.Time{}

	return s.db.Transaction(ctx, func(ctx context.Context) error {
		if err := s.checkParent(ctx, item); err != nil {
			return err
		}
		return translateError(s.db.Conn(ctx).Omit(clause.Associations).Create(item).Error)
	})
}

// Update replaces the editable columns of the record with id. Status is
// only changed through SetStatus.
func (s *ResourceStore[T, P]) Update(ctx context.Context, id uint, item *T) error {
	return s.db.Transaction(ctx, func(ctx context.Context) error {
		existing, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.checkParent(ctx, item); err != nil {
			return err
		}

		b, eb := P(item).base(), P(existing).base()
		b.ID = id
		b.Status = eb.Status
		b.CreatedAt = eb.CreatedAt
		return translateError(s.db.Conn(ctx).Omit(clause.Associations).Save(item).Error)
	})
}

// SetStatus flips the active flag when active is nil, otherwise sets it
func (s *ResourceStore[T, P]) SetStatus(ctx context.Context, id uint, active *bool) (*T, error) {
	var out *T
	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		existing, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		next := !P(existing).base().Status
		if active != nil {
			next = *active
		}
		if err := s.db.Conn(ctx).Model(P(existing)).Update("status", next).Error; err != nil {
			return translateError(err)
		}
		P(existing).base().Status = next
		out = existing
		return nil
	})
	return out, err
}

// Delete removes the record, refusing while child records reference it
func (s *ResourceStore[T, P]) Delete(ctx context.Context, id uint) error {
	return s.db.Transaction(ctx, func(ctx context.Context) error {
		if p, ok := any(P(new(T))).(parentOf); ok {
			model, column := p.childRef()
			var n int64
			if err := s.db.Conn(ctx).Model(model).Where(column+" = ?", id).Count(&n).Error; err != nil {
				return translateError(err)
			}
			if n > 0 {
				return ErrInUse
			}
		}
		return affected(s.db.Conn(ctx).Delete(P(new(T)), id))
	})
}

func (s *ResourceStore[T, P]) checkParent(ctx context.Context, item *T) error {
	p, ok := any(P(item)).(parented)
	if !ok {
		return nil
	}
	model, parentID := p.parentRef()
	if parentID == 0 {
		return ErrParentNotFound
	}
	var n int64
	if err := s.db.Conn(ctx).Model(model).Where("id = ?", parentID).Count(&n).Error; err != nil {
		return translateError(err)
	}
	if n == 0 {
		return ErrParentNotFound
	}
	return nil
}
