package entries

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/entrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	"github.com/angelmondragon/entrydesk-backend/pkg/pagination"
	"github.com/angelmondragon/entrydesk-backend/pkg/visibility"
)

// Repository is the record store for entries.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Decision is the set of columns written by approve/reject.
type Decision struct {
	Status          enums.EntryStatus
	ReviewerID      uuid.UUID
	DecidedAt       time.Time
	RejectionReason *string
}

// ListQuery is a scoped list request as seen by the store.
type ListQuery struct {
	Filters ListFilters
	Cursor  *pagination.Cursor
	Limit   int
}

func (r *Repository) Create(ctx context.Context, entry *models.Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	var entry models.Entry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// ExistsForOwnerOnDate reports whether owner already has an entry on date, ignoring excludeID.
func (r *Repository) ExistsForOwnerOnDate(ctx context.Context, ownerID uuid.UUID, date time.Time, excludeID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("owner_id = ? AND entry_date = ?", ownerID, date)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdatePending writes content columns only while the entry is still PENDING.
// It returns the number of rows changed, so zero means the entry left PENDING.
func (r *Repository) UpdatePending(ctx context.Context, id uuid.UUID, changes map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("id = ? AND status = ?", id, enums.EntryStatusPending).
		Updates(changes)
	return res.RowsAffected, res.Error
}

// Decide moves a PENDING entry to a terminal status in a single conditional update.
// Zero rows affected means another decision won.
func (r *Repository) Decide(ctx context.Context, id uuid.UUID, d Decision) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("id = ? AND status = ?", id, enums.EntryStatusPending).
		Updates(map[string]any{
			"status":           d.Status,
			"reviewer_id":      d.ReviewerID,
			"decided_at":       d.DecidedAt,
			"rejection_reason": d.RejectionReason,
			"updated_at":       d.DecidedAt,
		})
	return res.RowsAffected, res.Error
}

// Delete removes the entry; onlyPending restricts the delete to PENDING rows.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID, onlyPending bool) (int64, error) {
	q := r.db.WithContext(ctx).Where("id = ?", id)
	if onlyPending {
		q = q.Where("status = ?", enums.EntryStatusPending)
	}
	res := q.Delete(&models.Entry{})
	return res.RowsAffected, res.Error
}

// List returns up to query.Limit+1 entries inside scope. The scope is applied
// before any filter so filters can only narrow it.
func (r *Repository) List(ctx context.Context, scope visibility.EntryScope, query ListQuery) ([]models.Entry, error) {
	qb := scope.Apply(r.db.WithContext(ctx).Model(&models.Entry{}))

	f := query.Filters
	if f.Status != nil {
		qb = qb.Where("entries.status = ?", *f.Status)
	}
	if f.Category != nil {
		qb = qb.Where("entries.category = ?", *f.Category)
	}
	if f.OwnerID != nil {
		qb = qb.Where("entries.owner_id = ?", *f.OwnerID)
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		qb = qb.Where(`LOWER(entries.description) LIKE ? ESCAPE '\'`, "%"+escapeLike(search)+"%")
	}

	if f.Ordering == OrderOldestFirst {
		if c := query.Cursor; c != nil {
			qb = qb.Where("((entries.created_at > ?) OR (entries.created_at = ? AND entries.id > ?))", c.CreatedAt, c.CreatedAt, c.ID)
		}
		qb = qb.Order("entries.created_at ASC").Order("entries.id ASC")
	} else {
		if c := query.Cursor; c != nil {
			qb = qb.Where("((entries.created_at < ?) OR (entries.created_at = ? AND entries.id < ?))", c.CreatedAt, c.CreatedAt, c.ID)
		}
		qb = qb.Order("entries.created_at DESC").Order("entries.id DESC")
	}

	var rows []models.Entry
	if err := qb.Limit(pagination.LimitWithBuffer(query.Limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPendingCreatedBefore returns the oldest PENDING entries submitted before cutoff.
func (r *Repository) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Entry, error) {
	var rows []models.Entry
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.EntryStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
