package entries

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/entrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	"github.com/angelmondragon/entrydesk-backend/pkg/visibility"
)

func seedEntry(t *testing.T, repo *Repository, owner uuid.UUID, date string, createdAt time.Time) *models.Entry {
	t.Helper()
	e := &models.Entry{
		ID:        uuid.New(),
		OwnerID:   owner,
		Amount:    decimal.RequireFromString("10.00"),
		EntryDate: mustDate(t, date).Time,
		Category:  enums.EntryCategoryWork,
		Status:    enums.EntryStatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), e))
	return e
}

func TestRepositoryRoundTripsDecimalAndDate(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	owner := uuid.New()
	e := seedEntry(t, repo, owner, "2023-09-30", fixedToday)

	got, err := repo.FindByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("10")))
	assert.Equal(t, "2023-09-30", got.EntryDate.UTC().Format("2006-01-02"))

	exists, err := repo.ExistsForOwnerOnDate(context.Background(), owner, mustDate(t, "2023-09-30").Time, nil)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsForOwnerOnDate(context.Background(), owner, mustDate(t, "2023-09-30").Time, &e.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepositoryRejectsDuplicateOwnerDate(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	owner := uuid.New()
	seedEntry(t, repo, owner, "2023-09-30", fixedToday)

	dup := &models.Entry{
		ID:        uuid.New(),
		OwnerID:   owner,
		Amount:    decimal.RequireFromString("1.00"),
		EntryDate: mustDate(t, "2023-09-30").Time,
		Category:  enums.EntryCategoryWork,
		Status:    enums.EntryStatusPending,
		CreatedAt: fixedToday,
		UpdatedAt: fixedToday,
	}
	err := repo.Create(context.Background(), dup)
	require.Error(t, err)
	assert.True(t, isDuplicateDate(err))
}

func TestRepositoryDecideOnlyOnce(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	e := seedEntry(t, repo, uuid.New(), "2023-09-30", fixedToday)
	ctx := context.Background()

	d := Decision{Status: enums.EntryStatusApproved, ReviewerID: uuid.New(), DecidedAt: fixedToday}
	rows, err := repo.Decide(ctx, e.ID, d)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.Decide(ctx, e.ID, Decision{Status: enums.EntryStatusRejected, ReviewerID: uuid.New(), DecidedAt: fixedToday})
	require.NoError(t, err)
	assert.Zero(t, rows)

	rows, err = repo.UpdatePending(ctx, e.ID, map[string]any{"description": "late edit"})
	require.NoError(t, err)
	assert.Zero(t, rows)

	rows, err = repo.Delete(ctx, e.ID, true)
	require.NoError(t, err)
	assert.Zero(t, rows)

	got, err := repo.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.EntryStatusApproved, got.Status)
	require.NotNil(t, got.ReviewerID)
	assert.Equal(t, d.ReviewerID, *got.ReviewerID)
}

func TestRepositoryListAppliesScope(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	mine, theirs := uuid.New(), uuid.New()
	seedEntry(t, repo, mine, "2023-09-01", fixedToday)
	seedEntry(t, repo, theirs, "2023-09-01", fixedToday.Add(time.Second))

	rows, err := repo.List(context.Background(), visibility.ScopeFor(mine, enums.UserRoleUser), ListQuery{
		Filters: ListFilters{OwnerID: &theirs},
		Limit:   10,
	})
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = repo.List(context.Background(), visibility.ScopeFor(uuid.New(), enums.UserRoleAdmin), ListQuery{
		Filters: ListFilters{OwnerID: &theirs},
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, theirs, rows[0].OwnerID)
}

func TestRepositoryListPendingCreatedBefore(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	old := seedEntry(t, repo, uuid.New(), "2023-09-01", fixedToday.Add(-96*time.Hour))
	decided := seedEntry(t, repo, uuid.New(), "2023-09-01", fixedToday.Add(-96*time.Hour))
	seedEntry(t, repo, uuid.New(), "2023-09-01", fixedToday.Add(-time.Hour))

	_, err := repo.Decide(ctx, decided.ID, Decision{Status: enums.EntryStatusApproved, ReviewerID: uuid.New(), DecidedAt: fixedToday})
	require.NoError(t, err)

	rows, err := repo.ListPendingCreatedBefore(ctx, fixedToday.Add(-72*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, old.ID, rows[0].ID)
}
