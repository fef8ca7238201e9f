package entries

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/entrydesk-backend/pkg/db"
	"github.com/angelmondragon/entrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	"github.com/angelmondragon/entrydesk-backend/pkg/migrate"
	"github.com/angelmondragon/entrydesk-backend/pkg/outbox"
	"github.com/angelmondragon/entrydesk-backend/pkg/types"
)

// fixedToday is the calendar day the test clock reports.
var fixedToday = time.Date(2023, 10, 15, 9, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, migrate.ApplySQLiteSchema(context.Background(), conn))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// testClock advances one millisecond per call so created_at values are distinct.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: fixedToday}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type fixture struct {
	conn  *gorm.DB
	repo  *Repository
	svc   Service
	clock *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := newTestDB(t)
	return newFixtureWithEmitter(t, conn, outbox.NewService(outbox.NewRepository(conn), nil))
}

func newFixtureWithEmitter(t *testing.T, conn *gorm.DB, emitter outbox.Emitter) *fixture {
	t.Helper()
	repo := NewRepository(conn)
	clock := newTestClock()
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		TxRunner: db.Wrap(conn),
		Outbox:   emitter,
		Clock:    clock.Now,
	})
	require.NoError(t, err)
	return &fixture{conn: conn, repo: repo, svc: svc, clock: clock}
}

func userPrincipal() Principal {
	return Principal{ID: uuid.New(), Role: enums.UserRoleUser}
}

func adminPrincipal() Principal {
	return Principal{ID: uuid.New(), Role: enums.UserRoleAdmin}
}

func mustDate(t *testing.T, value string) types.Date {
	t.Helper()
	d, err := types.ParseDate(value)
	require.NoError(t, err)
	return d
}

func validInput(t *testing.T, date string) CreateEntryInput {
	t.Helper()
	return CreateEntryInput{
		Amount:    decimal.RequireFromString("100.00"),
		EntryDate: mustDate(t, date),
		Category:  enums.EntryCategoryPersonal,
	}
}

func countOutbox(t *testing.T, conn *gorm.DB, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func countEntries(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.Entry{}).Count(&n).Error)
	return n
}

type failingEmitter struct{}

func (failingEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return fmt.Errorf("outbox unavailable")
}

func (failingEmitter) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return fmt.Errorf("outbox unavailable")
}
