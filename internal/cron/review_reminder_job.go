package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/entrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	"github.com/angelmondragon/entrydesk-backend/pkg/logger"
	"github.com/angelmondragon/entrydesk-backend/pkg/outbox"
	"github.com/angelmondragon/entrydesk-backend/pkg/outbox/payloads"
)

const (
	defaultReviewSLA     = 72 * time.Hour
	defaultReminderBatch = 200
)

type ReviewReminderJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Entries   pendingEntryLister
	Outbox    onceEmitter
	SLA       time.Duration
	BatchSize int
}

type pendingEntryLister interface {
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Entry, error)
}

type onceEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// NewReviewReminderJob queues one entry_review_overdue event per entry that
// has stayed PENDING longer than the SLA.
func NewReviewReminderJob(params ReviewReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Entries == nil {
		return nil, fmt.Errorf("entry repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	sla := params.SLA
	if sla <= 0 {
		sla = defaultReviewSLA
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultReminderBatch
	}
	return &reviewReminderJob{
		logg:    params.Logger,
		db:      params.DB,
		entries: params.Entries,
		outbox:  params.Outbox,
		sla:     sla,
		batch:   batch,
		now:     time.Now,
	}, nil
}

type reviewReminderJob struct {
	logg    *logger.Logger
	db      txRunner
	entries pendingEntryLister
	outbox  onceEmitter
	sla     time.Duration
	batch   int
	now     func() time.Time
}

func (j *reviewReminderJob) Name() string { return "entry-review-reminder" }

func (j *reviewReminderJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	cutoff := now.Add(-j.sla)
	pending, err := j.entries.ListPendingCreatedBefore(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("query overdue entries: %w", err)
	}

	var errs error
	queued := 0
	for _, entry := range pending {
		event := outbox.DomainEvent{
			EventType:     enums.EventEntryReviewOverdue,
			AggregateType: enums.AggregateEntry,
			AggregateID:   entry.ID,
			OccurredAt:    now,
			Data: payloads.EntryReviewOverdueEvent{
				EntryID:     entry.ID,
				OwnerID:     entry.OwnerID,
				SubmittedAt: entry.CreatedAt,
				PendingFor:  now.Sub(entry.CreatedAt).Truncate(time.Minute).String(),
			},
		}
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			return j.outbox.EmitIfNotExists(ctx, tx, event)
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("entry %s: %w", entry.ID, err))
			continue
		}
		queued++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"overdue": len(pending),
		"checked": queued,
		"failed":  len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "review reminder loop complete")
	return errs
}
