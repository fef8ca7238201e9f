package entries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/entrydesk-backend/pkg/db"
	"github.com/angelmondragon/entrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/entrydesk-backend/pkg/errors"
	"github.com/angelmondragon/entrydesk-backend/pkg/logger"
	"github.com/angelmondragon/entrydesk-backend/pkg/metrics"
	"github.com/angelmondragon/entrydesk-backend/pkg/outbox"
	"github.com/angelmondragon/entrydesk-backend/pkg/pagination"
	"github.com/angelmondragon/entrydesk-backend/pkg/types"
	"github.com/angelmondragon/entrydesk-backend/pkg/visibility"
)

// Service is the entry workflow engine. Every operation takes the caller explicitly.
type Service interface {
	Create(ctx context.Context, p Principal, input CreateEntryInput) (*EntryDTO, error)
	List(ctx context.Context, p Principal, input ListEntriesInput) (*types.Page[EntryDTO], error)
	Get(ctx context.Context, p Principal, id uuid.UUID) (*EntryDTO, error)
	Update(ctx context.Context, p Principal, id uuid.UUID, input UpdateEntryInput) (*EntryDTO, error)
	Delete(ctx context.Context, p Principal, id uuid.UUID) error
	Approve(ctx context.Context, p Principal, id uuid.UUID) (*EntryDTO, error)
	Reject(ctx context.Context, p Principal, id uuid.UUID, reason string) (*EntryDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the dependencies of the entry service.
type ServiceParams struct {
	Repo     *Repository
	TxRunner txRunner
	Outbox   outbox.Emitter
	Metrics  *metrics.EntryMetrics
	Logger   *logger.Logger
	// Clock defaults to time.Now in UTC.
	Clock func() time.Time
}

type service struct {
	repo    *Repository
	tx      txRunner
	outbox  outbox.Emitter
	metrics *metrics.EntryMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("entry repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:    params.Repo,
		tx:      params.TxRunner,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     clock,
	}, nil
}

func (s *service) today() types.Date {
	return types.NewDate(s.now())
}

func (s *service) Create(ctx context.Context, p Principal, input CreateEntryInput) (*EntryDTO, error) {
	category := input.Category
	if category == "" {
		category = enums.DefaultEntryCategory
	}

	var errs fieldErrors
	validateAmount(&errs, input.Amount)
	validateEntryDate(&errs, input.EntryDate, s.today())
	validateCategory(&errs, category)
	if err := errs.err(); err != nil {
		s.observe("submit", err)
		return nil, err
	}

	now := s.now()
	entry := &models.Entry{
		ID:          uuid.New(),
		OwnerID:     p.ID,
		Amount:      input.Amount,
		EntryDate:   input.EntryDate.Time,
		Description: strings.TrimSpace(input.Description),
		Category:    category,
		Status:      enums.EntryStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		exists, err := txRepo.ExistsForOwnerOnDate(ctx, p.ID, entry.EntryDate, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check entry date")
		}
		if exists {
			return duplicateDateError()
		}
		if err := txRepo.Create(ctx, entry); err != nil {
			if isDuplicateDate(err) {
				return duplicateDateError()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert entry")
		}
		if err := s.outbox.Emit(ctx, tx, submittedEvent(p, entry)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "outbox: entry submitted")
		}
		return nil
	})
	s.observe("submit", err)
	if err != nil {
		return nil, err
	}

	s.info(ctx, entry.ID, p, "entry.submitted")
	return FromModel(entry), nil
}

func (s *service) List(ctx context.Context, p Principal, input ListEntriesInput) (*types.Page[EntryDTO], error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(input.Pagination.Limit)

	rows, err := s.repo.List(ctx, p.Scope(), ListQuery{
		Filters: input.Filters,
		Cursor:  cursor,
		Limit:   limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list entries")
	}

	rows, next := pagination.Trim(rows, limit, func(e models.Entry) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
	})
	return &types.Page[EntryDTO]{Items: fromModels(rows), NextCursor: next}, nil
}

func (s *service) Get(ctx context.Context, p Principal, id uuid.UUID) (*EntryDTO, error) {
	entry, err := loadVisible(ctx, s.repo, p.Scope(), id)
	if err != nil {
		return nil, err
	}
	return FromModel(entry), nil
}

func (s *service) Update(ctx context.Context, p Principal, id uuid.UUID, input UpdateEntryInput) (*EntryDTO, error) {
	var updated *models.Entry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		entry, err := loadVisible(ctx, txRepo, p.Scope(), id)
		if err != nil {
			return err
		}
		if entry.Status != enums.EntryStatusPending {
			return notPendingError("edited")
		}
		if input.empty() {
			updated = entry
			return nil
		}

		amount := entry.Amount
		if input.Amount != nil {
			amount = *input.Amount
		}
		date := types.NewDate(entry.EntryDate)
		if input.EntryDate != nil {
			date = *input.EntryDate
		}
		category := entry.Category
		if input.Category != nil {
			category = *input.Category
		}

		var errs fieldErrors
		validateAmount(&errs, amount)
		validateEntryDate(&errs, date, s.today())
		validateCategory(&errs, category)
		if err := errs.err(); err != nil {
			return err
		}

		exists, err := txRepo.ExistsForOwnerOnDate(ctx, entry.OwnerID, date.Time, &entry.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check entry date")
		}
		if exists {
			return duplicateDateError()
		}

		changes := map[string]any{
			"amount":     amount,
			"entry_date": date.Time,
			"category":   category,
			"updated_at": s.now(),
		}
		if input.Description != nil {
			changes["description"] = strings.TrimSpace(*input.Description)
		}
		rows, err := txRepo.UpdatePending(ctx, entry.ID, changes)
		if err != nil {
			if isDuplicateDate(err) {
				return duplicateDateError()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update entry")
		}
		if rows == 0 {
			return notPendingError("edited")
		}

		updated, err = txRepo.FindByID(ctx, entry.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, p Principal, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		entry, err := loadVisible(ctx, txRepo, p.Scope(), id)
		if err != nil {
			return err
		}
		onlyPending := !p.IsAdmin()
		if onlyPending && entry.Status != enums.EntryStatusPending {
			return notPendingError("deleted")
		}
		rows, err := txRepo.Delete(ctx, entry.ID, onlyPending)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete entry")
		}
		if rows == 0 {
			if onlyPending {
				return notPendingError("deleted")
			}
			return pkgerrors.New(pkgerrors.CodeNotFound, "entry not found")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.info(ctx, id, p, "entry.deleted")
	return nil
}

func (s *service) Approve(ctx context.Context, p Principal, id uuid.UUID) (*EntryDTO, error) {
	if !p.IsAdmin() {
		err := pkgerrors.New(pkgerrors.CodeForbidden, "only administrators can approve entries")
		s.observe("approve", err)
		return nil, err
	}
	return s.decide(ctx, p, id, enums.EntryStatusApproved, nil)
}

func (s *service) Reject(ctx context.Context, p Principal, id uuid.UUID, reason string) (*EntryDTO, error) {
	if !p.IsAdmin() {
		err := pkgerrors.New(pkgerrors.CodeForbidden, "only administrators can reject entries")
		s.observe("reject", err)
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		err := pkgerrors.New(pkgerrors.CodeValidation, msgReasonRequired).
			WithDetails(map[string]string{"rejection_reason": msgReasonRequired})
		s.observe("reject", err)
		return nil, err
	}
	return s.decide(ctx, p, id, enums.EntryStatusRejected, &reason)
}

// decide runs the PENDING -> terminal transition. The lookup, the conditional
// update and the outbox write share one transaction.
func (s *service) decide(ctx context.Context, p Principal, id uuid.UUID, target enums.EntryStatus, reason *string) (*EntryDTO, error) {
	transition, verb := "approve", "approved"
	if target == enums.EntryStatusRejected {
		transition, verb = "reject", "rejected"
	}

	var decided *models.Entry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		entry, err := loadVisible(ctx, txRepo, p.Scope(), id)
		if err != nil {
			return err
		}
		if entry.Status != enums.EntryStatusPending {
			return notPendingError(verb)
		}

		decision := Decision{
			Status:          target,
			ReviewerID:      p.ID,
			DecidedAt:       s.now(),
			RejectionReason: reason,
		}
		rows, err := txRepo.Decide(ctx, entry.ID, decision)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: "+transition+" entry")
		}
		if rows == 0 {
			return notPendingError(verb)
		}
		if err := s.outbox.Emit(ctx, tx, decidedEvent(p, entry, decision)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "outbox: entry "+verb)
		}

		entry.Status = decision.Status
		entry.ReviewerID = &decision.ReviewerID
		entry.DecidedAt = &decision.DecidedAt
		entry.RejectionReason = decision.RejectionReason
		entry.UpdatedAt = decision.DecidedAt
		decided = entry
		return nil
	})
	s.observe(transition, err)
	if err != nil {
		return nil, err
	}

	s.info(ctx, decided.ID, p, "entry."+verb)
	return FromModel(decided), nil
}

type entryFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Entry, error)
}

// loadVisible applies the same scope as List so an id outside it reads as missing.
func loadVisible(ctx context.Context, repo entryFinder, scope visibility.EntryScope, id uuid.UUID) (*models.Entry, error) {
	entry, err := repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load entry")
	}
	if err := visibility.EnsureEntryVisible(scope, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func isDuplicateDate(err error) bool {
	return db.IsUniqueViolation(err, "ux_entries_owner_date", "entries.owner_id, entries.entry_date")
}

func (s *service) observe(transition string, err error) {
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case pkgerrors.IsCode(err, pkgerrors.CodeConflict):
		outcome = metrics.OutcomeConflict
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation),
		pkgerrors.IsCode(err, pkgerrors.CodeForbidden),
		pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		outcome = metrics.OutcomeInvalid
	default:
		outcome = metrics.OutcomeError
	}
	s.metrics.Observe(transition, outcome)
}

func (s *service) info(ctx context.Context, entryID uuid.UUID, p Principal, msg string) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithEntryID(ctx, entryID.String())
	ctx = s.logg.WithUserID(ctx, p.ID.String())
	ctx = s.logg.WithActorRole(ctx, string(p.Role))
	s.logg.Info(ctx, msg)
}
