package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/entrydesk-backend/api/responses"
	"github.com/angelmondragon/entrydesk-backend/api/validators"
	"github.com/angelmondragon/entrydesk-backend/internal/entries"
	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/entrydesk-backend/pkg/errors"
	"github.com/angelmondragon/entrydesk-backend/pkg/logger"
	"github.com/angelmondragon/entrydesk-backend/pkg/pagination"
	"github.com/angelmondragon/entrydesk-backend/pkg/types"
)

const (
	entryIDParam   = "entryId"
	maxSearchRunes = 200
)

// createEntryRequest has no owner or status fields; unknown fields are rejected
// by the decoder so clients cannot smuggle them in.
type createEntryRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	EntryDate   types.Date      `json:"entry_date"`
	Description string          `json:"description" validate:"max=2000"`
	Category    string          `json:"category"`
}

type updateEntryRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	EntryDate   *types.Date      `json:"entry_date"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Category    *string          `json:"category"`
}

type rejectEntryRequest struct {
	RejectionReason string `json:"rejection_reason"`
}

func normalizeCategory(raw string) enums.EntryCategory {
	return enums.EntryCategory(strings.ToUpper(strings.TrimSpace(raw)))
}

// ListEntries returns the caller's visible entries filtered by status, category,
// owner_id and search, ordered by created_at.
func ListEntries(svc entries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entries service unavailable"))
			return
		}
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		var filters entries.ListFilters

		if raw := strings.TrimSpace(query.Get("status")); raw != "" {
			status, err := enums.ParseEntryStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").
					WithDetails(map[string]string{"status": "must be one of PENDING, APPROVED, REJECTED"}))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(query.Get("category")); raw != "" {
			category, err := enums.ParseEntryCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category").
					WithDetails(map[string]string{"category": "must be one of PERSONAL, WORK, EDUCATION"}))
				return
			}
			filters.Category = &category
		}
		ownerID, err := validators.ParseQueryUUID(r, "owner_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.OwnerID = ownerID
		filters.Search = validators.SanitizeString(query.Get("search"), maxSearchRunes)

		ordering, err := entries.ParseOrdering(query.Get("ordering"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.Ordering = ordering

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), principal, entries.ListEntriesInput{
			Filters: filters,
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(query.Get("cursor")),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// CreateEntry submits a new PENDING entry owned by the caller.
func CreateEntry(svc entries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entries service unavailable"))
			return
		}
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createEntryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Create(r.Context(), principal, entries.CreateEntryInput{
			Amount:      body.Amount,
			EntryDate:   body.EntryDate,
			Description: body.Description,
			Category:    normalizeCategory(body.Category),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

func GetEntry(svc entries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entries service unavailable"))
			return
		}
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseURLUUID(r, entryIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Get(r.Context(), principal, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

// UpdateEntry edits the content of a PENDING entry.
func UpdateEntry(svc entries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entries service unavailable"))
			return
		}
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseURLUUID(r, entryIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateEntryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := entries.UpdateEntryInput{
			Amount:      body.Amount,
			EntryDate:   body.EntryDate,
			Description: body.Description,
		}
		if body.Category != nil {
			category := normalizeCategory(*body.Category)
			input.Category = &category
		}

		entry, err := svc.Update(r.Context(), principal, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

func DeleteEntry(svc entries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entries service unavailable"))
			return
		}
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseURLUUID(r, entryIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), principal, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// ApproveEntry records an admin approval. The request body is ignored.
func ApproveEntry(svc entries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entries service unavailable"))
			return
		}
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseURLUUID(r, entryIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Approve(r.Context(), principal, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

// RejectEntry records an admin rejection with the reason from the body.
func RejectEntry(svc entries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entries service unavailable"))
			return
		}
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseURLUUID(r, entryIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body rejectEntryRequest
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Reject(r.Context(), principal, id, body.RejectionReason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}
