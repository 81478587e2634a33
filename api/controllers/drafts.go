package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quayline/stockdesk-backend/api/middleware"
	"github.com/quayline/stockdesk-backend/api/responses"
	"github.com/quayline/stockdesk-backend/api/validators"
	"github.com/quayline/stockdesk-backend/internal/drafts"
	"github.com/quayline/stockdesk-backend/internal/upstream"
	pkgerrors "github.com/quayline/stockdesk-backend/pkg/errors"
	"github.com/quayline/stockdesk-backend/pkg/logger"
)

func draftKind(r *http.Request) (drafts.Kind, error) {
	kind, err := drafts.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid draft kind")
	}
	return kind, nil
}

func requestTenant(r *http.Request) (upstream.Merchant, error) {
	tenant, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		return upstream.Merchant{}, pkgerrors.New(pkgerrors.CodeInternal, "tenant context missing")
	}
	return tenant, nil
}

// DraftList returns the persisted draft list for the active tenant;
// the workflow tabs call it on activation.
func DraftList(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := draftKind(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tenant, err := requestTenant(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.Lines(r.Context(), tenant.ID, kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lines)
	}
}

type addLineRequest struct {
	ProductID      string        `json:"product_id"`
	ProductName    string        `json:"product_name"`
	BoxSpec        string        `json:"box_spec"`
	Quantity       int           `json:"quantity"`
	BatchNumber    string        `json:"batch_number"`
	ExpiryDate     upstream.Date `json:"expiry_date"`
	Location       string        `json:"location"`
	IncomingReason string        `json:"incoming_reason"`
	OutgoingReason string        `json:"outgoing_reason"`
	OldLocation    string        `json:"old_location"`
	NewLocation    string        `json:"new_location"`
}

// DraftAddLine validates and appends one candidate line. Field presence
// and stock checks run in the service so their precedence stays in one
// place.
func DraftAddLine(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := draftKind(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tenant, err := requestTenant(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddLine(r.Context(), tenant.ID, kind, drafts.Line{
			ProductID:      payload.ProductID,
			ProductName:    payload.ProductName,
			BoxSpec:        payload.BoxSpec,
			Quantity:       payload.Quantity,
			BatchNumber:    payload.BatchNumber,
			ExpiryDate:     payload.ExpiryDate,
			Location:       payload.Location,
			IncomingReason: payload.IncomingReason,
			OutgoingReason: payload.OutgoingReason,
			OldLocation:    payload.OldLocation,
			NewLocation:    payload.NewLocation,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// DraftRemoveLine drops one pending line by position.
func DraftRemoveLine(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := draftKind(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tenant, err := requestTenant(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line index must be numeric"))
			return
		}

		lines, err := svc.RemoveLine(r.Context(), tenant.ID, kind, index)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lines)
	}
}

// DraftConfirm submits the whole pending list as a batch.
func DraftConfirm(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := draftKind(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tenant, err := requestTenant(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithWorkflow(ctx, string(kind))
		}

		receipt, err := svc.ConfirmBatch(ctx, tenant.ID, kind)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, receipt)
	}
}

// DraftDeliveryNote returns the printable summary of the pending
// outgoing list.
func DraftDeliveryNote(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := requestTenant(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		note, err := svc.DeliveryNote(r.Context(), tenant)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, note)
	}
}
