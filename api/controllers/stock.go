package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/quayline/stockdesk-backend/api/responses"
	"github.com/quayline/stockdesk-backend/api/validators"
	"github.com/quayline/stockdesk-backend/internal/stockview"
	"github.com/quayline/stockdesk-backend/internal/upstream"
	pkgerrors "github.com/quayline/stockdesk-backend/pkg/errors"
	"github.com/quayline/stockdesk-backend/pkg/logger"
)

const maxCategoryLen = 120

// StockList renders the aggregated stock view.
func StockList(svc stockview.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		sort, err := validators.ParseQueryEnum(r, "sort",
			string(stockview.SortByProductID),
			string(stockview.SortByProductID), string(stockview.SortByStockoutDate), string(stockview.SortByExpiryRisk))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dir, err := validators.ParseQueryEnum(r, "dir",
			string(stockview.SortAsc), string(stockview.SortAsc), string(stockview.SortDesc))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		includeSecondary, err := validators.ParseQueryBool(r, "include_secondary", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), stockview.Query{
			Category:             validators.QueryString(r, "category", maxCategoryLen),
			Sort:                 stockview.SortField(sort),
			Direction:            stockview.SortDirection(dir),
			IncludeSecondaryPool: includeSecondary,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type updateFieldRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Field     string          `json:"field" validate:"required,oneof=in_transit daily_consumption shenzhen_stock"`
	Value     decimal.Decimal `json:"value"`
}

// StockUpdateField writes one editable product-level value back through
// the upstream partial update.
func StockUpdateField(svc stockview.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		var payload updateFieldRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err := svc.UpdateField(r.Context(), stockview.UpdateFieldInput{
			ProductID: payload.ProductID,
			Field:     stockview.EditableField(payload.Field),
			Value:     payload.Value,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"updated": true})
	}
}

// StockRelocator is the single-move passthrough the relocate modal uses.
type StockRelocator interface {
	Relocate(ctx context.Context, req upstream.RelocateRequest) error
}

type relocateRequest struct {
	ProductID    string        `json:"product_id" validate:"required"`
	BoxSpec      string        `json:"box_spec" validate:"required"`
	BatchNumber  string        `json:"batch_number,omitempty"`
	ExpiryDate   upstream.Date `json:"expiry_date"`
	FromLocation string        `json:"from_location"`
	ToLocation   string        `json:"to_location" validate:"required"`
	Quantity     int           `json:"quantity" validate:"gt=0"`
}

// StockRelocate performs one immediate move, bypassing the draft list.
// Stock arithmetic stays upstream; the gateway only vets the shape.
func StockRelocate(relocator StockRelocator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if relocator == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "relocate service unavailable"))
			return
		}

		var payload relocateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err := relocator.Relocate(r.Context(), upstream.RelocateRequest{
			ProductID:    payload.ProductID,
			BoxSpec:      payload.BoxSpec,
			BatchNumber:  payload.BatchNumber,
			ExpiryDate:   payload.ExpiryDate,
			FromLocation: payload.FromLocation,
			ToLocation:   payload.ToLocation,
			Quantity:     payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"relocated": true})
	}
}

// ProductLister backs the product select boxes.
type ProductLister interface {
	Products(ctx context.Context) ([]upstream.Product, error)
}

// ProductList passes the upstream product catalog through for the
// workflow select boxes.
func ProductList(lister ProductLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lister == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		products, err := lister.Products(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}
