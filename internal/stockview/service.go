// Package stockview owns the stock list: grouping per-lot rows into
// per-product aggregates, projecting stockout and expiry risk, and
// writing back the editable product-level fields.
package stockview

import (
	"context"
	"fmt"
	"time"

	"github.com/quayline/stockdesk-backend/internal/upstream"
	"github.com/quayline/stockdesk-backend/pkg/config"
	pkgerrors "github.com/quayline/stockdesk-backend/pkg/errors"
	"github.com/quayline/stockdesk-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type stockFetcher interface {
	Stock(ctx context.Context) ([]upstream.StockLot, error)
	SecondaryStock(ctx context.Context) ([]upstream.StockLot, error)
}

type fieldWriter interface {
	UpdateStockFields(ctx context.Context, update upstream.StockFieldUpdate) error
}

// Service exposes the stock list view operations.
type Service interface {
	List(ctx context.Context, query Query) (*ListResult, error)
	UpdateField(ctx context.Context, input UpdateFieldInput) error
}

type service struct {
	stock      stockFetcher
	writer     fieldWriter
	thresholds config.RiskConfig
	now        func() time.Time
	logg       *logger.Logger
}

// ServiceParams wires the service dependencies.
type ServiceParams struct {
	Stock      stockFetcher
	Writer     fieldWriter
	Thresholds config.RiskConfig
	Now        func() time.Time
	Logger     *logger.Logger
}

// NewService builds the stock view service.
func NewService(params ServiceParams) (Service, error) {
	if params.Stock == nil {
		return nil, fmt.Errorf("stock fetcher required")
	}
	if params.Writer == nil {
		return nil, fmt.Errorf("field writer required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		stock:      params.Stock,
		writer:     params.Writer,
		thresholds: params.Thresholds,
		now:        params.Now,
		logg:       params.Logger,
	}, nil
}

// Compose builds the full list from already-fetched pools. It is a pure
// function of its arguments: same lots, query and day always produce the
// same output.
func Compose(primary, secondary []upstream.StockLot, query Query, thresholds config.RiskConfig, today time.Time) ListResult {
	products := aggregate(primary, secondary, query.Category)
	classify(products, thresholds, midnight(today), query.IncludeSecondaryPool)
	sortProducts(products, query.Sort, query.Direction)
	return ListResult{
		Products:   products,
		Categories: categoriesOf(primary, secondary),
	}
}

// List fetches both pools and composes the view. This is the terminal
// failure handler for the stock list: any error comes back as a typed
// error for the caller to render, never a panic or a raw transport
// error.
func (s *service) List(ctx context.Context, query Query) (*ListResult, error) {
	if query.Sort == "" {
		query.Sort = SortByProductID
	}
	if query.Direction == "" {
		query.Direction = SortAsc
	}

	var primary, secondary []upstream.StockLot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lots, err := s.stock.Stock(gctx)
		if err != nil {
			return err
		}
		primary = lots
		return nil
	})
	g.Go(func() error {
		lots, err := s.stock.SecondaryStock(gctx)
		if err != nil {
			return err
		}
		secondary = lots
		return nil
	})
	if err := g.Wait(); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "load stock")
	}

	result := Compose(primary, secondary, query, s.thresholds, s.now())
	return &result, nil
}

// UpdateFieldInput is one editable-cell write-back.
type UpdateFieldInput struct {
	ProductID string
	Field     EditableField
	Value     decimal.Decimal
}

// UpdateField validates the value and sends a partial update keyed by
// product id only; untouched fields stay out of the payload. On failure
// nothing is retained locally, the caller re-renders from the pre-edit
// state.
func (s *service) UpdateField(ctx context.Context, input UpdateFieldInput) error {
	if input.ProductID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Value.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "value must be non-negative")
	}

	update := upstream.StockFieldUpdate{ProductID: input.ProductID}
	switch input.Field {
	case FieldDailyConsumption:
		value := input.Value
		update.DailyConsumption = &value
	case FieldInTransit:
		value, err := wholeNumber(input.Value)
		if err != nil {
			return err
		}
		update.InTransit = &value
	case FieldShenzhenStock:
		value, err := wholeNumber(input.Value)
		if err != nil {
			return err
		}
		update.ShenzhenStock = &value
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("field %q is not editable", input.Field))
	}

	if err := s.writer.UpdateStockFields(ctx, update); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "update stock field")
	}
	return nil
}

func wholeNumber(value decimal.Decimal) (int, error) {
	if !value.IsInteger() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "value must be a whole number")
	}
	return int(value.IntPart()), nil
}
