package drafts

import (
	"context"
	"fmt"
	"time"

	"github.com/quayline/stockdesk-backend/internal/upstream"
	pkgerrors "github.com/quayline/stockdesk-backend/pkg/errors"
	"github.com/quayline/stockdesk-backend/pkg/logger"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// relocationReason marks both halves of a relocation move in the
// backend records, matching what the record views filter on.
const relocationReason = "移位"

// outgoingDefaultReason is what the outgoing reason field resets to
// after a successful add.
const outgoingDefaultReason = "生产"

type stockReader interface {
	Stock(ctx context.Context) ([]upstream.StockLot, error)
}

type batchWriter interface {
	RecordIncoming(ctx context.Context, line upstream.IncomingLine) error
	RecordOutgoing(ctx context.Context, line upstream.OutgoingLine) error
}

// Service manages the per-tenant draft lists.
type Service interface {
	Lines(ctx context.Context, tenantID int, kind Kind) ([]Line, error)
	AddLine(ctx context.Context, tenantID int, kind Kind, line Line) (*AddResult, error)
	RemoveLine(ctx context.Context, tenantID int, kind Kind, index int) ([]Line, error)
	ConfirmBatch(ctx context.Context, tenantID int, kind Kind) (*Receipt, error)
	DeliveryNote(ctx context.Context, tenant upstream.Merchant) (*DeliveryNote, error)
}

type service struct {
	store  Storage
	stock  stockReader
	writer batchWriter
	now    func() time.Time
	logg   *logger.Logger
}

// ServiceParams wires the service dependencies.
type ServiceParams struct {
	Store  Storage
	Stock  stockReader
	Writer batchWriter
	Now    func() time.Time
	Logger *logger.Logger
}

// NewService builds the draft service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("draft storage required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock reader required")
	}
	if params.Writer == nil {
		return nil, fmt.Errorf("batch writer required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		store:  params.Store,
		stock:  params.Stock,
		writer: params.Writer,
		now:    params.Now,
		logg:   params.Logger,
	}, nil
}

// Lines reads the persisted list at workflow activation.
func (s *service) Lines(ctx context.Context, tenantID int, kind Kind) ([]Line, error) {
	lines, err := s.store.Load(ctx, tenantID, kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load draft list")
	}
	if lines == nil {
		lines = []Line{}
	}
	return lines, nil
}

// AddLine validates a candidate line and appends it. Checks run in a
// fixed order with the first failure winning: required fields, positive
// quantity, a fresh-stock match for lines that take stock out, then the
// duplicate check against the current list.
func (s *service) AddLine(ctx context.Context, tenantID int, kind Kind, line Line) (*AddResult, error) {
	if err := validateRequired(kind, line); err != nil {
		return nil, err
	}
	if line.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}

	if kind != KindIncoming {
		matched, err := s.matchLot(ctx, kind, line)
		if err != nil {
			return nil, err
		}
		// Snapshot the lot's identifying fields onto the line so the
		// eventual writes target exactly what was validated.
		line.BatchNumber = matched.BatchNumber
		line.ExpiryDate = matched.ExpiryDate
		if kind == KindRelocation {
			line.OldLocation = matched.Location
		} else {
			line.Location = matched.Location
		}
		if line.ProductName == "" {
			line.ProductName = matched.Name
		}
	}

	lines, err := s.store.Load(ctx, tenantID, kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load draft list")
	}
	for _, existing := range lines {
		if existing.ProductID == line.ProductID &&
			existing.BoxSpec == line.BoxSpec &&
			existing.sourceLocation(kind) == line.sourceLocation(kind) {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicateLine, "this product and spec is already in the draft list")
		}
	}

	lines = append(lines, line)
	if err := s.store.Save(ctx, tenantID, kind, lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save draft list")
	}

	return &AddResult{Lines: lines, Defaults: s.defaults(kind)}, nil
}

// RemoveLine drops one line by position and re-persists the list.
func (s *service) RemoveLine(ctx context.Context, tenantID int, kind Kind, index int) ([]Line, error) {
	lines, err := s.store.Load(ctx, tenantID, kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load draft list")
	}
	if index < 0 || index >= len(lines) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line index out of range")
	}

	lines = append(lines[:index], lines[index+1:]...)
	if err := s.store.Save(ctx, tenantID, kind, lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save draft list")
	}
	return lines, nil
}

// ConfirmBatch submits every pending line to the backend. Incoming and
// outgoing lines go out concurrently and all settle before the result is
// judged; relocation runs its two halves in order within each line. Any
// failure leaves both the in-memory and the persisted list untouched —
// writes that already landed are not compensated, the user reconciles
// against the records view.
func (s *service) ConfirmBatch(ctx context.Context, tenantID int, kind Kind) (*Receipt, error) {
	lines, err := s.store.Load(ctx, tenantID, kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load draft list")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "draft list is empty")
	}

	lineErrs := make([]error, len(lines))
	var g errgroup.Group
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			lineErrs[i] = s.submitLine(ctx, kind, line)
			return nil
		})
	}
	_ = g.Wait()

	if combined := multierr.Combine(lineErrs...); combined != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, combined, "some operations failed")
	}

	if err := s.store.Delete(ctx, tenantID, kind); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear draft list")
	}
	if s.logg != nil {
		s.logg.Info(ctx, fmt.Sprintf("confirmed %s batch of %d lines", kind, len(lines)))
	}

	return buildReceipt(kind, lines), nil
}

// DeliveryNote summarizes the pending outgoing list for printing.
func (s *service) DeliveryNote(ctx context.Context, tenant upstream.Merchant) (*DeliveryNote, error) {
	lines, err := s.store.Load(ctx, tenant.ID, KindOutgoing)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load draft list")
	}

	note := &DeliveryNote{Merchant: tenant, Rows: []DeliveryNoteRow{}}
	for _, line := range lines {
		note.Rows = append(note.Rows, DeliveryNoteRow{
			ProductName: line.ProductName,
			Location:    line.Location,
			BoxSpec:     line.BoxSpec,
			Quantity:    line.Quantity,
			BatchNumber: line.BatchNumber,
			ExpiryDate:  line.ExpiryDate,
		})
		note.TotalBoxes += line.Quantity
	}
	return note, nil
}

// matchLot re-reads the stock list and finds the exact lot the user
// selected. A missing or depleted match is the stale-stock case, asking
// the user to reselect.
func (s *service) matchLot(ctx context.Context, kind Kind, line Line) (*upstream.StockLot, error) {
	lots, err := s.stock.Stock(ctx)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "load stock for validation")
	}

	location := line.sourceLocation(kind)
	for i := range lots {
		lot := &lots[i]
		if lot.ProductID != line.ProductID ||
			lot.BoxSpec != line.BoxSpec ||
			lot.Location != location ||
			!lot.ExpiryDate.Equal(line.ExpiryDate) ||
			lot.Quantity <= 0 {
			continue
		}
		if line.Quantity > lot.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds available stock")
		}
		return lot, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeStaleStock, "selected stock no longer available, please reselect")
}

func (s *service) submitLine(ctx context.Context, kind Kind, line Line) error {
	switch kind {
	case KindIncoming:
		return s.writer.RecordIncoming(ctx, upstream.IncomingLine{
			ProductID:      line.ProductID,
			BoxSpec:        line.BoxSpec,
			Quantity:       line.Quantity,
			BatchNumber:    line.BatchNumber,
			IncomingReason: line.IncomingReason,
			ExpiryDate:     line.ExpiryDate,
			Location:       line.Location,
		})
	case KindOutgoing:
		return s.writer.RecordOutgoing(ctx, upstream.OutgoingLine{
			ProductID:      line.ProductID,
			BoxSpec:        line.BoxSpec,
			Quantity:       line.Quantity,
			OutgoingReason: line.OutgoingReason,
			Location:       line.Location,
			BatchNumber:    line.BatchNumber,
			ExpiryDate:     line.ExpiryDate,
		})
	case KindRelocation:
		// The outgoing half against the source slot must land before
		// the incoming half toward the destination is attempted.
		err := s.writer.RecordOutgoing(ctx, upstream.OutgoingLine{
			ProductID:      line.ProductID,
			BoxSpec:        line.BoxSpec,
			Quantity:       line.Quantity,
			OutgoingReason: relocationReason,
			Location:       line.OldLocation,
			BatchNumber:    line.BatchNumber,
			ExpiryDate:     line.ExpiryDate,
		})
		if err != nil {
			return err
		}
		return s.writer.RecordIncoming(ctx, upstream.IncomingLine{
			ProductID:      line.ProductID,
			BoxSpec:        line.BoxSpec,
			Quantity:       line.Quantity,
			BatchNumber:    line.BatchNumber,
			IncomingReason: relocationReason,
			ExpiryDate:     line.ExpiryDate,
			Location:       line.NewLocation,
		})
	}
	return fmt.Errorf("unknown draft kind %q", kind)
}

func validateRequired(kind Kind, line Line) error {
	missing := func(field string) error {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is required", field))
	}
	if line.ProductID == "" {
		return missing("product")
	}
	if line.BoxSpec == "" {
		return missing("box spec")
	}
	switch kind {
	case KindIncoming:
		if line.BatchNumber == "" {
			return missing("batch number")
		}
		if line.IncomingReason == "" {
			return missing("incoming reason")
		}
		if line.ExpiryDate.IsZero() {
			return missing("expiry date")
		}
		if line.Location == "" {
			return missing("location")
		}
	case KindOutgoing:
		if line.OutgoingReason == "" {
			return missing("outgoing reason")
		}
	case KindRelocation:
		if line.OldLocation == "" {
			return missing("old location")
		}
		if line.NewLocation == "" {
			return missing("new location")
		}
		if line.NewLocation == line.OldLocation {
			return pkgerrors.New(pkgerrors.CodeValidation, "new location must differ from the old location")
		}
	}
	return nil
}

// defaults reports the form fields that reset to computed values after
// an add: the incoming batch number restamps to today, the outgoing
// reason snaps back to its default.
func (s *service) defaults(kind Kind) Defaults {
	switch kind {
	case KindIncoming:
		return Defaults{BatchNumber: s.now().Format("20060102")}
	case KindOutgoing:
		return Defaults{Reason: outgoingDefaultReason}
	}
	return Defaults{}
}

func buildReceipt(kind Kind, lines []Line) *Receipt {
	receipt := &Receipt{Kind: kind}
	index := make(map[string]int)
	for _, line := range lines {
		i, ok := index[line.ProductID]
		if !ok {
			receipt.Products = append(receipt.Products, ReceiptProduct{
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
			})
			i = len(receipt.Products) - 1
			index[line.ProductID] = i
		}
		product := &receipt.Products[i]
		product.TotalQuantity += line.Quantity
		product.Lines = append(product.Lines, ReceiptLine{
			BoxSpec:     line.BoxSpec,
			Location:    line.sourceLocation(kind),
			Quantity:    line.Quantity,
			BatchNumber: line.BatchNumber,
			ExpiryDate:  line.ExpiryDate,
		})
		receipt.TotalBoxes += line.Quantity
	}
	receipt.ProductCount = len(receipt.Products)
	return receipt
}
