package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/quayline/stockdesk-backend/api/middleware"
	"github.com/quayline/stockdesk-backend/internal/drafts"
	"github.com/quayline/stockdesk-backend/internal/upstream"
	pkgerrors "github.com/quayline/stockdesk-backend/pkg/errors"
	"github.com/quayline/stockdesk-backend/pkg/types"
)

type stubDraftService struct {
	gotTenantID int
	gotKind     drafts.Kind
	gotLine     drafts.Line
	gotIndex    int

	lines   []drafts.Line
	receipt *drafts.Receipt
	note    *drafts.DeliveryNote
	err     error
}

func (s *stubDraftService) Lines(ctx context.Context, tenantID int, kind drafts.Kind) ([]drafts.Line, error) {
	s.gotTenantID, s.gotKind = tenantID, kind
	return s.lines, s.err
}

func (s *stubDraftService) AddLine(ctx context.Context, tenantID int, kind drafts.Kind, line drafts.Line) (*drafts.AddResult, error) {
	s.gotTenantID, s.gotKind, s.gotLine = tenantID, kind, line
	if s.err != nil {
		return nil, s.err
	}
	return &drafts.AddResult{Lines: append(s.lines, line)}, nil
}

func (s *stubDraftService) RemoveLine(ctx context.Context, tenantID int, kind drafts.Kind, index int) ([]drafts.Line, error) {
	s.gotTenantID, s.gotKind, s.gotIndex = tenantID, kind, index
	return s.lines, s.err
}

func (s *stubDraftService) ConfirmBatch(ctx context.Context, tenantID int, kind drafts.Kind) (*drafts.Receipt, error) {
	s.gotTenantID, s.gotKind = tenantID, kind
	return s.receipt, s.err
}

func (s *stubDraftService) DeliveryNote(ctx context.Context, tenant upstream.Merchant) (*drafts.DeliveryNote, error) {
	s.gotTenantID = tenant.ID
	return s.note, s.err
}

func draftRouter(svc drafts.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithTenant(req.Context(), upstream.Merchant{ID: 7, Name: "depot"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/api/v1/drafts/outgoing/delivery-note", DraftDeliveryNote(svc, nil))
	r.Get("/api/v1/drafts/{kind}", DraftList(svc, nil))
	r.Post("/api/v1/drafts/{kind}/lines", DraftAddLine(svc, nil))
	r.Delete("/api/v1/drafts/{kind}/lines/{index}", DraftRemoveLine(svc, nil))
	r.Post("/api/v1/drafts/{kind}/confirm", DraftConfirm(svc, nil))
	return r
}

func TestDraftListScopesTenantAndKind(t *testing.T) {
	t.Parallel()

	svc := &stubDraftService{lines: []drafts.Line{{ProductID: "P1"}}}
	router := draftRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/drafts/incoming", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.gotTenantID != 7 || svc.gotKind != drafts.KindIncoming {
		t.Fatalf("unexpected scoping: tenant=%d kind=%s", svc.gotTenantID, svc.gotKind)
	}
}

func TestDraftListRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	router := draftRouter(&stubDraftService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/drafts/returns", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDraftAddLine(t *testing.T) {
	t.Parallel()

	svc := &stubDraftService{}
	router := draftRouter(svc)

	body := `{"product_id":"P1","product_name":"widget","box_spec":"24","quantity":3,"batch_number":"20260801","incoming_reason":"采购","expiry_date":"2028-08-01","location":"A-01"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/drafts/incoming/lines", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotLine.ProductID != "P1" || svc.gotLine.Quantity != 3 || svc.gotLine.IncomingReason != "采购" {
		t.Fatalf("unexpected line: %+v", svc.gotLine)
	}
}

func TestDraftAddLineSurfacesDuplicate(t *testing.T) {
	t.Parallel()

	svc := &stubDraftService{err: pkgerrors.New(pkgerrors.CodeDuplicateLine, "this product and spec is already in the draft list")}
	router := draftRouter(svc)

	body := `{"product_id":"P1","box_spec":"24","quantity":3}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/drafts/incoming/lines", strings.NewReader(body)))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeDuplicateLine) {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
}

func TestDraftRemoveLine(t *testing.T) {
	t.Parallel()

	svc := &stubDraftService{}
	router := draftRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/v1/drafts/outgoing/lines/2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.gotIndex != 2 || svc.gotKind != drafts.KindOutgoing {
		t.Fatalf("unexpected removal: index=%d kind=%s", svc.gotIndex, svc.gotKind)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/v1/drafts/outgoing/lines/two", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric index must be 400, got %d", rec.Code)
	}
}

func TestDraftConfirm(t *testing.T) {
	t.Parallel()

	svc := &stubDraftService{receipt: &drafts.Receipt{Kind: drafts.KindIncoming, ProductCount: 1, TotalBoxes: 3}}
	router := draftRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/drafts/incoming/confirm", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data drafts.Receipt `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if envelope.Data.TotalBoxes != 3 {
		t.Fatalf("unexpected receipt: %+v", envelope.Data)
	}
}

func TestDraftConfirmEmptyListIsUserError(t *testing.T) {
	t.Parallel()

	svc := &stubDraftService{err: pkgerrors.New(pkgerrors.CodeValidation, "draft list is empty")}
	router := draftRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/drafts/outgoing/confirm", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDraftDeliveryNote(t *testing.T) {
	t.Parallel()

	svc := &stubDraftService{note: &drafts.DeliveryNote{
		Merchant:   upstream.Merchant{ID: 7, Name: "depot"},
		Rows:       []drafts.DeliveryNoteRow{{ProductName: "widget", Quantity: 2}},
		TotalBoxes: 2,
	}}
	router := draftRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/drafts/outgoing/delivery-note", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data drafts.DeliveryNote `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if envelope.Data.Merchant.Name != "depot" || envelope.Data.TotalBoxes != 2 {
		t.Fatalf("unexpected note: %+v", envelope.Data)
	}
}
