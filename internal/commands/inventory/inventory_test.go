package inventorycmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-nestsync/internal/inventory"
	"github.com/goliatone/go-nestsync/internal/logging"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type stubInventoryService struct {
	usageRequests []inventory.LogUsageRequest
	usageErr      error
}

func (s *stubInventoryService) AddItem(context.Context, inventory.AddItemRequest) (*inventory.InventoryItem, error) {
	return nil, errors.New("not implemented")
}

func (s *stubInventoryService) GetItem(context.Context, uuid.UUID) (*inventory.InventoryItem, error) {
	return nil, errors.New("not implemented")
}

func (s *stubInventoryService) ListItems(context.Context, uuid.UUID) ([]*inventory.InventoryItem, error) {
	return nil, errors.New("not implemented")
}

func (s *stubInventoryService) UpdateItem(context.Context, inventory.UpdateItemRequest) (*inventory.InventoryItem, error) {
	return nil, errors.New("not implemented")
}

func (s *stubInventoryService) DeleteItem(context.Context, inventory.DeleteItemRequest) error {
	return errors.New("not implemented")
}

func (s *stubInventoryService) LogUsage(_ context.Context, req inventory.LogUsageRequest) (*inventory.UsageLog, error) {
	s.usageRequests = append(s.usageRequests, req)
	if s.usageErr != nil {
		return nil, s.usageErr
	}
	return &inventory.UsageLog{ID: uuid.New(), ChildID: req.ChildID, Kind: req.Kind}, nil
}

func (s *stubInventoryService) ListUsage(context.Context, uuid.UUID, time.Time) ([]*inventory.UsageLog, error) {
	return nil, errors.New("not implemented")
}

func (s *stubInventoryService) DeleteUsage(context.Context, inventory.DeleteUsageRequest) error {
	return errors.New("not implemented")
}

func (s *stubInventoryService) Projection(context.Context, uuid.UUID) ([]*inventory.StockProjection, error) {
	return nil, errors.New("not implemented")
}

func (s *stubInventoryService) ScanLowStock(context.Context) (int, error) {
	return 0, errors.New("not implemented")
}

type stubScanner struct {
	runs    int
	alerted int
	err     error
}

func (s *stubScanner) ScanLowStock(context.Context) (int, error) {
	s.runs++
	if s.err != nil {
		return 0, s.err
	}
	return s.alerted, nil
}

func TestLogUsageHandlerExecutesService(t *testing.T) {
	service := &stubInventoryService{}
	handler := NewLogUsageHandler(service, logging.NoOp())

	childID := uuid.New()
	loggedBy := uuid.New()
	occurredAt := time.Now().UTC().Add(-time.Minute)
	msg := LogUsageCommand{
		ChildID:    childID,
		Kind:       "soiled",
		OccurredAt: &occurredAt,
		LoggedBy:   loggedBy,
	}

	if err := handler.Execute(context.Background(), msg); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(service.usageRequests) != 1 {
		t.Fatalf("expected one usage request, got %d", len(service.usageRequests))
	}
	req := service.usageRequests[0]
	if req.ChildID != childID {
		t.Fatalf("expected child id %s, got %s", childID, req.ChildID)
	}
	if req.Kind != inventory.UsageSoiled {
		t.Fatalf("expected soiled kind, got %s", req.Kind)
	}
	if req.LoggedBy != loggedBy {
		t.Fatalf("expected logged_by %s, got %s", loggedBy, req.LoggedBy)
	}
	if !req.OccurredAt.Equal(occurredAt) {
		t.Fatalf("expected occurred_at %v, got %v", occurredAt, req.OccurredAt)
	}
}

func TestLogUsageHandlerValidationError(t *testing.T) {
	service := &stubInventoryService{}
	handler := NewLogUsageHandler(service, logging.NoOp())

	err := handler.Execute(context.Background(), LogUsageCommand{ChildID: uuid.New(), Kind: "damp", LoggedBy: uuid.New()})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(service.usageRequests) != 0 {
		t.Fatalf("expected no usage attempts, got %d", len(service.usageRequests))
	}
}

func TestLogUsageHandlerPropagatesError(t *testing.T) {
	service := &stubInventoryService{usageErr: errors.New("no open stock")}
	handler := NewLogUsageHandler(service, logging.NoOp())

	err := handler.Execute(context.Background(), LogUsageCommand{ChildID: uuid.New(), LoggedBy: uuid.New()})
	if err == nil {
		t.Fatal("expected usage error")
	}
	if !errors.Is(err, service.usageErr) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestScanLowStockHandlerInvokesScanner(t *testing.T) {
	scanner := &stubScanner{alerted: 2}
	handler := NewScanLowStockHandler(scanner, logging.NoOp())

	if err := handler.Execute(context.Background(), ScanLowStockCommand{}); err != nil {
		t.Fatalf("scan execute: %v", err)
	}
	if scanner.runs != 1 {
		t.Fatalf("expected scanner to run once, got %d", scanner.runs)
	}
}

func TestScanLowStockHandlerPropagatesError(t *testing.T) {
	scanner := &stubScanner{err: errors.New("boom")}
	handler := NewScanLowStockHandler(scanner, logging.NoOp())

	err := handler.Execute(context.Background(), ScanLowStockCommand{})
	if err == nil {
		t.Fatal("expected scanner error")
	}
	if !errors.Is(err, scanner.err) {
		t.Fatalf("expected scanner error, got %v", err)
	}
}

func TestScanLowStockHandlerCronDefaults(t *testing.T) {
	handler := NewScanLowStockHandler(&stubScanner{}, logging.NoOp())

	if handler.CronOptions().Expression != "@daily" {
		t.Fatalf("expected daily cron expression, got %q", handler.CronOptions().Expression)
	}

	custom := NewScanLowStockHandler(&stubScanner{}, logging.NoOp(), ScanWithCronExpression("@hourly"))
	if custom.CronOptions().Expression != "@hourly" {
		t.Fatalf("expected hourly cron expression, got %q", custom.CronOptions().Expression)
	}

	if err := handler.CronHandler()(); err != nil {
		t.Fatalf("cron handler: %v", err)
	}
}
