package notifycmd

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/internal/notifications"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type stubNotificationService struct {
	dispatchCalls []int
	sent          int
	dispatchErr   error
}

func (s *stubNotificationService) Preferences(context.Context, uuid.UUID, uuid.UUID) (*notifications.NotificationPreference, error) {
	return nil, errors.New("not implemented")
}

func (s *stubNotificationService) UpdatePreferences(context.Context, notifications.UpdatePreferencesRequest) (*notifications.NotificationPreference, error) {
	return nil, errors.New("not implemented")
}

func (s *stubNotificationService) Enqueue(context.Context, notifications.EnqueueNotificationRequest) ([]*notifications.Notification, error) {
	return nil, errors.New("not implemented")
}

func (s *stubNotificationService) List(context.Context, notifications.ListNotificationsRequest) ([]*notifications.Notification, error) {
	return nil, errors.New("not implemented")
}

func (s *stubNotificationService) MarkRead(context.Context, notifications.MarkReadRequest) (*notifications.Notification, error) {
	return nil, errors.New("not implemented")
}

func (s *stubNotificationService) Cancel(context.Context, notifications.CancelNotificationRequest) error {
	return errors.New("not implemented")
}

func (s *stubNotificationService) Dispatch(_ context.Context, batchSize int) (int, error) {
	s.dispatchCalls = append(s.dispatchCalls, batchSize)
	if s.dispatchErr != nil {
		return 0, s.dispatchErr
	}
	return s.sent, nil
}

func TestDispatchNotificationsHandlerExecutesService(t *testing.T) {
	service := &stubNotificationService{sent: 4}
	handler := NewDispatchNotificationsHandler(service, logging.NoOp())

	if err := handler.Execute(context.Background(), DispatchNotificationsCommand{BatchSize: 20}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(service.dispatchCalls) != 1 || service.dispatchCalls[0] != 20 {
		t.Fatalf("expected one dispatch call with batch 20, got %v", service.dispatchCalls)
	}
}

func TestDispatchNotificationsHandlerDefaultsBatch(t *testing.T) {
	service := &stubNotificationService{}
	handler := NewDispatchNotificationsHandler(service, logging.NoOp())

	// Zero is passed through; the service applies its own default batch.
	if err := handler.Execute(context.Background(), DispatchNotificationsCommand{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(service.dispatchCalls) != 1 || service.dispatchCalls[0] != 0 {
		t.Fatalf("expected dispatch call with zero batch, got %v", service.dispatchCalls)
	}
}

func TestDispatchNotificationsHandlerValidationError(t *testing.T) {
	service := &stubNotificationService{}
	handler := NewDispatchNotificationsHandler(service, logging.NoOp())

	err := handler.Execute(context.Background(), DispatchNotificationsCommand{BatchSize: -1})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(service.dispatchCalls) != 0 {
		t.Fatalf("expected no dispatch attempts, got %d", len(service.dispatchCalls))
	}
}

func TestDispatchNotificationsHandlerPropagatesError(t *testing.T) {
	service := &stubNotificationService{dispatchErr: errors.New("store offline")}
	handler := NewDispatchNotificationsHandler(service, logging.NoOp())

	err := handler.Execute(context.Background(), DispatchNotificationsCommand{BatchSize: 10})
	if err == nil {
		t.Fatal("expected dispatch error")
	}
	if !errors.Is(err, service.dispatchErr) {
		t.Fatalf("expected dispatch error, got %v", err)
	}
}
