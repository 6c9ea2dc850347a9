package inventory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	nschildren "github.com/goliatone/go-nestsync/children"
	"github.com/goliatone/go-nestsync/domain"
	"github.com/goliatone/go-nestsync/internal/events"
	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/pkg/activity"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	nsusers "github.com/goliatone/go-nestsync/users"
	"github.com/google/uuid"
)

// ItemRepository abstracts storage operations for inventory items.
// ListChildIDs feeds the low-stock sweep with every child holding at least
// one live purchase row.
type ItemRepository interface {
	Create(ctx context.Context, record *InventoryItem) (*InventoryItem, error)
	GetByID(ctx context.Context, id uuid.UUID) (*InventoryItem, error)
	ListByChild(ctx context.Context, childID uuid.UUID) ([]*InventoryItem, error)
	ListChildIDs(ctx context.Context) ([]uuid.UUID, error)
	Update(ctx context.Context, record *InventoryItem) (*InventoryItem, error)
}

// UsageRepository abstracts storage operations for usage logs.
type UsageRepository interface {
	Create(ctx context.Context, record *UsageLog) (*UsageLog, error)
	GetByID(ctx context.Context, id uuid.UUID) (*UsageLog, error)
	ListByChild(ctx context.Context, childID uuid.UUID, since time.Time) ([]*UsageLog, error)
	Update(ctx context.Context, record *UsageLog) (*UsageLog, error)
}

// ChildDirectory resolves child profiles for scoping, size defaults, and
// projections. The children service satisfies it.
type ChildDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*nschildren.Child, error)
	SizeAdvisory(ctx context.Context, childID uuid.UUID) (*nschildren.SizeAdvisory, error)
}

// ConsentChecker gates child-data writes on the acting user's consent ledger.
type ConsentChecker interface {
	HasConsent(ctx context.Context, userID uuid.UUID, consentType nsusers.ConsentType) (bool, error)
}

// AccessPolicy decides whether an actor may write family-scoped records.
type AccessPolicy interface {
	CanWrite(ctx context.Context, familyID, userID uuid.UUID) error
}

// ThresholdResolver supplies the family's low-stock threshold in days.
type ThresholdResolver interface {
	LowStockThresholdDays(ctx context.Context, familyID uuid.UUID) (int, error)
}

// LowStockAlerter is invoked when a usage log drops projected cover for the
// child's current size to or below the family threshold.
type LowStockAlerter interface {
	LowStock(ctx context.Context, child *nschildren.Child, projection *StockProjection) error
}

// SizeAdvisoryAlerter is invoked by the daily sweep when a child's profile has
// outgrown their stored size.
type SizeAdvisoryAlerter interface {
	SizeAdvisory(ctx context.Context, child *nschildren.Child, advisory *nschildren.SizeAdvisory) error
}

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithClock overrides the clock used to stamp records.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		s.now = clock
	}
}

type IDGenerator func() uuid.UUID

func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithLogger attaches a logger used for structured diagnostics.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConsentChecker wires the consent gate for stock and usage writes.
func WithConsentChecker(checker ConsentChecker) ServiceOption {
	return func(s *service) {
		s.consents = checker
	}
}

// WithAccessPolicy wires the family membership policy for writes.
func WithAccessPolicy(policy AccessPolicy) ServiceOption {
	return func(s *service) {
		s.policy = policy
	}
}

// WithActivityEmitter attaches the activity emitter for stock events.
func WithActivityEmitter(emitter *activity.Emitter) ServiceOption {
	return func(s *service) {
		s.activity = emitter
	}
}

// WithEventPublisher wires the bus used for usage.logged integration events.
func WithEventPublisher(publisher events.Publisher) ServiceOption {
	return func(s *service) {
		s.publisher = publisher
	}
}

// WithLowStockAlerter registers the sink for threshold crossings.
func WithLowStockAlerter(alerter LowStockAlerter) ServiceOption {
	return func(s *service) {
		s.alerter = alerter
	}
}

// WithSizeAdvisoryAlerter registers the sink for size-up recommendations.
func WithSizeAdvisoryAlerter(alerter SizeAdvisoryAlerter) ServiceOption {
	return func(s *service) {
		s.sizeAlerter = alerter
	}
}

// WithThresholdResolver overrides the default low-stock threshold with the
// family's preference.
func WithThresholdResolver(resolver ThresholdResolver) ServiceOption {
	return func(s *service) {
		s.thresholds = resolver
	}
}

// WithLowStockThreshold changes the fallback threshold in days.
func WithLowStockThreshold(days int) ServiceOption {
	return func(s *service) {
		if days > 0 {
			s.lowStockDays = days
		}
	}
}

// service implements Service.
type service struct {
	items        ItemRepository
	usage        UsageRepository
	children     ChildDirectory
	consents     ConsentChecker
	policy       AccessPolicy
	activity     *activity.Emitter
	publisher    events.Publisher
	alerter      LowStockAlerter
	sizeAlerter  SizeAdvisoryAlerter
	thresholds   ThresholdResolver
	lowStockDays int
	now          func() time.Time
	id           IDGenerator
	logger       interfaces.Logger
}

// NewService constructs an inventory service.
func NewService(items ItemRepository, usage UsageRepository, children ChildDirectory, opts ...ServiceOption) Service {
	s := &service{
		items:        items,
		usage:        usage,
		children:     children,
		lowStockDays: DefaultLowStockThresholdDays,
		now:          time.Now,
		id:           uuid.New,
		logger:       logging.NoOp(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// AddItem records one diaper purchase. Size defaults to the child's current
// size; the full purchased quantity starts as remaining.
func (s *service) AddItem(ctx context.Context, req AddItemRequest) (*InventoryItem, error) {
	if req.ChildID == uuid.Nil {
		return nil, ErrChildIDRequired
	}
	if req.AddedBy == uuid.Nil {
		return nil, ErrActorRequired
	}
	brand := strings.TrimSpace(req.Brand)
	if brand == "" {
		return nil, ErrBrandRequired
	}
	if req.QuantityPurchased < 1 {
		return nil, ErrQuantityInvalid
	}
	if req.CostCents != nil && *req.CostCents < 0 {
		return nil, ErrCostInvalid
	}

	now := s.now()
	purchasedAt := req.PurchasedAt
	if purchasedAt.IsZero() {
		purchasedAt = now
	}
	if purchasedAt.After(now) {
		return nil, ErrPurchasedInFuture
	}

	child, err := s.children.Get(ctx, req.ChildID)
	if err != nil {
		return nil, err
	}

	size := req.Size
	if size == "" {
		size = child.CurrentSize
	}
	if !size.Valid() {
		return nil, ErrSizeInvalid
	}

	if err := s.authorizeWrite(ctx, child.FamilyID, req.AddedBy); err != nil {
		return nil, err
	}

	record := &InventoryItem{
		ID:                s.id(),
		ChildID:           child.ID,
		FamilyID:          child.FamilyID,
		Brand:             brand,
		Size:              size,
		QuantityPurchased: req.QuantityPurchased,
		QuantityRemaining: req.QuantityPurchased,
		CostCents:         req.CostCents,
		PurchasedAt:       purchasedAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := s.items.Create(ctx, record)
	if err != nil {
		return nil, err
	}

	s.activity.Emit(ctx, activity.Event{
		Verb:       "create",
		ActorID:    req.AddedBy.String(),
		TenantID:   created.FamilyID.String(),
		ObjectType: "inventory_item",
		ObjectID:   created.ID.String(),
		Metadata: map[string]any{
			"size":     string(created.Size),
			"quantity": created.QuantityPurchased,
		},
	})
	s.logger.Info("inventory item added",
		"item_id", created.ID.String(),
		"child_id", created.ChildID.String(),
		"size", string(created.Size),
	)
	return created, nil
}

// GetItem fetches an item by identifier.
func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*InventoryItem, error) {
	if id == uuid.Nil {
		return nil, ErrItemIDRequired
	}
	record, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.DeletedAt != nil {
		return nil, &NotFoundError{Resource: "inventory item", Key: id.String()}
	}
	return record, nil
}

// ListItems returns the child's purchases in FIFO order, depleted ones
// included.
func (s *service) ListItems(ctx context.Context, childID uuid.UUID) ([]*InventoryItem, error) {
	if childID == uuid.Nil {
		return nil, ErrChildIDRequired
	}
	records, err := s.items.ListByChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	out := make([]*InventoryItem, 0, len(records))
	for _, record := range records {
		if record.DeletedAt == nil {
			out = append(out, record)
		}
	}
	sortItemsFIFO(out)
	return out, nil
}

// UpdateItem applies stock corrections. Remaining stays within
// 0..QuantityPurchased.
func (s *service) UpdateItem(ctx context.Context, req UpdateItemRequest) (*InventoryItem, error) {
	if req.UpdatedBy == uuid.Nil {
		return nil, ErrActorRequired
	}
	record, err := s.GetItem(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(ctx, record.FamilyID, req.UpdatedBy); err != nil {
		return nil, err
	}

	if req.Brand != nil {
		brand := strings.TrimSpace(*req.Brand)
		if brand == "" {
			return nil, ErrBrandRequired
		}
		record.Brand = brand
	}
	if req.QuantityRemaining != nil {
		if *req.QuantityRemaining < 0 {
			return nil, ErrQuantityInvalid
		}
		if *req.QuantityRemaining > record.QuantityPurchased {
			return nil, ErrQuantityExceeded
		}
		record.QuantityRemaining = *req.QuantityRemaining
	}
	if req.CostCents != nil {
		if *req.CostCents < 0 {
			return nil, ErrCostInvalid
		}
		record.CostCents = req.CostCents
	}

	record.UpdatedAt = s.now()
	updated, err := s.items.Update(ctx, record)
	if err != nil {
		return nil, err
	}

	s.activity.Emit(ctx, activity.Event{
		Verb:       "update",
		ActorID:    req.UpdatedBy.String(),
		TenantID:   updated.FamilyID.String(),
		ObjectType: "inventory_item",
		ObjectID:   updated.ID.String(),
	})
	return updated, nil
}

// DeleteItem soft deletes a purchase. Usage logs keep their link for
// history.
func (s *service) DeleteItem(ctx context.Context, req DeleteItemRequest) error {
	if req.DeletedBy == uuid.Nil {
		return ErrActorRequired
	}
	record, err := s.GetItem(ctx, req.ID)
	if err != nil {
		return err
	}
	if err := s.authorizeWrite(ctx, record.FamilyID, req.DeletedBy); err != nil {
		return err
	}

	now := s.now()
	record.DeletedAt = &now
	record.UpdatedAt = now
	if _, err := s.items.Update(ctx, record); err != nil {
		return err
	}

	s.activity.Emit(ctx, activity.Event{
		Verb:       "delete",
		ActorID:    req.DeletedBy.String(),
		TenantID:   record.FamilyID.String(),
		ObjectType: "inventory_item",
		ObjectID:   record.ID.String(),
	})
	return nil
}

// LogUsage records a diaper change and drains stock. Without an explicit
// item the oldest open purchase of the child's current size loses one;
// remaining never goes negative.
func (s *service) LogUsage(ctx context.Context, req LogUsageRequest) (*UsageLog, error) {
	if req.ChildID == uuid.Nil {
		return nil, ErrChildIDRequired
	}
	if req.LoggedBy == uuid.Nil {
		return nil, ErrLoggedByRequired
	}
	kind := req.Kind
	if kind == "" {
		kind = UsageWet
	}
	if !kind.Valid() {
		return nil, ErrUsageKindInvalid
	}

	now := s.now()
	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}
	if occurredAt.After(now) {
		return nil, ErrOccurredInFuture
	}

	child, err := s.children.Get(ctx, req.ChildID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(ctx, child.FamilyID, req.LoggedBy); err != nil {
		return nil, err
	}

	open, err := s.openItems(ctx, child.ID)
	if err != nil {
		return nil, err
	}

	target, err := s.resolveDrainTarget(req, child, open)
	if err != nil {
		return nil, err
	}

	crossing, err := s.detectCrossing(ctx, child, open, target, now)
	if err != nil {
		return nil, err
	}

	var itemID *uuid.UUID
	if target != nil {
		if target.QuantityRemaining > 0 {
			target.QuantityRemaining--
			target.UpdatedAt = now
			if _, err := s.items.Update(ctx, target); err != nil {
				return nil, err
			}
		}
		id := target.ID
		itemID = &id
	}

	record := &UsageLog{
		ID:              s.id(),
		ChildID:         child.ID,
		FamilyID:        child.FamilyID,
		InventoryItemID: itemID,
		LoggedBy:        req.LoggedBy,
		Kind:            kind,
		Notes:           req.Notes,
		OccurredAt:      occurredAt,
		CreatedAt:       now,
	}

	created, err := s.usage.Create(ctx, record)
	if err != nil {
		return nil, err
	}

	s.publishUsageLogged(ctx, created)
	s.activity.Emit(ctx, activity.Event{
		Verb:       "log",
		ActorID:    req.LoggedBy.String(),
		TenantID:   created.FamilyID.String(),
		ObjectType: "usage_log",
		ObjectID:   created.ID.String(),
		Metadata:   map[string]any{"kind": string(created.Kind)},
	})

	if crossing != nil && s.alerter != nil {
		if err := s.alerter.LowStock(ctx, child, crossing); err != nil {
			s.logger.Error("low stock alert failed",
				"child_id", child.ID.String(),
				"size", string(crossing.Size),
				"error", err,
			)
		}
	}

	return created, nil
}

// ListUsage returns the child's usage logs since the given instant, newest
// first. A zero since returns everything.
func (s *service) ListUsage(ctx context.Context, childID uuid.UUID, since time.Time) ([]*UsageLog, error) {
	if childID == uuid.Nil {
		return nil, ErrChildIDRequired
	}
	records, err := s.usage.ListByChild(ctx, childID, since)
	if err != nil {
		return nil, err
	}
	out := make([]*UsageLog, 0, len(records))
	for _, record := range records {
		if record.DeletedAt == nil {
			out = append(out, record)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	return out, nil
}

// DeleteUsage soft deletes a log and hands the decrement back to the linked
// item when it still exists, clamped at the purchased quantity.
func (s *service) DeleteUsage(ctx context.Context, req DeleteUsageRequest) error {
	if req.ID == uuid.Nil {
		return ErrUsageIDRequired
	}
	if req.DeletedBy == uuid.Nil {
		return ErrActorRequired
	}

	record, err := s.usage.GetByID(ctx, req.ID)
	if err != nil {
		return err
	}
	if record.DeletedAt != nil {
		return &NotFoundError{Resource: "usage log", Key: req.ID.String()}
	}
	if err := s.authorizeWrite(ctx, record.FamilyID, req.DeletedBy); err != nil {
		return err
	}

	now := s.now()
	record.DeletedAt = &now
	if _, err := s.usage.Update(ctx, record); err != nil {
		return err
	}

	if record.InventoryItemID != nil {
		s.restoreDecrement(ctx, *record.InventoryItemID, now)
	}

	s.activity.Emit(ctx, activity.Event{
		Verb:       "delete",
		ActorID:    req.DeletedBy.String(),
		TenantID:   record.FamilyID.String(),
		ObjectType: "usage_log",
		ObjectID:   record.ID.String(),
	})
	return nil
}

// Projection reports remaining cover per size for the child. The rate comes
// from the trailing usage window, falling back to the profile's expected
// daily usage.
func (s *service) Projection(ctx context.Context, childID uuid.UUID) ([]*StockProjection, error) {
	child, err := s.children.Get(ctx, childID)
	if err != nil {
		return nil, err
	}

	open, err := s.openItems(ctx, child.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rate, err := s.currentRate(ctx, child, now)
	if err != nil {
		return nil, err
	}
	threshold := s.resolveThreshold(ctx, child.FamilyID)

	totals := make(map[domain.DiaperSize]int)
	for _, item := range open {
		totals[item.Size] += item.QuantityRemaining
	}

	out := make([]*StockProjection, 0, len(totals))
	for size, remaining := range totals {
		out = append(out, projectSize(child, size, remaining, rate, threshold, now))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Size.Index() < out[j].Size.Index()
	})
	return out, nil
}

// ScanLowStock re-checks current-size cover for every child with tracked
// stock and alerts where it sits at or below the family threshold. The
// recurring scan catches drift the per-log crossing alert misses, like a
// raised threshold or a size change that strands the remaining stock. The
// same sweep surfaces size-up recommendations so caregivers hear about an
// outgrown size before they restock it. It returns the number of alerts
// delivered.
func (s *service) ScanLowStock(ctx context.Context) (int, error) {
	if s.alerter == nil && s.sizeAlerter == nil {
		return 0, nil
	}
	childIDs, err := s.items.ListChildIDs(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	alerts := 0
	for _, childID := range childIDs {
		child, err := s.children.Get(ctx, childID)
		if err != nil {
			var notFound *nschildren.NotFoundError
			if errors.As(err, &notFound) {
				continue
			}
			return alerts, err
		}

		if s.alerter != nil {
			open, err := s.openItems(ctx, child.ID)
			if err != nil {
				return alerts, err
			}
			rate, err := s.currentRate(ctx, child, now)
			if err != nil {
				return alerts, err
			}
			threshold := s.resolveThreshold(ctx, child.FamilyID)

			remaining := 0
			for _, item := range open {
				if item.Size == child.CurrentSize {
					remaining += item.QuantityRemaining
				}
			}

			projection := projectSize(child, child.CurrentSize, remaining, rate, threshold, now)
			if projection.Low {
				if err := s.alerter.LowStock(ctx, child, projection); err != nil {
					s.logger.Error("low stock alert failed",
						"child_id", child.ID.String(),
						"size", string(projection.Size),
						"error", err,
					)
				} else {
					alerts++
				}
			}
		}

		if s.sizeAlerter != nil {
			advisory, err := s.children.SizeAdvisory(ctx, child.ID)
			if err != nil {
				s.logger.Error("size advisory lookup failed",
					"child_id", child.ID.String(),
					"error", err,
				)
				continue
			}
			if !advisory.SizeUp {
				continue
			}
			if err := s.sizeAlerter.SizeAdvisory(ctx, child, advisory); err != nil {
				s.logger.Error("size advisory alert failed",
					"child_id", child.ID.String(),
					"error", err,
				)
				continue
			}
			alerts++
		}
	}

	if alerts > 0 {
		s.logger.Info("low stock scan alerted", "children", alerts)
	}
	return alerts, nil
}

func (s *service) authorizeWrite(ctx context.Context, familyID, userID uuid.UUID) error {
	if s.policy != nil {
		if err := s.policy.CanWrite(ctx, familyID, userID); err != nil {
			return err
		}
	}
	if s.consents != nil {
		granted, err := s.consents.HasConsent(ctx, userID, nsusers.ConsentChildData)
		if err != nil {
			return err
		}
		if !granted {
			return &nsusers.ConsentRequiredError{Type: nsusers.ConsentChildData}
		}
	}
	return nil
}

// openItems returns the child's non-deleted purchases in FIFO order.
func (s *service) openItems(ctx context.Context, childID uuid.UUID) ([]*InventoryItem, error) {
	records, err := s.items.ListByChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	out := make([]*InventoryItem, 0, len(records))
	for _, record := range records {
		if record.DeletedAt == nil {
			out = append(out, record)
		}
	}
	sortItemsFIFO(out)
	return out, nil
}

// resolveDrainTarget picks the purchase to decrement: the explicit item when
// given, otherwise the oldest open purchase of the child's current size. Nil
// means usage is logged without stock.
func (s *service) resolveDrainTarget(req LogUsageRequest, child *nschildren.Child, open []*InventoryItem) (*InventoryItem, error) {
	if req.ItemID != nil {
		for _, item := range open {
			if item.ID == *req.ItemID {
				return item, nil
			}
		}
		return nil, &NotFoundError{Resource: "inventory item", Key: req.ItemID.String()}
	}
	for _, item := range open {
		if item.Size == child.CurrentSize && item.QuantityRemaining > 0 {
			return item, nil
		}
	}
	return nil, nil
}

// detectCrossing compares cover for the current size before and after the
// pending decrement. It returns the post-decrement projection only when the
// log pushes cover from above the threshold to at or below it.
func (s *service) detectCrossing(ctx context.Context, child *nschildren.Child, open []*InventoryItem, target *InventoryItem, now time.Time) (*StockProjection, error) {
	if s.alerter == nil || target == nil || target.QuantityRemaining <= 0 {
		return nil, nil
	}
	if target.Size != child.CurrentSize {
		return nil, nil
	}

	rate, err := s.currentRate(ctx, child, now)
	if err != nil {
		return nil, err
	}
	threshold := s.resolveThreshold(ctx, child.FamilyID)

	remaining := 0
	for _, item := range open {
		if item.Size == child.CurrentSize {
			remaining += item.QuantityRemaining
		}
	}

	before := projectSize(child, child.CurrentSize, remaining, rate, threshold, now)
	after := projectSize(child, child.CurrentSize, remaining-1, rate, threshold, now)
	if !before.Low && after.Low {
		return after, nil
	}
	return nil, nil
}

func (s *service) currentRate(ctx context.Context, child *nschildren.Child, now time.Time) (float64, error) {
	logs, err := s.usage.ListByChild(ctx, child.ID, now.Add(-usageRateWindow))
	if err != nil {
		return 0, err
	}
	return usageRate(child.DailyUsage, logs, now), nil
}

func (s *service) resolveThreshold(ctx context.Context, familyID uuid.UUID) int {
	if s.thresholds != nil {
		days, err := s.thresholds.LowStockThresholdDays(ctx, familyID)
		if err != nil {
			s.logger.Warn("low stock threshold lookup failed",
				"family_id", familyID.String(),
				"error", err,
			)
		} else if days > 0 {
			return days
		}
	}
	return s.lowStockDays
}

func (s *service) restoreDecrement(ctx context.Context, itemID uuid.UUID, now time.Time) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		var notFound *NotFoundError
		if !errors.As(err, &notFound) {
			s.logger.Error("usage restore lookup failed", "item_id", itemID.String(), "error", err)
		}
		return
	}
	if item.DeletedAt != nil || item.QuantityRemaining >= item.QuantityPurchased {
		return
	}
	item.QuantityRemaining++
	item.UpdatedAt = now
	if _, err := s.items.Update(ctx, item); err != nil {
		s.logger.Error("usage restore failed", "item_id", itemID.String(), "error", err)
	}
}

func (s *service) publishUsageLogged(ctx context.Context, record *UsageLog) {
	if s.publisher == nil {
		return
	}
	payload := map[string]any{
		"usage_id":    record.ID.String(),
		"child_id":    record.ChildID.String(),
		"family_id":   record.FamilyID.String(),
		"kind":        string(record.Kind),
		"occurred_at": record.OccurredAt,
	}
	if record.InventoryItemID != nil {
		payload["inventory_item_id"] = record.InventoryItemID.String()
	}
	if err := s.publisher.Publish(ctx, events.SubjectUsageLogged, payload); err != nil {
		s.logger.Error("usage event publish failed", "usage_id", record.ID.String(), "error", err)
	}
}

func sortItemsFIFO(items []*InventoryItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].PurchasedAt.Equal(items[j].PurchasedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].PurchasedAt.Before(items[j].PurchasedAt)
	})
}
