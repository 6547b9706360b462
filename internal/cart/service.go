package cart

import (
	"context"
	"errors"
	"strings"

	"github.com/mindovermyth/sessionhub/internal/realtime"
	pkgerrors "github.com/mindovermyth/sessionhub/pkg/errors"
	"github.com/mindovermyth/sessionhub/pkg/kv"
	"github.com/mindovermyth/sessionhub/pkg/logger"
	"github.com/mindovermyth/sessionhub/pkg/metrics"
	"github.com/shopspring/decimal"
)

// AddOutcome tells the caller whether an add created a new line item or
// bumped an existing one, for the user-visible acknowledgement.
type AddOutcome string

const (
	OutcomeAdded           AddOutcome = "added"
	OutcomeQuantityUpdated AddOutcome = "quantity_updated"
)

// AddItemInput carries the product snapshot captured at add time.
type AddItemInput struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	ImageURL  string
}

// CartDTO is the cart plus its derived totals. Subtotal and item count are
// recomputed on every read; they are never stored alongside the items.
type CartDTO struct {
	Items          []LineItem      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TotalItemCount int             `json:"total_item_count"`
}

// Service owns the authoritative cart line items for each session and keeps
// them durable across reloads through the key-value mirror.
type Service interface {
	Get(ctx context.Context, sessionID string) (CartDTO, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (CartDTO, AddOutcome, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (CartDTO, bool, error)
	Clear(ctx context.Context, sessionID string) (CartDTO, error)
}

type service struct {
	mirror  kv.Mirror
	events  *realtime.Publisher
	logg    *logger.Logger
	metrics *metrics.StateMetrics
}

// NewService builds a cart service backed by the provided mirror. The event
// publisher and metrics may be nil.
func NewService(mirror kv.Mirror, events *realtime.Publisher, logg *logger.Logger, m *metrics.StateMetrics) (Service, error) {
	if mirror == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "key-value mirror required")
	}
	return &service{mirror: mirror, events: events, logg: logg, metrics: m}, nil
}

// Get loads the session's cart. Absent or corrupt persisted state yields an
// empty cart, never an error.
func (s *service) Get(ctx context.Context, sessionID string) (CartDTO, error) {
	if err := requireSession(sessionID); err != nil {
		return CartDTO{}, err
	}
	return buildDTO(s.load(ctx, sessionID)), nil
}

// AddItem appends a new line item or accumulates quantity on an existing one.
// Metadata of an existing item is never refreshed: the snapshot from the
// first add wins for the rest of the session.
func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (CartDTO, AddOutcome, error) {
	if err := requireSession(sessionID); err != nil {
		return CartDTO{}, "", err
	}
	if strings.TrimSpace(input.ProductID) == "" {
		return CartDTO{}, "", pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.UnitPrice.IsNegative() {
		return CartDTO{}, "", pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	qty := input.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		return CartDTO{}, "", pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}

	items := s.load(ctx, sessionID)
	outcome := OutcomeAdded
	found := false
	for i := range items {
		if items[i].ProductID == input.ProductID {
			items[i].Quantity += qty
			outcome = OutcomeQuantityUpdated
			found = true
			break
		}
	}
	if !found {
		items = append(items, LineItem{
			ProductID: input.ProductID,
			Name:      input.Name,
			UnitPrice: input.UnitPrice,
			Quantity:  qty,
			ImageURL:  input.ImageURL,
		})
	}

	dto := buildDTO(items)
	s.persist(ctx, sessionID, items, "cart_add")
	s.publish(ctx, sessionID, dto)
	return dto, outcome, nil
}

// RemoveItem drops the line item with the given product id. Absent ids are a
// no-op, not an error; the second return reports whether anything was removed.
func (s *service) RemoveItem(ctx context.Context, sessionID, productID string) (CartDTO, bool, error) {
	if err := requireSession(sessionID); err != nil {
		return CartDTO{}, false, err
	}
	if strings.TrimSpace(productID) == "" {
		return CartDTO{}, false, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	items := s.load(ctx, sessionID)
	kept := items[:0:0]
	removed := false
	for _, item := range items {
		if item.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, item)
	}

	dto := buildDTO(kept)
	if removed {
		s.persist(ctx, sessionID, kept, "cart_remove")
		s.publish(ctx, sessionID, dto)
	}
	return dto, removed, nil
}

// Clear empties the cart unconditionally.
func (s *service) Clear(ctx context.Context, sessionID string) (CartDTO, error) {
	if err := requireSession(sessionID); err != nil {
		return CartDTO{}, err
	}

	s.persist(ctx, sessionID, nil, "cart_clear")
	dto := buildDTO(nil)
	s.publish(ctx, sessionID, dto)
	return dto, nil
}

func (s *service) load(ctx context.Context, sessionID string) []LineItem {
	raw, err := s.mirror.Get(ctx, kv.CartKey(sessionID))
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) && s.logg != nil {
			s.logg.Error(s.logg.WithSessionID(ctx, sessionID), "cart mirror read failed; treating as empty", err)
		}
		return nil
	}
	items, ok := decodeSnapshot(raw)
	if !ok {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithSessionID(ctx, sessionID), "corrupt cart snapshot discarded")
		}
		return nil
	}
	return items
}

// persist write-through is best-effort: failures are logged and counted but
// the in-memory result still stands for the caller.
func (s *service) persist(ctx context.Context, sessionID string, items []LineItem, op string) {
	encoded, err := encodeSnapshot(items)
	if err != nil {
		s.recordWriteFailure(ctx, sessionID, op, err)
		return
	}
	if err := s.mirror.Set(ctx, kv.CartKey(sessionID), encoded); err != nil {
		s.recordWriteFailure(ctx, sessionID, op, err)
	}
}

func (s *service) recordWriteFailure(ctx context.Context, sessionID, op string, err error) {
	s.metrics.IncMirrorWriteFailure(op)
	if s.logg != nil {
		s.logg.Error(s.logg.WithSessionID(ctx, sessionID), "cart mirror write failed", err)
	}
}

func (s *service) publish(ctx context.Context, sessionID string, dto CartDTO) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, sessionID, realtime.EventCartUpdated, dto)
}

func buildDTO(items []LineItem) CartDTO {
	subtotal := decimal.Zero
	count := 0
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		count += item.Quantity
	}
	if items == nil {
		items = []LineItem{}
	}
	return CartDTO{Items: items, Subtotal: subtotal, TotalItemCount: count}
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return nil
}
