// Package checkout hands the session's cart to the platform's payment
// initiation endpoint and returns the redirect URL the client should follow.
// Payment processing itself stays on the platform side.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mindovermyth/sessionhub/internal/cart"
	pkgerrors "github.com/mindovermyth/sessionhub/pkg/errors"
	"github.com/mindovermyth/sessionhub/pkg/logger"
	"github.com/shopspring/decimal"
)

// InitiateResult carries the platform's redirect target.
type InitiateResult struct {
	RedirectURL string `json:"redirect_url"`
}

// Service initiates a payment handoff for a session's cart.
type Service interface {
	Initiate(ctx context.Context, sessionID string) (InitiateResult, error)
}

type service struct {
	carts   cart.Service
	baseURL string
	timeout time.Duration
	client  *http.Client
	logg    *logger.Logger
}

type initiateItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

type initiateRequest struct {
	SessionID      string          `json:"session_id"`
	Items          []initiateItem  `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TotalItemCount int             `json:"total_item_count"`
}

type initiateResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// NewService builds the checkout handoff. The cart service and a backend base
// URL are required.
func NewService(carts cart.Service, baseURL string, timeout time.Duration, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart service required")
	}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "backend base url required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &service{
		carts:   carts,
		baseURL: base,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logg:    logg,
	}, nil
}

// Initiate snapshots the cart and posts it to the payment endpoint. An empty
// cart is a validation error; a backend failure surfaces as a dependency
// error instead of leaking transport details to the client.
func (s *service) Initiate(ctx context.Context, sessionID string) (InitiateResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return InitiateResult{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	snapshot, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return InitiateResult{}, err
	}
	if len(snapshot.Items) == 0 {
		return InitiateResult{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	payload := initiateRequest{
		SessionID:      sessionID,
		Items:          make([]initiateItem, 0, len(snapshot.Items)),
		Subtotal:       snapshot.Subtotal,
		TotalItemCount: snapshot.TotalItemCount,
	}
	for _, item := range snapshot.Items {
		payload.Items = append(payload.Items, initiateItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	result, err := s.post(ctx, payload)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithSessionID(ctx, sessionID), "payment initiation failed", err)
		}
		return InitiateResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment initiation failed")
	}
	return result, nil
}

func (s *service) post(ctx context.Context, payload initiateRequest) (InitiateResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return InitiateResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	endpoint := s.baseURL + "/api/payment/initiate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return InitiateResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return InitiateResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return InitiateResult{}, fmt.Errorf("payment backend returned status %d", resp.StatusCode)
	}

	var decoded initiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return InitiateResult{}, fmt.Errorf("decode payment response: %w", err)
	}
	if strings.TrimSpace(decoded.RedirectURL) == "" {
		return InitiateResult{}, fmt.Errorf("payment backend returned no redirect url")
	}
	return InitiateResult{RedirectURL: decoded.RedirectURL}, nil
}
