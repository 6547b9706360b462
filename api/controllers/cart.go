package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mindovermyth/sessionhub/api/middleware"
	"github.com/mindovermyth/sessionhub/api/responses"
	"github.com/mindovermyth/sessionhub/api/validators"
	cartsvc "github.com/mindovermyth/sessionhub/internal/cart"
	pkgerrors "github.com/mindovermyth/sessionhub/pkg/errors"
	"github.com/mindovermyth/sessionhub/pkg/logger"
)

// CartGet returns the session's cart snapshot with derived totals.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		dto, err := svc.Get(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(dto))
	}
}

// CartAddItem appends or accumulates a line item.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, outcome, err := svc.AddItem(r.Context(), middleware.SessionIDFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, addItemResponse{
			Outcome: string(outcome),
			Cart:    newCartResponse(dto),
		})
	}
}

// CartRemoveItem drops a line item by product id. A missing id reports
// removed=false rather than an error.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		productID := chi.URLParam(r, "productID")
		dto, removed, err := svc.RemoveItem(r.Context(), middleware.SessionIDFromContext(r.Context()), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, removeItemResponse{
			Removed: removed,
			Cart:    newCartResponse(dto),
		})
	}
}

// CartClear empties the session's cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		dto, err := svc.Clear(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(dto))
	}
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price" validate:"required"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"image_url"`
}

func (r addItemRequest) toInput() (cartsvc.AddItemInput, error) {
	price, err := decimal.NewFromString(r.UnitPrice)
	if err != nil {
		return cartsvc.AddItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price")
	}
	return cartsvc.AddItemInput{
		ProductID: r.ProductID,
		Name:      r.Name,
		UnitPrice: price,
		Quantity:  r.Quantity,
		ImageURL:  r.ImageURL,
	}, nil
}

type lineItemResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"image_url,omitempty"`
}

type cartResponse struct {
	Items          []lineItemResponse `json:"items"`
	Subtotal       string             `json:"subtotal"`
	TotalItemCount int                `json:"total_item_count"`
}

type addItemResponse struct {
	Outcome string       `json:"outcome"`
	Cart    cartResponse `json:"cart"`
}

type removeItemResponse struct {
	Removed bool         `json:"removed"`
	Cart    cartResponse `json:"cart"`
}

func newCartResponse(dto cartsvc.CartDTO) cartResponse {
	items := make([]lineItemResponse, 0, len(dto.Items))
	for _, item := range dto.Items {
		items = append(items, lineItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.String(),
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}
	return cartResponse{
		Items:          items,
		Subtotal:       dto.Subtotal.String(),
		TotalItemCount: dto.TotalItemCount,
	}
}
