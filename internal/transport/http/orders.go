package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Iamswart/divest-bookstore/internal/app"
	"github.com/Iamswart/divest-bookstore/internal/domain"
)

// OrderPlacer is the minimal interface needed to check out and list orders.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, in app.PlaceOrderInput) (domain.Order, error)
	GetHistory(ctx context.Context, userID string) ([]domain.Order, error)
}

// OrderGetter is the minimal interface needed to fetch one order.
type OrderGetter interface {
	GetByID(ctx context.Context, orderID string) (domain.Order, error)
}

// HandleOrders returns an HTTP handler for placing orders and listing
// order history.
func HandleOrders(svc OrderPlacer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodPost:
			var req placeOrderRequest
			if r.Body != nil && r.ContentLength != 0 {
				dec := json.NewDecoder(r.Body)
				dec.DisallowUnknownFields()
				if err := dec.Decode(&req); err != nil {
					writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
					return
				}
			}

			order, err := svc.PlaceOrder(r.Context(), app.PlaceOrderInput{
				UserID: userID,
				Note:   req.Note,
			})
			if err != nil {
				writeOrderError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(toOrderResponse(order))
			return
		case http.MethodGet:
			orders, err := svc.GetHistory(r.Context(), userID)
			if err != nil {
				writeOrderError(w, err)
				return
			}

			resp := make([]orderResponse, 0, len(orders))
			for _, order := range orders {
				resp = append(resp, toOrderResponse(order))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
			return
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
	}
}

// HandleOrderByID returns an HTTP handler for fetching one order.
func HandleOrderByID(svc OrderGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		if _, ok := requireUser(w, r); !ok {
			return
		}

		orderID, ok := parseOrderPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		order, err := svc.GetByID(r.Context(), orderID)
		if err != nil {
			writeOrderError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toOrderResponse(order))
	}
}

func writeOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, codeEmptyCart, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		writeError(w, http.StatusConflict, codeInsufficientStock, err.Error())
	case errors.Is(err, domain.ErrInvalidCartState):
		writeError(w, http.StatusConflict, codeInvalidCartState, err.Error())
	case errors.Is(err, domain.ErrBookNotFound):
		writeError(w, http.StatusNotFound, codeBookNotFound, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrUserRequired):
		writeError(w, http.StatusUnauthorized, codeUserRequired, err.Error())
	case errors.Is(err, domain.ErrTransactionFailed):
		// Nothing committed; the client may retry the same request.
		writeError(w, http.StatusServiceUnavailable, codeTransactionFailed, domain.ErrTransactionFailed.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func parseOrderPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] != "orders" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type placeOrderRequest struct {
	Note string `json:"note,omitempty"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	UserID        string              `json:"user_id"`
	OrderNumber   string              `json:"order_number"`
	Note          string              `json:"note,omitempty"`
	TotalCost     string              `json:"total_cost"`
	PaymentStatus string              `json:"payment_status"`
	CreatedAt     time.Time           `json:"created_at"`
	Lines         []orderLineResponse `json:"lines"`
}

type orderLineResponse struct {
	ID       string        `json:"id"`
	BookID   string        `json:"book_id"`
	Quantity int           `json:"quantity"`
	Price    string        `json:"price"`
	Book     *bookResponse `json:"book,omitempty"`
}

func toOrderResponse(order domain.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		lr := orderLineResponse{
			ID:       line.ID,
			BookID:   line.BookID,
			Quantity: line.Quantity,
			Price:    line.Price.StringFixed(2),
		}
		if line.Book.ID != "" {
			book := toBookResponse(line.Book)
			lr.Book = &book
		}
		lines = append(lines, lr)
	}
	return orderResponse{
		ID:            order.ID,
		UserID:        order.UserID,
		OrderNumber:   order.OrderNumber,
		Note:          order.Note,
		TotalCost:     order.TotalCost.StringFixed(2),
		PaymentStatus: string(order.PaymentStatus),
		CreatedAt:     order.CreatedAt,
		Lines:         lines,
	}
}
