package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Iamswart/divest-bookstore/internal/app"
	"github.com/Iamswart/divest-bookstore/internal/domain"
)

// CartService is the minimal interface needed for cart endpoints.
type CartService interface {
	AddBook(ctx context.Context, in app.AddBookInput) (domain.CartView, error)
	ViewCart(ctx context.Context, userID string) (domain.CartView, error)
	UpdateLine(ctx context.Context, in app.UpdateLineInput) (domain.CartView, error)
	RemoveLine(ctx context.Context, userID, lineID string) (domain.CartView, error)
}

// HandleViewCart returns an HTTP handler for viewing the caller's cart.
func HandleViewCart(svc CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		view, err := svc.ViewCart(r.Context(), userID)
		if err != nil {
			writeCartError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toCartResponse(view))
	}
}

// HandleCartItems returns an HTTP handler for adding a book to the cart.
func HandleCartItems(svc CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req addCartItemRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.BookID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidID, "book_id is required")
			return
		}
		if req.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidQuantity, domain.ErrInvalidQuantity.Error())
			return
		}

		view, err := svc.AddBook(r.Context(), app.AddBookInput{
			UserID:   userID,
			BookID:   req.BookID,
			Quantity: req.Quantity,
		})
		if err != nil {
			writeCartError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(toCartResponse(view))
	}
}

// HandleCartItemByID returns an HTTP handler for updating or removing
// one cart line.
func HandleCartItemByID(svc CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		lineID, ok := parseCartItemPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch r.Method {
		case http.MethodPatch:
			var req updateCartItemRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			view, err := svc.UpdateLine(r.Context(), app.UpdateLineInput{
				UserID:   userID,
				LineID:   lineID,
				Quantity: req.Quantity,
			})
			if err != nil {
				writeCartError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toCartResponse(view))
			return
		case http.MethodDelete:
			view, err := svc.RemoveLine(r.Context(), userID, lineID)
			if err != nil {
				writeCartError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toCartResponse(view))
			return
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
	}
}

func writeCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBookNotFound):
		writeError(w, http.StatusNotFound, codeBookNotFound, err.Error())
	case errors.Is(err, domain.ErrCartNotFound):
		writeError(w, http.StatusNotFound, codeCartNotFound, err.Error())
	case errors.Is(err, domain.ErrCartLineNotFound):
		writeError(w, http.StatusNotFound, codeCartLineNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		writeError(w, http.StatusConflict, codeInsufficientStock, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrUserRequired):
		writeError(w, http.StatusUnauthorized, codeUserRequired, err.Error())
	case errors.Is(err, domain.ErrTransactionFailed):
		writeError(w, http.StatusServiceUnavailable, codeTransactionFailed, domain.ErrTransactionFailed.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func parseCartItemPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "cart" || parts[1] != "items" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

type addCartItemRequest struct {
	BookID   string `json:"book_id"`
	Quantity int    `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type cartResponse struct {
	ID     string             `json:"id,omitempty"`
	UserID string             `json:"user_id"`
	Lines  []cartLineResponse `json:"lines"`
}

type cartLineResponse struct {
	ID       string       `json:"id"`
	BookID   string       `json:"book_id"`
	Quantity int          `json:"quantity"`
	Book     bookResponse `json:"book"`
}

func toCartResponse(view domain.CartView) cartResponse {
	lines := make([]cartLineResponse, 0, len(view.Lines))
	for _, line := range view.Lines {
		lines = append(lines, cartLineResponse{
			ID:       line.ID,
			BookID:   line.BookID,
			Quantity: line.Quantity,
			Book:     toBookResponse(line.Book),
		})
	}
	return cartResponse{
		ID:     view.ID,
		UserID: view.UserID,
		Lines:  lines,
	}
}
