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
	"github.com/shopspring/decimal"
)

// CatalogService is the minimal interface needed for catalog endpoints.
type CatalogService interface {
	SearchBooks(ctx context.Context, in app.SearchBooksInput) ([]domain.Book, error)
	GetBook(ctx context.Context, bookID string) (domain.Book, error)
	CreateBook(ctx context.Context, in app.CreateBookInput) (domain.Book, error)
	RestockBook(ctx context.Context, bookID string, quantity int) (int, error)
	UpdateBookPrice(ctx context.Context, bookID string, price decimal.Decimal) error
}

// HandleBooks returns an HTTP handler for searching and creating books.
func HandleBooks(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			q := r.URL.Query()
			books, err := svc.SearchBooks(r.Context(), app.SearchBooksInput{
				Title:  q.Get("title"),
				Author: q.Get("author"),
				Genre:  q.Get("genre"),
			})
			if err != nil {
				writeCatalogError(w, err)
				return
			}
			resp := make([]bookResponse, 0, len(books))
			for _, book := range books {
				resp = append(resp, toBookResponse(book))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
			return
		case http.MethodPost:
			var req createBookRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			price, err := decimal.NewFromString(req.Price)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidPrice, domain.ErrInvalidPrice.Error())
				return
			}

			book, err := svc.CreateBook(r.Context(), app.CreateBookInput{
				Title:  req.Title,
				Author: req.Author,
				Genre:  req.Genre,
				Price:  price,
				Stock:  req.Stock,
			})
			if err != nil {
				writeCatalogError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(toBookResponse(book))
			return
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
	}
}

// HandleBookByID returns an HTTP handler for book detail and catalog
// management updates (restock, price change).
func HandleBookByID(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookID, ok := parseBookPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch r.Method {
		case http.MethodGet:
			book, err := svc.GetBook(r.Context(), bookID)
			if err != nil {
				writeCatalogError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toBookResponse(book))
			return
		case http.MethodPatch:
			var req updateBookRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			if req.Price == "" && req.Restock == 0 {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "nothing to update")
				return
			}

			if req.Price != "" {
				price, err := decimal.NewFromString(req.Price)
				if err != nil {
					writeError(w, http.StatusBadRequest, codeInvalidPrice, domain.ErrInvalidPrice.Error())
					return
				}
				if err := svc.UpdateBookPrice(r.Context(), bookID, price); err != nil {
					writeCatalogError(w, err)
					return
				}
			}
			if req.Restock != 0 {
				if _, err := svc.RestockBook(r.Context(), bookID, req.Restock); err != nil {
					writeCatalogError(w, err)
					return
				}
			}

			book, err := svc.GetBook(r.Context(), bookID)
			if err != nil {
				writeCatalogError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toBookResponse(book))
			return
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
	}
}

func writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBookNotFound):
		writeError(w, http.StatusNotFound, codeBookNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, codeTitleRequired, err.Error())
	case errors.Is(err, domain.ErrAuthorRequired):
		writeError(w, http.StatusBadRequest, codeAuthorRequired, err.Error())
	case errors.Is(err, domain.ErrGenreRequired):
		writeError(w, http.StatusBadRequest, codeGenreRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, codeInvalidPrice, err.Error())
	case errors.Is(err, domain.ErrInvalidStock):
		writeError(w, http.StatusBadRequest, codeInvalidStock, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrTransactionFailed):
		writeError(w, http.StatusServiceUnavailable, codeTransactionFailed, domain.ErrTransactionFailed.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func parseBookPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] != "books" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type createBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
	Price  string `json:"price"`
	Stock  int    `json:"stock"`
}

type updateBookRequest struct {
	Price   string `json:"price,omitempty"`
	Restock int    `json:"restock,omitempty"`
}

type bookResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Genre     string    `json:"genre"`
	Slug      string    `json:"slug"`
	Price     string    `json:"price"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

func toBookResponse(book domain.Book) bookResponse {
	return bookResponse{
		ID:        book.ID,
		Title:     book.Title,
		Author:    book.Author,
		Genre:     book.Genre,
		Slug:      book.Slug,
		Price:     book.Price.StringFixed(2),
		Stock:     book.Stock,
		CreatedAt: book.CreatedAt,
	}
}
