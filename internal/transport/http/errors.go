package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidID          = "invalid_id"
	codeUserRequired       = "user_required"
	codeEmptyCart          = "empty_cart"
	codeBookNotFound       = "book_not_found"
	codeInsufficientStock  = "insufficient_stock"
	codeInvalidCartState   = "invalid_cart_state"
	codeOrderNotFound      = "order_not_found"
	codeCartNotFound       = "cart_not_found"
	codeCartLineNotFound   = "cart_item_not_found"
	codeInvalidQuantity    = "invalid_quantity"
	codeInvalidPrice       = "invalid_price"
	codeInvalidStock       = "invalid_stock"
	codeTitleRequired      = "title_required"
	codeAuthorRequired     = "author_required"
	codeGenreRequired      = "genre_required"
	codeTransactionFailed  = "transaction_failed"
	codeForbidden          = "forbidden"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}
