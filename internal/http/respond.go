package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"nextshoptx/internal/gateway"
	"nextshoptx/internal/services"
)

// errorCode is the stable machine-readable part of the error envelope,
// carried as an object alongside the human dialog. Codes and messages
// match the storefront's error contract, misspelling included.
type errorCode struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var (
	codeUnprocessable = errorCode{Code: "NS_001", Message: "Request data is not proccessable"}
	codeServer        = errorCode{Code: "NS_002", Message: "Database server has some error"}
	codeUnauthorized  = errorCode{Code: "NS_003", Message: "Not authorized for this operation"}
	codeBadRequest    = errorCode{Code: "NS_005", Message: "Bad Request"}
	codeGateway       = errorCode{Code: "NS_011", Message: "Payment gateway has some error"}
	codeConflict      = errorCode{Code: "NS_012", Message: "Conflicting request state"}
)

type dialog struct {
	Header  string `json:"header"`
	Message string `json:"message"`
}

type errorResponse struct {
	Message string    `json:"message"`
	Valid   bool      `json:"valid"`
	Error   errorCode `json:"error"`
	Dialog  dialog    `json:"dialog"`
}

type successResponse struct {
	Message string `json:"message"`
	Valid   bool   `json:"valid"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, successResponse{Message: message, Valid: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, code errorCode, message, header, detail string) {
	writeJSON(w, status, errorResponse{
		Message: message,
		Valid:   false,
		Error:   code,
		Dialog:  dialog{Header: header, Message: detail},
	})
}

// writeServiceError maps the service error taxonomy onto HTTP status,
// machine code and dialog. Unknown errors collapse into a generic server
// error; detail stays in the server log, never in the body.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPriceNotProcessable),
		errors.Is(err, services.ErrQuantityNotProcessable),
		errors.Is(err, services.ErrProductNotProcessable),
		errors.Is(err, services.ErrAddressNotProcessable),
		errors.Is(err, services.ErrOrderNotProcessable),
		errors.Is(err, services.ErrRefundFailed):
		writeError(w, http.StatusUnprocessableEntity, codeUnprocessable,
			err.Error(), "Wrong input", "The request cannot be processed")

	case errors.Is(err, services.ErrBadSignature):
		writeError(w, http.StatusBadRequest, codeBadRequest,
			"Bad Request", "Bad API Body", "Bad Request to server")

	case errors.Is(err, services.ErrNotAuthorized):
		writeError(w, http.StatusUnauthorized, codeUnauthorized,
			"Unauthorized", "Unauthorized", "You cannot act on this order")

	case errors.Is(err, services.ErrAlreadyDecided):
		writeError(w, http.StatusConflict, codeConflict,
			"Order already decided", "Already decided", "A decision has already been recorded for this order")

	case errors.Is(err, gateway.ErrGateway):
		writeError(w, http.StatusBadGateway, codeGateway,
			"Payment gateway has some error", "Payment error", "Payment gateway has some error")

	default:
		writeError(w, http.StatusInternalServerError, codeServer,
			"Something went wrong", "Server error", "There is some error in server. Please try again later")
	}
}
