package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/FreePeak/db-mcp-gateway/internal/domain"
)

type errorBody struct {
	Kind       string                  `json:"kind"`
	Message    string                  `json:"message"`
	Violations []domain.FieldViolation `json:"violations,omitempty"`
}

// WriteError writes a gateway error as a structured JSON response. Errors
// outside the domain taxonomy become a generic 500 with a safe message.
func WriteError(w http.ResponseWriter, err error) {
	body := errorBody{
		Kind:    string(domain.KindHandlerError),
		Message: "internal server error",
	}
	code := http.StatusInternalServerError

	var gatewayErr *domain.Error
	if errors.As(err, &gatewayErr) {
		body.Kind = string(gatewayErr.Kind)
		body.Message = gatewayErr.Message
		code = gatewayErr.Code
	}

	var inputErr *domain.InvalidInputError
	if errors.As(err, &inputErr) {
		body.Violations = inputErr.Violations
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"error": body})
}
