package tasks

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound      = errors.New("task not found")
	ErrValidation    = errors.New("validation failed")
	ErrNoFields      = errors.New("no fields to update")
	ErrMalformedBody = errors.New("malformed body")

	// backend failures; the driver error itself is logged, never returned
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrWrite            = errors.New("store write failed")
	ErrSchema           = errors.New("schema creation failed")
)

// User-facing messages. The API speaks Portuguese, like the clients it serves.
const (
	msgTaskNotFound  = "Tarefa não encontrada"
	msgRouteNotFound = "Rota não encontrada"
	msgInvalidID     = "ID inválido"
	msgInvalidJSON   = "JSON inválido"
	msgTitleRequired = "O campo 'titulo' é obrigatório"
	msgTitleEmpty    = "O campo 'titulo' não pode ser vazio"
	msgTitleTooLong  = "O campo 'titulo' excede 100 caracteres"
	msgInvalidStatus = "Status inválido"
	msgNothingToSet  = "Nenhum dado válido para atualizar"
	msgSaveFailed    = "Erro ao salvar a tarefa"
	msgInternal      = "Erro interno do servidor"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// statusFor maps an error from the policy or the store to a status code and
// the message written in the response body. fallback is used for 500s.
func statusFor(err error, fallback string) (int, string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, ErrNoFields):
		return http.StatusBadRequest, msgNothingToSet
	case errors.Is(err, ErrMalformedBody):
		return http.StatusBadRequest, msgInvalidJSON
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, msgTaskNotFound
	default:
		return http.StatusInternalServerError, fallback
	}
}
