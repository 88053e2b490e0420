package tasks

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// Body keys, Portuguese first. The English spelling is accepted as an alias.
var (
	titleKeys       = []string{"titulo", "title"}
	descriptionKeys = []string{"descricao", "description"}
	statusKeys      = []string{"status"}
)

// decodeInput reads a JSON object body. Any read or parse problem, including
// a top-level value that is not an object, is ErrMalformedBody.
func decodeInput(w http.ResponseWriter, r *http.Request) (Input, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return Input{}, ErrMalformedBody
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return Input{}, ErrMalformedBody
	}

	var in Input
	if in.Title, err = stringField(obj, titleKeys); err != nil {
		return Input{}, err
	}
	if in.Description, err = stringField(obj, descriptionKeys); err != nil {
		return Input{}, err
	}
	if in.Status, err = stringField(obj, statusKeys); err != nil {
		return Input{}, err
	}
	return in, nil
}

func stringField(obj map[string]json.RawMessage, keys []string) (Optional[string], error) {
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok || string(raw) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Optional[string]{}, ErrMalformedBody
		}
		return Some(s), nil
	}
	return Optional[string]{}, nil
}

type taskResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      Status  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

func encodeTask(t Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func encodeTasks(list []Task) []taskResponse {
	out := make([]taskResponse, 0, len(list))
	for _, t := range list {
		out = append(out, encodeTask(t))
	}
	return out
}

type errorResponse struct {
	Error string `json:"error"`
}

// responder writes exactly one response. Later attempts are dropped.
type responder struct {
	w       http.ResponseWriter
	log     *zerolog.Logger
	written bool
}

func newResponder(w http.ResponseWriter, log *zerolog.Logger) *responder {
	return &responder{w: w, log: log}
}

func (rs *responder) JSON(status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		rs.log.Error().Err(err).Msg("encode response")
		status = http.StatusInternalServerError
		b, _ = json.Marshal(errorResponse{Error: msgInternal})
	}
	if !rs.claim(status) {
		return
	}
	rs.w.Header().Set("Content-Type", "application/json")
	rs.w.WriteHeader(status)
	if _, err := rs.w.Write(b); err != nil {
		rs.log.Warn().Err(err).Msg("write response body")
	}
}

func (rs *responder) Error(status int, msg string) {
	rs.JSON(status, errorResponse{Error: msg})
}

func (rs *responder) NoContent() {
	if !rs.claim(http.StatusNoContent) {
		return
	}
	rs.w.WriteHeader(http.StatusNoContent)
}

func (rs *responder) Written() bool {
	return rs.written
}

func (rs *responder) claim(status int) bool {
	if rs.written {
		rs.log.Error().Int("status", status).Msg("response already written, dropping second write")
		return false
	}
	rs.written = true
	return true
}
