package share

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

const maxBody = 4 << 20

// Handler serves POST /api/share and GET /api/share?id=.
type Handler struct {
	Store *MemStore
}

func NewHandler(s *MemStore) *Handler { return &Handler{Store: s} }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.post(w, r)
	case http.MethodGet:
		h.get(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if err := validate(data); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.Store.Put(data)
	if err != nil {
		log.Error().Err(err).Msg("share store")
		writeError(w, http.StatusInternalServerError, "could not store state")
		return
	}
	log.Info().Str("id", id).Int("bytes", len(data)).Msg("state shared")
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}
	data, err := h.Store.Get(id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// validate requires a JSON object with a banks array.
func validate(data []byte) error {
	var state struct {
		Banks []json.RawMessage `json:"banks"`
	}
	if err := json.Unmarshal(data, &state); err != nil || state.Banks == nil {
		return ErrInvalidState
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
