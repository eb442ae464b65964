package httpd

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ryansann/rolodex/pkg/contact"
	"github.com/ryansann/rolodex/pkg/service"
	"github.com/ryansann/rolodex/pkg/store"
)

// StatsFunc reports the store's operation counters for the health endpoint.
type StatsFunc func() store.Stats

// Handler routes contact API requests to the service layer.
type Handler struct {
	log   *logrus.Logger
	svc   *service.Service
	stats StatsFunc
	mux   *http.ServeMux
}

// NewHandler returns a Handler serving the contact API. stats may be nil, in
// which case the health endpoint omits counters.
func NewHandler(log *logrus.Logger, svc *service.Service, stats StatsFunc) *Handler {
	h := &Handler{
		log:   log,
		svc:   svc,
		stats: stats,
		mux:   http.NewServeMux(),
	}

	h.mux.HandleFunc("POST /create", h.handleCreate)
	h.mux.HandleFunc("PUT /update", h.handleUpdate)
	h.mux.HandleFunc("DELETE /delete", h.handleDelete)
	h.mux.HandleFunc("POST /search", h.handleSearch)
	h.mux.HandleFunc("GET /contacts/{id}", h.handleGet)
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /{$}", h.handleRoot)

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type batchErrorBody struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type batchResponse struct {
	Contacts []contact.Contact `json:"contacts"`
	Errors   []batchErrorBody  `json:"errors"`
}

// handleCreate handles POST /create. The body is a JSON array of contacts to
// create. All elements succeeding yields 201 with the created contacts; a mix
// of successes and failures yields 207 with both; nothing succeeding yields
// the status of the first failure.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var inputs []service.ContactInput
	if !h.decode(w, r, &inputs) {
		return
	}
	if len(inputs) == 0 {
		h.writeError(w, http.StatusBadRequest, "request body cannot be empty")
		return
	}

	created, errs := h.svc.CreateContacts(inputs)
	h.writeBatch(w, http.StatusCreated, created, errs)
}

// handleUpdate handles PUT /update. The body is a JSON array of partial
// updates, each carrying an id. Batch semantics match handleCreate.
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var inputs []service.UpdateInput
	if !h.decode(w, r, &inputs) {
		return
	}
	if len(inputs) == 0 {
		h.writeError(w, http.StatusBadRequest, "request body cannot be empty")
		return
	}

	updated, errs := h.svc.UpdateContacts(inputs)
	h.writeBatch(w, http.StatusOK, updated, errs)
}

// handleDelete handles DELETE /delete. The body is a JSON array of ids;
// missing ids are skipped, and the response carries the removed count.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if !h.decode(w, r, &ids) {
		return
	}
	if len(ids) == 0 {
		h.writeError(w, http.StatusBadRequest, "request body cannot be empty")
		return
	}

	n := h.svc.DeleteContacts(ids)
	h.writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// handleSearch handles POST /search with body {"query": "..."}.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if !h.decode(w, r, &body) {
		return
	}

	found := h.svc.SearchContacts(body.Query)
	if found == nil {
		found = []contact.Contact{}
	}
	h.writeJSON(w, http.StatusOK, found)
}

// handleGet handles GET /contacts/{id}.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetContact(r.PathValue("id"))
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, c)
}

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "healthy",
		"service": "rolodex",
	}
	if h.stats != nil {
		body["stats"] = h.stats()
	}

	h.writeJSON(w, http.StatusOK, body)
}

// handleRoot handles GET / with API information.
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "rolodex",
		"endpoints": map[string]string{
			"create": "POST /create",
			"update": "PUT /update",
			"delete": "DELETE /delete",
			"search": "POST /search",
			"get":    "GET /contacts/{id}",
			"health": "GET /health",
		},
	})
}

// decode reads the request body into v, writing a 400 and returning false on
// malformed input.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.log.Debugf("malformed request body: %v", err)
		h.writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return false
	}
	return true
}

// writeBatch writes the response for a partial-success batch operation.
func (h *Handler) writeBatch(w http.ResponseWriter, okStatus int, contacts []contact.Contact, errs []service.BatchError) {
	if len(errs) == 0 {
		h.writeJSON(w, okStatus, contacts)
		return
	}

	if contacts == nil {
		contacts = []contact.Contact{}
	}

	body := batchResponse{Contacts: contacts, Errors: make([]batchErrorBody, 0, len(errs))}
	for _, e := range errs {
		body.Errors = append(body.Errors, batchErrorBody{Index: e.Index, Error: e.Err.Error()})
	}

	// nothing succeeded: surface the first failure's status instead of 207
	status := http.StatusMultiStatus
	if len(contacts) == 0 {
		status = statusFor(errs[0].Err)
	}

	h.writeJSON(w, status, body)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("could not encode response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps the store error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
