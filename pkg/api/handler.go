package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/hazyhaar/termfix/pkg/kit"
	"github.com/hazyhaar/termfix/pkg/terms"
)

// NewRouter returns an http.Handler with all term API routes.
func NewRouter(eps *Endpoints) http.Handler {
	h := &handler{eps: eps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/fix", h.handleFix)
		r.Get("/terms", h.handleListTerms)
		r.Post("/terms", h.handleAddTerm)
		r.Get("/history", h.handleHistory)
		r.Get("/health", h.handleHealth)
	})
	return r
}

type handler struct {
	eps *Endpoints
}

func (h *handler) call(r *http.Request, ep kit.Endpoint, req any) (any, error) {
	ctx := kit.WithTransport(r.Context(), "http")
	ctx = kit.WithRequestID(ctx, middleware.GetReqID(r.Context()))
	return ep(ctx, req)
}

// --- fix ---

type fixResponse struct {
	Text string `json:"text"`
}

func (h *handler) handleFix(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2<<20)
	var req fixTermsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := h.call(r, h.eps.FixTerms, &req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, fixResponse{Text: resp.(string)})
}

// --- add ---

type addResponse struct {
	Message string `json:"message"`
}

func (h *handler) handleAddTerm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
	var req addTermReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := h.call(r, h.eps.AddTerm, &req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, addResponse{Message: resp.(string)})
}

// --- list ---

func (h *handler) handleListTerms(w http.ResponseWriter, r *http.Request) {
	resp, err := h.call(r, h.eps.ListTerms, nil)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- history ---

func (h *handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	req := &historyReq{Canonical: r.URL.Query().Get("canonical")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		req.Limit = n
	}
	resp, err := h.call(r, h.eps.History, req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status string      `json:"status"`
	Cache  terms.Stats `json:"cache"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := h.eps.norm.Cache().Stats(h.eps.norm.Path())
	status := "ok"
	if st.Error != "" {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: status, Cache: st})
}

// --- helpers ---

func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs), errors.Is(err, terms.ErrEmptyCanonical):
		return http.StatusBadRequest
	case errors.Is(err, errHistoryDisabled):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
