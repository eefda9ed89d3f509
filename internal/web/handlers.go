package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/BetterCallFirewall/techscope/internal/host"
	"github.com/BetterCallFirewall/techscope/internal/models"
	"github.com/BetterCallFirewall/techscope/internal/orchestrator"
	"github.com/BetterCallFirewall/techscope/internal/page"
)

const maxRequestBody = 8 << 20

var errBadRequest = errors.New("bad request")

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (s *Server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		}
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, host.ErrTabNotFound), errors.Is(err, host.ErrNoActiveTab):
		return http.StatusNotFound
	case errors.Is(err, orchestrator.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, orchestrator.ErrNoResult):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// POST /api/detect
// Тело: {"tabId": 1}
// Отвечает после публикации финального отчета; ход анализа идет через /ws.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req models.StartDetectionRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, orchestrator.Ack(err))
		return
	}

	// анализ переживает UI, закрытый посреди запуска
	err := s.orchestrator.Start(context.WithoutCancel(r.Context()), req.TabID)
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
	}
	writeJSON(w, status, orchestrator.Ack(err))
}

// GET /api/technologies
func (s *Server) handleTechnologies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orchestrator.Technologies(r.Context()))
}

// GET /api/tabs
func (s *Server) handleListTabs(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, s.browser.Tabs())
	return nil
}

type openTabRequest struct {
	URL      string         `json:"url"`
	Active   bool           `json:"active"`
	Snapshot *page.Snapshot `json:"snapshot,omitempty"`
}

// POST /api/tabs
func (s *Server) handleOpenTab(w http.ResponseWriter, r *http.Request) error {
	var req openTabRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if req.URL == "" && req.Snapshot != nil {
		req.URL = req.Snapshot.URL
	}
	if req.URL == "" {
		return fmt.Errorf("%w: url is required", errBadRequest)
	}

	tab := s.browser.Open(req.URL, req.Active)
	if req.Snapshot != nil {
		if err := s.browser.Attach(tab.ID, *req.Snapshot); err != nil {
			return err
		}
		tab, _ = s.browser.Tab(r.Context(), tab.ID)
	}
	writeJSON(w, http.StatusCreated, tab)
	return nil
}

// GET /api/tabs/{id}/state
func (s *Server) handleTabState(w http.ResponseWriter, r *http.Request) error {
	id, err := tabID(r)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, s.orchestrator.State(id))
	return nil
}

// PUT /api/tabs/{id}/activate
func (s *Server) handleActivateTab(w http.ResponseWriter, r *http.Request) error {
	id, err := tabID(r)
	if err != nil {
		return err
	}
	if err := s.browser.Activate(id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// PUT /api/tabs/{id}/snapshot
func (s *Server) handleAttachSnapshot(w http.ResponseWriter, r *http.Request) error {
	id, err := tabID(r)
	if err != nil {
		return err
	}
	var snap page.Snapshot
	if err := decode(r, &snap); err != nil {
		return err
	}
	if err := s.browser.Attach(id, snap); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /api/tabs/{id}/requests
// Тело: {"urls": ["https://example.com/api/v1/items"]}
func (s *Server) handleObserveRequests(w http.ResponseWriter, r *http.Request) error {
	id, err := tabID(r)
	if err != nil {
		return err
	}
	var body struct {
		URLs []string `json:"urls"`
	}
	if err := decode(r, &body); err != nil {
		return err
	}
	if err := s.browser.Observe(id, body.URLs); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// DELETE /api/tabs/{id}
func (s *Server) handleCloseTab(w http.ResponseWriter, r *http.Request) error {
	id, err := tabID(r)
	if err != nil {
		return err
	}
	if err := s.browser.Close(id); err != nil {
		return err
	}
	s.orchestrator.Forget(id)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func tabID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid tab id %q", errBadRequest, raw)
	}
	return id, nil
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody)).Decode(dst); err != nil {
		return fmt.Errorf("%w: decoding body: %v", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
