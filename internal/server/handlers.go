package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitevault/sitevault/internal/manifest"
	"github.com/sitevault/sitevault/internal/session"
)

// archiveRequest is the payload for POST /api/archives.
type archiveRequest struct {
	URL      string `json:"url"`
	MaxPages int    `json:"maxPages,omitempty"` //nolint:tagliatelle // matches the manifest schema
}

// archiveResponse is the payload for a 202 from POST /api/archives.
type archiveResponse struct {
	Status string `json:"status"`
	TaskID string `json:"taskId"` //nolint:tagliatelle // matches the manifest schema
}

type domainsResponse struct {
	Domains []string `json:"domains"`
}

type sessionsResponse struct {
	Domain   string             `json:"domain"`
	Sessions []manifest.Session `json:"sessions"`
}

type tasksResponse struct {
	Tasks []session.Task `json:"tasks"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreateArchive accepts an archive request and launches the crawl
// in the background. The response carries the task id for polling.
func (s *Server) handleCreateArchive(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")

		return
	}
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")

		return
	}

	opts := []session.Option{session.WithLogger(s.logger)}
	if req.MaxPages > 0 {
		opts = append(opts, session.WithMaxPages(req.MaxPages))
	}
	if s.fetchLog != nil {
		opts = append(opts, session.WithFetchLog(s.fetchLog))
	}

	sess, err := session.New(req.URL, s.cfg, opts...)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	task := s.tracker.Launch(s.baseCtx, sess)
	s.logger.Info("archive task accepted", "task", task.ID, "url", req.URL)

	s.writeJSON(w, http.StatusAccepted, archiveResponse{
		Status: "accepted",
		TaskID: task.ID,
	})
}

func (s *Server) handleListDomains(w http.ResponseWriter, _ *http.Request) {
	domains, err := manifest.ListDomains(s.cfg.ArchiveRoot)
	if err != nil {
		s.logger.Error("failed to list domains", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list archives")

		return
	}
	if domains == nil {
		domains = []string{}
	}

	s.writeJSON(w, http.StatusOK, domainsResponse{Domains: domains})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	sessions, err := manifest.ListSessions(s.cfg.ArchiveRoot, domain)
	if err != nil {
		s.logger.Error("failed to list sessions", "domain", domain, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list archives")

		return
	}
	if sessions == nil {
		sessions = []manifest.Session{}
	}

	s.writeJSON(w, http.StatusOK, sessionsResponse{
		Domain:   domain,
		Sessions: sessions,
	})
}

func (s *Server) handleListTasks(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, tasksResponse{Tasks: s.tracker.Tasks()})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, ok := s.tracker.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "task not found")

		return
	}

	s.writeJSON(w, http.StatusOK, task)
}

// handleCancelTask stops a pending or running task. Canceling a task
// that already finished is a conflict, not a success.
func (s *Server) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, ok := s.tracker.Get(id); !ok {
		s.writeError(w, http.StatusNotFound, "task not found")

		return
	}
	if !s.tracker.Cancel(id) {
		s.writeError(w, http.StatusConflict, "task already finished")

		return
	}

	s.logger.Info("archive task canceled", "task", id)
	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "canceling",
		"taskId": id,
	})
}
