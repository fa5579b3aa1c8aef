package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lazypower/lethe/internal/capability"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sys.Status())
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	reg := s.sys.Registry()

	caps := make([]map[string]any, 0, reg.Count())
	for _, name := range reg.List() {
		meta, ok := reg.Metadata(name)
		if !ok {
			continue
		}
		caps = append(caps, capabilityJSON(meta))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":        reg.Count(),
		"active":       reg.ActiveCount(),
		"degraded":     reg.DegradedCount(),
		"capabilities": caps,
	})
}

func (s *Server) handleCapability(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	meta, ok := s.sys.Registry().Metadata(name)
	if !ok {
		http.Error(w, `{"error":"unknown capability"}`, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, capabilityJSON(meta))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)
	writeJSON(w, http.StatusOK, map[string]any{
		"events": s.sys.Engine().Recent(limit),
		"stats":  s.sys.Engine().Stats(),
	})
}

func (s *Server) handleChecks(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)
	writeJSON(w, http.StatusOK, map[string]any{
		"checks": s.sys.Safety().Recent(limit),
		"stats":  s.sys.Safety().Stats(),
	})
}

func (s *Server) handleNarrative(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 20)
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": s.sys.Narrator().Recent(limit),
		"mood":    s.sys.Narrator().CurrentMood(),
	})
}

func (s *Server) handleForceDecay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	// An empty body means weighted selection.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	ev, ok := s.sys.ForceDecay(req.Name)
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]string{
			"status": "blocked",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "decayed",
		"event":  ev,
	})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.sys.Pause()
	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.sys.Resume()
	writeJSON(w, http.StatusOK, map[string]string{"status": "resumed"})
}

func capabilityJSON(meta capability.Metadata) map[string]any {
	return map[string]any{
		"name":         meta.Name,
		"importance":   meta.Importance.String(),
		"dependencies": meta.Dependencies,
		"resistance":   meta.Resistance,
		"description":  meta.Description,
		"degraded":     meta.Degraded,
		"level":        meta.Level,
		"executions":   meta.ExecutionCount,
	}
}

func parseLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
