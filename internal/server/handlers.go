package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TanZiPeng/mcserver/internal/backup"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]any{"success": false, "error": err.Error()})
}

const fallbackPage = `<!DOCTYPE html>
<html>
<head><title>mcserver</title></head>
<body>
<h1>mcserver dashboard</h1>
<p>This page is not installed. The JSON API is available under <code>/api/</code>.</p>
</body>
</html>
`

// pageTemplates maps a route to the template file serving it. The dashboard
// and config views share the console page for now.
var pageTemplates = map[string]string{
	"/":          "home",
	"/console":   "console",
	"/dashboard": "console",
	"/config":    "console",
	"/backup":    "backup",
}

// handlePage serves a dashboard page from the templates directory. The page
// name comes from the fixed route table, never from user input.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	name := pageTemplates[r.URL.Path]
	if name == "" {
		name = "home"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	page, err := os.ReadFile(filepath.Join(s.templates, name+".html"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(fallbackPage))
		return
	}

	_, _ = w.Write(page)
}

type statusResponse struct {
	Status        string   `json:"status"`
	CPUPercent    float64  `json:"cpu_percent"`
	MemoryUsageMB float64  `json:"memory_usage_mb"`
	MemoryLimitMB float64  `json:"memory_limit_mb"`
	MemoryPercent float64  `json:"memory_percent"`
	Running       bool     `json:"running"`
	Ports         []string `json:"ports,omitempty"`
}

// handleStatus reports engine state plus a live resource sample. Probe
// failures come back as an error status in the body so the dashboard can
// render them instead of breaking its poll loop.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	info, err := s.containers.Info(r.Context())
	if err != nil {
		s.log.Warn("status probe failed", zap.Error(err))
		s.writeJSON(w, http.StatusOK, map[string]any{
			"status":  "error",
			"error":   err.Error(),
			"running": false,
		})
		return
	}

	s.writeJSON(w, http.StatusOK, statusResponse{
		Status:        info.Status,
		CPUPercent:    info.CPUPercent,
		MemoryUsageMB: info.MemoryUsageMB,
		MemoryLimitMB: info.MemoryLimitMB,
		MemoryPercent: info.MemoryPercent,
		Running:       info.Running,
		Ports:         info.Ports,
	})
}

func (s *Server) handleContainerStart(w http.ResponseWriter, r *http.Request) {
	running, err := s.containers.Running(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if running {
		s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "server is already running"})
		return
	}

	if err := s.containers.Start(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "server started"})
}

func (s *Server) handleContainerStop(w http.ResponseWriter, r *http.Request) {
	running, err := s.containers.Running(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !running {
		s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "server is already stopped"})
		return
	}

	if err := s.containers.Stop(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "server stopped"})
}

func (s *Server) handleContainerRestart(w http.ResponseWriter, r *http.Request) {
	if err := s.containers.Restart(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "server restarted"})
}

type commandRequest struct {
	Command string `json:"command"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	req.Command = strings.TrimSpace(req.Command)
	if req.Command == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("command is required"))
		return
	}

	running, err := s.containers.Running(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !running {
		s.writeError(w, http.StatusBadRequest, errors.New("server is not running"))
		return
	}

	res := s.console.Send(r.Context(), req.Command)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":   res.Success,
		"output":    res.Output,
		"exit_code": res.ExitCode,
	})
}

// handlePlayers degrades to an empty roster instead of failing: the
// dashboard polls this endpoint alongside status.
func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	empty := map[string]any{"players": []string{}, "count": 0, "max": 0}

	running, err := s.containers.Running(r.Context())
	if err != nil {
		empty["error"] = err.Error()
		s.writeJSON(w, http.StatusOK, empty)
		return
	}
	if !running {
		s.writeJSON(w, http.StatusOK, empty)
		return
	}

	list, err := s.console.Players(r.Context())
	if err != nil {
		empty["error"] = err.Error()
		s.writeJSON(w, http.StatusOK, empty)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"players": list.Players,
		"count":   list.Count,
		"max":     list.Max,
	})
}

func (s *Server) handleConfigGet(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.config.Get())
}

func (s *Server) handleConfigUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read request body: %w", err))
		return
	}

	if err := s.config.MergeJSON(body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "config updated"})
}

type backupStartRequest struct {
	Paths []string `json:"paths"`
}

func (s *Server) handleBackupStart(w http.ResponseWriter, r *http.Request) {
	var req backupStartRequest
	// the body is optional; absent or empty means a full backup
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if err := s.runner.StartAsync(req.Paths); err != nil {
		if errors.Is(err, backup.ErrBackupInProgress) {
			s.writeError(w, http.StatusConflict, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "backup started"})
}

func (s *Server) handleBackupHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"history": s.history.List(limit),
	})
}

func (s *Server) handleBackupGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := s.history.Get(id)
	if err != nil {
		if errors.Is(err, backup.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "backup": rec})
}
