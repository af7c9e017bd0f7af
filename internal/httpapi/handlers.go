package httpapi

import (
	"errors"
	"math"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/roach88/memento/internal/engine"
	"github.com/roach88/memento/internal/model"
	"github.com/roach88/memento/internal/uilog"
)

type startRequest struct {
	WorkerID     string `json:"workerID"`
	AssignmentID string `json:"assignmentID"`
	HitID        string `json:"hitID"`
}

type endRequest struct {
	WorkerID  string            `json:"workerID"`
	LevelID   int64             `json:"levelID"`
	Responses []model.Response  `json:"responses"`
	Inputs    model.LevelInputs `json:"inputs"`
	EndReason string            `json:"endReason"`
}

type submitRequest struct {
	LevelID      int64   `json:"levelID"`
	TaskTimeMsec float64 `json:"taskTimeMsec"`
	Feedback     string  `json:"feedback"`
}

type logRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.GetUserInfo(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !s.decode(w, r, &req, "") {
		return
	}

	tmpl, err := s.templates.Pick()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	inputs, err := s.svc.GetVideos(r.Context(), engine.AllocateArgs{
		WorkerID:      req.WorkerID,
		AssignmentRef: req.AssignmentID,
		HitRef:        req.HitID,
		Env:           clientEnv(r.UserAgent()),
	}, tmpl)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inputs)
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	var req endRequest
	if !s.decode(w, r, &req, engine.KindInvalidResults) {
		return
	}

	res, err := s.svc.SaveResponses(r.Context(), engine.SaveArgs{
		WorkerID:    req.WorkerID,
		LevelID:     req.LevelID,
		Responses:   req.Responses,
		LevelInputs: req.Inputs,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.EndReason != "" {
		s.logger(r).Debug("level ended", "level_id", req.LevelID, "reason", req.EndReason)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !s.decode(w, r, &req, "") {
		return
	}

	err := s.svc.SubmitLevel(r.Context(), req.LevelID, int64(math.Round(req.TaskTimeMsec)), req.Feedback)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if !s.decode(w, r, &req, "") {
		return
	}

	if err := s.uiLog.Write(req.Message); err != nil {
		if errors.Is(err, uilog.ErrMessageTooLong) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			s.logger(r).Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
