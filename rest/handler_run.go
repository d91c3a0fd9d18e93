package rest

import (
	"encoding/json"
	"net/http"

	"github.com/canvasflow/canvasflow/logger"
	"github.com/canvasflow/canvasflow/model"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HandleStartRun executes the workflow to a terminal state before
// responding. The response body is the complete run record; a failed run
// is still a 200 since the record itself is the error report.
func (s *Server) HandleStartRun(w http.ResponseWriter, r *http.Request) {
	var runReq model.WorkflowRunRequest
	if err := json.NewDecoder(r.Body).Decode(&runReq); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed run request")
		return
	}
	defer r.Body.Close()
	run, err := s.executionService.StartRun(r.Context(), runReq.Name, runReq.Input)
	if run == nil {
		logger.Error("error starting run", zap.String("name", runReq.Name), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, "error starting workflow run")
		return
	}
	respondWithJSON(w, http.StatusOK, run)
}

func (s *Server) HandleStartRunAsync(w http.ResponseWriter, r *http.Request) {
	var runReq model.WorkflowRunRequest
	if err := json.NewDecoder(r.Body).Decode(&runReq); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed run request")
		return
	}
	defer r.Body.Close()
	if err := s.executionService.StartRunAsync(runReq.Name, runReq.Input); err != nil {
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]any{"accepted": true})
}

func (s *Server) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	run, err := s.executionService.GetRun(id)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "run not found")
		return
	}
	respondWithJSON(w, http.StatusOK, run)
}

func (s *Server) HandleGetRunsForWorkflow(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	runs, err := s.executionService.GetRunsForWorkflow(name)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "error listing runs")
		return
	}
	respondWithJSON(w, http.StatusOK, runs)
}
