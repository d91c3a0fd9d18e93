package rest

import (
	"encoding/json"
	"net/http"

	"github.com/canvasflow/canvasflow/logger"
	"github.com/canvasflow/canvasflow/model"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func (s *Server) HandleSaveWorkflow(w http.ResponseWriter, r *http.Request) {
	var wf model.Workflow
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed workflow definition")
		return
	}
	defer r.Body.Close()
	if err := s.metadataService.SaveWorkflow(wf); err != nil {
		logger.Error("error saving workflow", zap.String("name", wf.Name), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(w, map[string]any{"name": wf.Name})
}

func (s *Server) HandleValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	var wf model.Workflow
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed workflow definition")
		return
	}
	defer r.Body.Close()
	respondWithJSON(w, http.StatusOK, s.metadataService.Validate(wf))
}

func (s *Server) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	wf, err := s.metadataService.GetWorkflow(name)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "workflow not found")
		return
	}
	respondWithJSON(w, http.StatusOK, wf)
}

func (s *Server) HandleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := s.metadataService.DeleteWorkflow(name); err != nil {
		logger.Error("error deleting workflow", zap.String("name", name), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, "error deleting workflow")
		return
	}
	respondOK(w, map[string]any{"name": name})
}
