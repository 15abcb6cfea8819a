package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mmsearch-dev/mmsearch/internal/apierr"
	"github.com/mmsearch-dev/mmsearch/internal/model"
)

type insertSingleResponse struct {
	TaskID string `json:"task_id"`
}

func (s *Server) handleInsertSingle(w http.ResponseWriter, r *http.Request) {
	var item model.RawItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respondError(w, r, apierr.Wrap(apierr.Validation, "malformed request body", err))
		return
	}

	id, err := s.facade.InsertSingle(r.Context(), item)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, insertSingleResponse{TaskID: id})
}

type insertBatchRequest struct {
	Items []model.RawItem `json:"items"`
}

func (s *Server) handleInsertBatch(w http.ResponseWriter, r *http.Request) {
	var req insertBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, apierr.Wrap(apierr.Validation, "malformed request body", err))
		return
	}

	id, err := s.facade.InsertBatch(r.Context(), req.Items)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, insertSingleResponse{TaskID: id})
}

type searchRequest struct {
	model.RawItem
	TopK int `json:"top_k"`
}

type searchResponse struct {
	Hits []model.SearchHit `json:"hits"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, apierr.Wrap(apierr.Validation, "malformed request body", err))
		return
	}

	hits, err := s.facade.Search(r.Context(), req.RawItem, req.TopK)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, searchResponse{Hits: hits})
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, err := s.facade.TaskStatus(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, record)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.facade.Statistics(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)

	result, err := s.facade.List(r.Context(), page, pageSize)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := s.facade.DeleteAll(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
