package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/audiocontrol/acrd/internal/volume"
)

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"success": true, "stats": s.Cache.Stats(), "message": nil}
	if s.CoverArt != nil {
		resp["image_cache_stats"] = s.CoverArt.Stats()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleJobsList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "jobs": s.Jobs.List(), "message": nil})
}

func (s *Server) handleJobsGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.Jobs.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "jobs": []any{}, "message": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "jobs": []any{job}, "message": nil})
}

func (s *Server) handleVolumeState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Volume.State())
}

type volumeSetBody struct {
	Percentage *float64 `json:"percentage"`
	Decibels   *float64 `json:"decibels"`
	Raw        *int     `json:"raw"`
}

func (s *Server) handleVolumeSet(w http.ResponseWriter, r *http.Request) {
	var body volumeSetBody
	if err := decodeJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "malformed body"})
		return
	}
	state := s.Volume.Set(volume.SetRequest{Percentage: body.Percentage, Decibels: body.Decibels, Raw: body.Raw})
	writeJSON(w, http.StatusOK, state)
}

func stepFromQuery(r *http.Request) float64 {
	amount := r.URL.Query().Get("amount")
	if amount == "" {
		return 5
	}
	v, err := strconv.ParseFloat(amount, 64)
	if err != nil || v <= 0 {
		return 5
	}
	return v
}

func (s *Server) handleVolumeIncrease(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Volume.Increase(stepFromQuery(r)))
}

func (s *Server) handleVolumeDecrease(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Volume.Decrease(stepFromQuery(r)))
}

func (s *Server) handleVolumeMute(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Volume.Mute())
}
