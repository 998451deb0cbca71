package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/audiocontrol/acrd/internal/coverart"
	"github.com/audiocontrol/acrd/internal/model"
)

func (s *Server) handleCoverArtMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.CoverArt.Methods())
}

func (s *Server) handleCoverArtArtist(w http.ResponseWriter, r *http.Request) {
	name, err := decodeB64Segment(chi.URLParam(r, "nameB64"))
	if err != nil {
		// Lookup endpoints degrade to empty results on bad base64, never 400
		// (spec.md §6).
		writeJSON(w, http.StatusOK, map[string]any{"results": []model.CoverArtProviderResult{}})
		return
	}

	results, err := s.CoverArt.ArtistImages(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleCoverArtAlbum(w http.ResponseWriter, r *http.Request) {
	title, errTitle := decodeB64Segment(chi.URLParam(r, "titleB64"))
	artist, errArtist := decodeB64Segment(chi.URLParam(r, "artistB64"))
	if errTitle != nil || errArtist != nil {
		writeJSON(w, http.StatusOK, map[string]any{"results": []model.CoverArtProviderResult{}})
		return
	}

	var year *int
	if raw := chi.URLParam(r, "year"); raw != "" {
		if y, err := strconv.Atoi(raw); err == nil {
			year = &y
		}
	}

	results, err := s.CoverArt.AlbumImages(r.Context(), title, artist, year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleCoverArtUpdate(w http.ResponseWriter, r *http.Request) {
	name, err := decodeB64Segment(chi.URLParam(r, "nameB64"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid base64 artist segment"})
		return
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "malformed body"})
		return
	}

	if err := s.CoverArt.UpdateArtistOverride(r.Context(), name, body.URL); err != nil {
		writeError(w, err)
		return
	}
	writeSuccessMessage(w, true, "override recorded")
}

func (s *Server) handleCoverArtImage(w http.ResponseWriter, r *http.Request) {
	name, err := decodeB64Segment(chi.URLParam(r, "nameB64"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	data, ok := s.CoverArt.ArtistImageBytes(name)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", coverart.DetectMIME(data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
