package httpapi

import (
	"net/http"
)

func (s *Server) handleFavouritesProviders(w http.ResponseWriter, r *http.Request) {
	statuses := s.Favourites.ProvidersStatus(r.Context())

	enabledCount := 0
	var enabledNames []string
	for _, st := range statuses {
		if st.Enabled {
			enabledCount++
			enabledNames = append(enabledNames, st.Name)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"enabled_providers": enabledNames,
		"total_providers":   len(statuses),
		"enabled_count":     enabledCount,
		"providers":         statuses,
	})
}

func (s *Server) handleFavouritesIsFavourite(w http.ResponseWriter, r *http.Request) {
	artist := r.URL.Query().Get("artist")
	title := r.URL.Query().Get("title")

	isFav, providers, err := s.Favourites.IsFavourite(r.Context(), artist, title)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"Err": map[string]any{"error": err.Error()}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"Ok": map[string]any{"is_favourite": isFav, "providers": providers},
	})
}

type favouritesBody struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

func (s *Server) handleFavouritesAdd(w http.ResponseWriter, r *http.Request) {
	var body favouritesBody
	if err := decodeJSON(r, &body); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"Err": map[string]any{"error": "malformed body"}})
		return
	}

	res, err := s.Favourites.Add(r.Context(), body.Artist, body.Title)
	if err != nil {
		// spec.md §6 wraps even validation errors in the Err envelope, not a non-200 status.
		writeJSON(w, http.StatusOK, map[string]any{"Err": map[string]any{"error": err.Error()}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"Ok": map[string]any{
		"success": res.Success, "message": res.Message,
		"providers": res.ProvidersConsidered, "updated_providers": res.ProvidersUpdated,
	}})
}

func (s *Server) handleFavouritesRemove(w http.ResponseWriter, r *http.Request) {
	var body favouritesBody
	if err := decodeJSON(r, &body); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"Err": map[string]any{"error": "malformed body"}})
		return
	}

	res, err := s.Favourites.Remove(r.Context(), body.Artist, body.Title)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"Err": map[string]any{"error": err.Error()}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"Ok": map[string]any{
		"success": res.Success, "message": res.Message,
		"providers": res.ProvidersConsidered, "updated_providers": res.ProvidersUpdated,
	}})
}
