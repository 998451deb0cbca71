package httpapi

import (
	"encoding/json"
	"net/http"
)

type settingsGetBody struct {
	Key string `json:"key"`
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	var body settingsGetBody
	if err := decodeJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "malformed body"})
		return
	}

	value, exists, err := s.Settings.Get(body.Key)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"key":     body.Key,
		"value":   rawOrNil(value),
		"exists":  exists,
	})
}

type settingsSetBody struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

func (s *Server) handleSettingsSet(w http.ResponseWriter, r *http.Request) {
	var body settingsSetBody
	if err := decodeJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "malformed body"})
		return
	}

	previous, hadPrevious, err := s.Settings.Set(body.Key, body.Value)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": err.Error()})
		return
	}

	resp := map[string]any{
		"success":        true,
		"key":            body.Key,
		"value":          rawOrNil(body.Value),
		"previous_value": rawOrNil(previous),
	}
	if !hadPrevious {
		resp["previous_value"] = nil
	}
	writeJSON(w, http.StatusOK, resp)
}

// rawOrNil lets a missing/empty json.RawMessage encode as JSON null rather
// than as an empty string.
func rawOrNil(v json.RawMessage) any {
	if len(v) == 0 {
		return nil
	}
	return v
}
