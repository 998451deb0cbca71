package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/audiocontrol/acrd/internal/acerr"
)

func encodeJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

// decodeB64Segment decodes an RFC 4648 §5 URL-safe, unpadded base64 path
// segment (spec.md §6).
func decodeB64Segment(segment string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// writeError renders an acerr.Error as the appropriate HTTP status; any
// other error is treated as Internal.
func writeError(w http.ResponseWriter, err error) {
	kind := acerr.KindOf(err)
	writeJSON(w, acerr.HTTPStatus(kind), map[string]any{
		"success": false,
		"message": err.Error(),
	})
}

// writeSuccessMessage renders the {success, message} shape spec.md §6 uses
// for several endpoints.
func writeSuccessMessage(w http.ResponseWriter, success bool, message string) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": success,
		"message": message,
	})
}
