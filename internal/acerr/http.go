package acerr

import "net/http"

// HTTPStatus maps a Kind onto the status code SPEC_FULL.md §8 prescribes
// for endpoints that surface errors as non-200 responses. Endpoints that
// instead report failure via a `success:false` body (spec.md §6) ignore
// this and always return 200; see internal/httpapi for those call sites.
func HTTPStatus(kind Kind) int {
	switch kind {
	case InvalidArgument:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case NotSupported:
		return http.StatusMethodNotAllowed
	case Timeout:
		return http.StatusGatewayTimeout
	case Upstream:
		return http.StatusBadGateway
	case Conflict:
		return http.StatusConflict
	case Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
