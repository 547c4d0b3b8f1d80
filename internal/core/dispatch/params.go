package dispatch

import (
	"math"

	"github.com/google/uuid"

	"github.com/OmniCloudOrg/CPI-Detee/internal/core/domain"
)

// stringParam returns a required string parameter.
func stringParam(params map[string]any, key string) (string, *domain.Error) {
	v, ok := params[key]
	if !ok {
		return "", domain.NewError(domain.ErrInvalidParameter, "missing required parameter %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", domain.NewError(domain.ErrInvalidParameter, "parameter %q must be a string", key)
	}
	return s, nil
}

// presentStringParam returns a parameter that must be present but may be the
// empty string (update_worker's pre-formatted flag strings).
func presentStringParam(params map[string]any, key string) (string, *domain.Error) {
	return stringParam(params, key)
}

// optStringParam returns an optional string parameter, "" when absent.
func optStringParam(params map[string]any, key string) (string, *domain.Error) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", domain.NewError(domain.ErrInvalidParameter, "parameter %q must be a string", key)
	}
	return s, nil
}

// optIntParam returns an optional integer parameter, 0 when absent. JSON
// numbers arrive as float64; integral values are accepted, anything else is
// malformed.
func optIntParam(params map[string]any, key string) (int64, *domain.Error) {
	v, ok := params[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, domain.NewError(domain.ErrInvalidParameter, "parameter %q must be an integer", key)
		}
		return int64(n), nil
	default:
		return 0, domain.NewError(domain.ErrInvalidParameter, "parameter %q must be an integer", key)
	}
}

// workerIDParam returns the required worker_id parameter, validated as a
// UUID. Lookups and mutations key on the uuid alone.
func workerIDParam(params map[string]any) (string, *domain.Error) {
	id, derr := stringParam(params, "worker_id")
	if derr != nil {
		return "", derr
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", domain.NewError(domain.ErrInvalidParameter, "worker_id %q is not a valid uuid", id)
	}
	return id, nil
}
