package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/colchonesapp/pkg/errors"
	"github.com/go-chi/chi/v5"
)

// ParseIDParam reads a positive integer route parameter.
func ParseIDParam(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a positive integer").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// RequiredParam reads a non-blank route parameter.
func RequiredParam(r *http.Request, key string) (string, error) {
	value := SanitizeString(chi.URLParam(r, key), 64)
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "path parameter is required").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

func QueryString(r *http.Request, key string) string {
	return SanitizeString(r.URL.Query().Get(key), 64)
}

// QueryInt reads an optional positive integer query parameter; absent yields 0.
func QueryInt(r *http.Request, key string) (int, error) {
	raw := QueryString(r, key)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a positive integer").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}
