package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/vitrine-backend/pkg/errors"
	"github.com/angelmondragon/vitrine-backend/pkg/pagination"
)

// ParseQueryInt reads an optional integer query parameter bounded by
// [min, max]. A missing value yields def.
func ParseQueryInt(r *http.Request, key string, def, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Field(key, "must be a whole number")
	}
	if n < min || n > max {
		return 0, pkgerrors.Field(key, fmt.Sprintf("must be between %d and %d", min, max))
	}
	return n, nil
}

// ParsePage reads ?limit= and ?cursor= for keyset listings.
func ParsePage(r *http.Request) (pagination.Params, error) {
	limit, err := ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
	if _, err := pagination.ParseCursor(cursor); err != nil {
		return pagination.Params{}, pkgerrors.Field("cursor", "is not a cursor this API issued")
	}
	return pagination.Params{Limit: limit, Cursor: cursor}, nil
}
