package shipping

import (
	"sort"
	"time"

	"github.com/angelmondragon/vitrine-backend/pkg/cep"
	"github.com/google/uuid"
)

// Zone is a named set of postal ranges and the methods offered inside them.
type Zone struct {
	ID        uuid.UUID
	StoreID   uuid.UUID
	Name      string
	SortOrder int
	Ranges    []cep.Range
	Methods   []Method
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contains expects an already normalized code.
func (z Zone) Contains(code string) bool {
	for _, r := range z.Ranges {
		if r.Contains(code) {
			return true
		}
	}
	return false
}

// Matcher selects the zones that serve a postal code.
type Matcher struct{}

// Match returns every zone containing raw, ordered by sort order then name.
// Overlapping zones are all returned. A malformed code matches nothing.
func (Matcher) Match(raw string, zones []Zone) []Zone {
	code, ok := cep.Normalize(raw)
	if !ok {
		return nil
	}
	var matched []Zone
	for _, z := range zones {
		if z.Contains(code) {
			matched = append(matched, z)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].SortOrder != matched[j].SortOrder {
			return matched[i].SortOrder < matched[j].SortOrder
		}
		return matched[i].Name < matched[j].Name
	})
	return matched
}
