package flow

import "strings"

// maxQueries bounds the number of search queries built for one pass. The
// phone-qualified query is appended last and therefore dropped first.
const maxQueries = 5

// queryFields is the fixed order in which identity fields contribute to the
// base query string.
var queryFields = []string{"first_name", "last_name", "surname", "phone"}

// BuildQueries turns raw identity fields into an ordered list of web-search
// query strings. It is deterministic and has no side effects.
func BuildQueries(inputs map[string]string) []string {
	var parts []string
	for _, k := range queryFields {
		if v := strings.TrimSpace(inputs[k]); v != "" {
			parts = append(parts, v)
		}
	}
	base := strings.Join(parts, " ")
	if base == "" {
		return nil
	}

	queries := []string{
		base,
		base + " linkedin",
		base + " github",
		base + " twitter",
		base + " facebook",
	}
	if phone := strings.TrimSpace(inputs["phone"]); phone != "" {
		queries = append(queries, base+" phone "+phone)
	}
	if len(queries) > maxQueries {
		queries = queries[:maxQueries]
	}
	return queries
}
