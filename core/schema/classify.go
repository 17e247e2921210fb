package schema

import "strings"

// HeaderMatch records which header a role resolved to and how.
type HeaderMatch struct {
	Key      string // original header text
	CleanKey string // normalized form that matched
	Exact    bool   // matched by full-token equality rather than affix
}

// Detection is a HeaderMatch bound to the cell value of one row.
type Detection struct {
	Key      string `json:"key"`
	CleanKey string `json:"clean_key"`
	Value    string `json:"value"`
}

// CleanKey normalizes a header for matching: trim, lowercase, spaces and
// hyphens collapsed to underscores, parentheses stripped.
func CleanKey(header string) string {
	k := strings.ToLower(strings.TrimSpace(header))
	k = strings.ReplaceAll(k, " ", "_")
	k = strings.ReplaceAll(k, "-", "_")
	k = strings.ReplaceAll(k, "(", "")
	k = strings.ReplaceAll(k, ")", "")
	return k
}

// MapHeaders resolves each role to at most one header. Two passes over the
// headers in order: pass 1 keeps only exact full-token matches, first one
// per role wins and locks that role; pass 2 fills still-open roles by
// affix matching (prefix "syn_", suffix "_syn", interior "_syn_"). An
// exact match can therefore never lose to a partial one: a column named
// "price" beats "unit_price" no matter where each sits in the sheet.
// Headers matching no synonym for any role yield no entry.
func MapHeaders(headers []string) map[Role]HeaderMatch {
	result := make(map[Role]HeaderMatch)

	for _, header := range headers {
		clean := CleanKey(header)
		for _, role := range roleOrder {
			if _, ok := result[role]; ok {
				continue
			}
			if matchExact(clean, roleSynonyms[role]) {
				result[role] = HeaderMatch{Key: header, CleanKey: clean, Exact: true}
			}
		}
	}

	for _, header := range headers {
		clean := CleanKey(header)
		for _, role := range roleOrder {
			if _, ok := result[role]; ok {
				continue
			}
			if matchPartial(clean, roleSynonyms[role]) {
				result[role] = HeaderMatch{Key: header, CleanKey: clean}
			}
		}
	}

	return result
}

// Classify maps the classified columns of one row to their cell values.
// headers carries the column order; row is keyed by those headers.
func Classify(headers []string, row map[string]string) map[Role]Detection {
	return bind(MapHeaders(headers), row)
}

func bind(mapping map[Role]HeaderMatch, row map[string]string) map[Role]Detection {
	result := make(map[Role]Detection, len(mapping))
	for role, match := range mapping {
		result[role] = Detection{
			Key:      match.Key,
			CleanKey: match.CleanKey,
			Value:    row[match.Key],
		}
	}
	return result
}

func matchExact(clean string, synonyms []string) bool {
	for _, syn := range synonyms {
		if clean == syn {
			return true
		}
	}
	return false
}

func matchPartial(clean string, synonyms []string) bool {
	for _, syn := range synonyms {
		if strings.HasPrefix(clean, syn+"_") ||
			strings.HasSuffix(clean, "_"+syn) ||
			strings.Contains(clean, "_"+syn+"_") {
			return true
		}
	}
	return false
}
