package engine

import "strings"

// MatchName reports whether short is a case-insensitive prefix of full taken
// as a whole, or of any whitespace-split word of full. Per design note #1,
// matching is case-insensitive.
func MatchName(short, full string) bool {
	if short == "" {
		return false
	}
	short = strings.ToLower(short)
	lower := strings.ToLower(full)
	if strings.HasPrefix(lower, short) {
		return true
	}
	for _, word := range strings.Fields(lower) {
		if strings.HasPrefix(word, short) {
			return true
		}
	}
	return false
}

// MatchList matches short against every candidate's name. If any candidate
// is an exact case-insensitive match, only exact matches are returned (the
// caller could not have been more specific); otherwise every prefix match is
// returned.
func MatchList(short string, candidates []string) []string {
	lower := strings.ToLower(short)
	var exact, prefix []string
	for _, c := range candidates {
		if strings.ToLower(c) == lower {
			exact = append(exact, c)
		}
		if MatchName(short, c) {
			prefix = append(prefix, c)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	return prefix
}

// FindResult is the triple outcome of Find.
type FindResult int

const (
	// FindNone means no candidate matched.
	FindNone FindResult = iota
	// FindMultiple means more than one candidate matched ambiguously.
	FindMultiple
	// FindOne means exactly one candidate matched.
	FindOne
)

// Find resolves short against names (a parallel slice to items), honoring
// the "me"/"here" aliases the caller supplies via resolveAlias. It returns
// the outcome and, for FindOne, the matched item; for FindMultiple, the
// list of ambiguous candidate names.
func Find(short string, names []string, items []interface{}, resolveAlias func(string) (interface{}, bool)) (FindResult, interface{}, []string) {
	if resolveAlias != nil {
		if item, ok := resolveAlias(short); ok {
			return FindOne, item, nil
		}
	}
	matches := MatchList(short, names)
	switch len(matches) {
	case 0:
		return FindNone, nil, nil
	case 1:
		for i, n := range names {
			if n == matches[0] {
				return FindOne, items[i], nil
			}
		}
		return FindNone, nil, nil
	default:
		return FindMultiple, nil, matches
	}
}
