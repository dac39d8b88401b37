package service

import (
	"strings"

	"github.com/cassiap/servers/internal/dataset"
	"github.com/cassiap/servers/internal/normalize"
)

// MatchMode selects how pasted-list tokens are compared to cell values.
type MatchMode string

const (
	MatchExact    MatchMode = "exact"
	MatchContains MatchMode = "contains"
)

// FilterState is one snapshot of the user's filter selections. It is
// rebuilt on every interaction and never stored.
type FilterState struct {
	Selections map[Role][]string `json:"selections"`
	Query      string            `json:"query"`
	PastedText string            `json:"pasted_text"`
	MatchMode  MatchMode         `json:"match_mode"`
}

// View is a filtered, immutable window over a dataset: the source plus the
// surviving row indices. Every pipeline stage returns a new view and never
// mutates the source.
type View struct {
	Dataset *dataset.Dataset
	Indices []int
}

// NewView returns the unfiltered view over a dataset.
func NewView(ds *dataset.Dataset) View {
	indices := make([]int, len(ds.Rows))
	for i := range indices {
		indices[i] = i
	}
	return View{Dataset: ds, Indices: indices}
}

// Len returns the number of rows in the view.
func (v View) Len() int { return len(v.Indices) }

// FilterByValues keeps rows whose canonical string value at key is a
// member of allowed. An unassigned key or an empty selection means "no
// filter applied": the view passes through unchanged, not emptied.
func FilterByValues(v View, key string, allowed []string) View {
	if key == "" || len(allowed) == 0 {
		return v
	}
	if v.Dataset.ColumnIndex(key) < 0 {
		return v
	}

	allowedSet := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		allowedSet[a] = true
	}

	out := View{Dataset: v.Dataset}
	for _, i := range v.Indices {
		if allowedSet[v.Dataset.Value(i, key).String()] {
			out.Indices = append(out.Indices, i)
		}
	}
	return out
}

// TextSearch keeps rows where any of the given columns contains the query
// case- and accent-insensitively ("producao" matches "Produção"), a
// deliberate superset of plain case-insensitive matching. An empty query
// is a no-op; null cells never match.
func TextSearch(v View, keys []string, query string) View {
	if query == "" {
		return v
	}
	needle := normalize.Fold(query)

	out := View{Dataset: v.Dataset}
	for _, i := range v.Indices {
		for _, key := range keys {
			if key == "" {
				continue
			}
			cell := v.Dataset.Value(i, key)
			if cell.IsNull() {
				continue
			}
			if strings.Contains(normalize.Fold(cell.String()), needle) {
				out.Indices = append(out.Indices, i)
				break
			}
		}
	}
	return out
}

// ParsePastedTokens splits a pasted identifier block on newlines, commas,
// semicolons and whitespace, lowercases each token and deduplicates
// preserving first-seen order.
func ParsePastedTokens(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case '\n', '\r', ',', ';', ' ', '\t':
			return true
		}
		return false
	})

	seen := make(map[string]bool, len(fields))
	var tokens []string
	for _, f := range fields {
		t := strings.ToLower(f)
		if !seen[t] {
			seen[t] = true
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// PasteListFilter keeps rows whose lowercased value at key matches one of
// the pasted tokens: equality in exact mode, substring containment in
// contains mode. Unlike TextSearch, tokens and values are lowercased but
// never accent-folded; pasted identifiers compare byte-for-byte after
// casing. Empty pasted text or an unassigned key is a no-op.
func PasteListFilter(v View, key string, rawPastedText string, mode MatchMode) View {
	tokens := ParsePastedTokens(rawPastedText)
	if key == "" || len(tokens) == 0 {
		return v
	}
	if v.Dataset.ColumnIndex(key) < 0 {
		return v
	}

	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}

	out := View{Dataset: v.Dataset}
	for _, i := range v.Indices {
		cell := v.Dataset.Value(i, key)
		if cell.IsNull() {
			continue
		}
		val := strings.ToLower(cell.String())

		matched := false
		if mode == MatchContains {
			for _, t := range tokens {
				if strings.Contains(val, t) {
					matched = true
					break
				}
			}
		} else {
			matched = tokenSet[val]
		}
		if matched {
			out.Indices = append(out.Indices, i)
		}
	}
	return out
}

// Apply runs the full narrowing pipeline in its fixed order: team,
// environment, system, description, free-text search over hostname and
// description, then the pasted-list filter over the hostname column. Each
// stage consumes the previous stage's output (sequential AND).
func Apply(ds *dataset.Dataset, roles Assignment, state FilterState) View {
	v := NewView(ds)

	v = FilterByValues(v, roles.Key(RoleTeam), state.Selections[RoleTeam])
	v = FilterByValues(v, roles.Key(RoleEnvironment), state.Selections[RoleEnvironment])
	v = FilterByValues(v, roles.Key(RoleSystem), state.Selections[RoleSystem])
	v = FilterByValues(v, roles.Key(RoleDescription), state.Selections[RoleDescription])

	v = TextSearch(v, []string{roles.Key(RoleHostname), roles.Key(RoleDescription)}, state.Query)

	mode := state.MatchMode
	if mode == "" {
		mode = MatchExact
	}
	v = PasteListFilter(v, roles.Key(RoleHostname), state.PastedText, mode)

	return v
}

// Page returns the [start, end) bounds of the requested page over the
// view, clamped to the view's length. Page indices start at 0; a
// non-positive size falls back to 50.
func Page(v View, size, index int) (start, end int) {
	if size <= 0 {
		size = 50
	}
	if index < 0 {
		index = 0
	}
	start = index * size
	if start > v.Len() {
		start = v.Len()
	}
	end = start + size
	if end > v.Len() {
		end = v.Len()
	}
	return start, end
}
