package playlist

import "strings"

// Query selects records by display name and group.
//
// A record matches when its name matches any of Names (substring, or equality when Exact),
// its group contains any of Groups (when Groups is set), and its name contains none of
// Exclude. An empty Names matches every name. Matching is case-sensitive.
type Query struct {
	Names   []string
	Groups  []string
	Exclude []string
	Exact   bool
}

// Matches reports whether r satisfies q.
func (q Query) Matches(r Record) bool {
	return q.matchesName(r.DisplayName) && q.matchesGroup(r.Group) && !q.excluded(r.DisplayName)
}

func (q Query) matchesName(name string) bool {
	if len(q.Names) == 0 {
		return true
	}
	for _, p := range q.Names {
		if q.Exact && name == p || !q.Exact && strings.Contains(name, p) {
			return true
		}
	}
	return false
}

func (q Query) matchesGroup(group string) bool {
	if len(q.Groups) == 0 {
		return true
	}
	for _, p := range q.Groups {
		if strings.Contains(group, p) {
			return true
		}
	}
	return false
}

func (q Query) excluded(name string) bool {
	for _, p := range q.Exclude {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

func (q Query) String() string {
	s := strings.Join(q.Names, "|")
	if s == "" {
		s = "*"
	}
	if q.Exact {
		s = "=" + s
	}
	if len(q.Groups) > 0 {
		s += " in " + strings.Join(q.Groups, "|")
	}
	if len(q.Exclude) > 0 {
		s += " not " + strings.Join(q.Exclude, "|")
	}
	return s
}

// FindFirst returns the index of the leftmost record matching q, or -1.
func FindFirst(records []Record, q Query) int {
	for i := range records {
		if q.Matches(records[i]) {
			return i
		}
	}
	return -1
}

// FindAll returns the indices of every record matching q in ascending order.
func FindAll(records []Record, q Query) []int {
	var indices []int
	for i := range records {
		if q.Matches(records[i]) {
			indices = append(indices, i)
		}
	}
	return indices
}
