package classification

import (
	"strconv"
	"strings"

	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// Facets serializes the ancestor chain of parts for hierarchical prefix
// search: one string per level, "{level}/{part0}/.../{partLevel}".
func Facets(parts []string) []string {
	out := make([]string, len(parts))
	for i := range parts {
		out[i] = strconv.Itoa(i) + "/" + strings.Join(parts[:i+1], "/")
	}
	return out
}

// FacetString joins facets with commas.
func FacetString(facets []string) string { return strings.Join(facets, ",") }

// SplitFacets splits a comma-joined facet string, dropping empty entries.
func SplitFacets(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// parseFacet reads "{level}/{part0}/.../{partLevel}".
func parseFacet(f string) ([]string, error) {
	fields := strings.Split(f, "/")
	if len(fields) < 2 {
		return nil, errors.Newf(errors.ErrCodeFacetInvalid, "facet %q", f)
	}
	level, err := strconv.Atoi(fields[0])
	if err != nil || level != len(fields)-2 {
		return nil, errors.Newf(errors.ErrCodeFacetInvalid, "facet %q level does not match its parts", f)
	}
	return fields[1:], nil
}

// FromFacets recovers the most specific classifications of std from a facet
// list: for each tree root, the deepest facet sharing that root is rebuilt.
// Results follow the order in which roots first appear.
func FromFacets(std Standard, facets []string) ([]Classification, error) {
	type pick struct {
		parts []string
	}
	var roots []string
	deepest := make(map[string]pick)

	for _, f := range facets {
		parts, err := parseFacet(f)
		if err != nil {
			return nil, err
		}
		root := parts[0]
		cur, seen := deepest[root]
		if !seen {
			roots = append(roots, root)
		}
		if !seen || len(parts) > len(cur.parts) {
			deepest[root] = pick{parts: parts}
		}
	}

	out := make([]Classification, 0, len(roots))
	for _, root := range roots {
		c, err := FromParts(std, deepest[root].parts)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

//Personal.AI order the ending
