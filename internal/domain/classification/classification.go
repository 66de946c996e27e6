// Package classification parses patent classification codes of the five
// numbering standards found in USPTO products (CPC, IPC, USPC, Locarno and
// DWPI) into hierarchical part chains.
//
// Every classification is represented by its cumulative part chain: part i is
// the full code down to hierarchy level i, so "D07B 2201/2051" is
//
//	D, D07, D07B, D07B2201, D07B22012051
//
// Depth is the length of the chain.  Containment and equality compare chains
// position by position, and facets serialize each ancestor as
// "{level}/{part0}/{part1}/.../{partN}".
package classification

import (
	"sort"
	"strings"

	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// Standard names a classification numbering scheme.
type Standard string

const (
	StandardCPC     Standard = "cpc"
	StandardIPC     Standard = "ipc"
	StandardUSPC    Standard = "uspc"
	StandardLocarno Standard = "locarno"
	StandardDWPI    Standard = "dwpi"
)

// Standards lists every supported standard in ParseAny order.
var Standards = []Standard{StandardCPC, StandardIPC, StandardUSPC, StandardLocarno, StandardDWPI}

// ParseStandard maps a case-insensitive name to a Standard.
func ParseStandard(s string) (Standard, error) {
	switch Standard(strings.ToLower(strings.TrimSpace(s))) {
	case StandardCPC:
		return StandardCPC, nil
	case StandardIPC, "ipcr":
		return StandardIPC, nil
	case StandardUSPC, "uspc-main", "nclass":
		return StandardUSPC, nil
	case StandardLocarno, "lcn":
		return StandardLocarno, nil
	case StandardDWPI, "derwent":
		return StandardDWPI, nil
	}
	return "", errors.Newf(errors.ErrCodeClassificationUnsupported, "classification standard %q", s)
}

// Classification is a parsed code of one standard.
type Classification interface {
	Standard() Standard
	// Parts returns the cumulative part chain, root first.
	Parts() []string
	Depth() int
	// Normalized is the canonical printed form; re-parsing it yields the
	// same parts.
	Normalized() string
	// IsMain reports the main (USPC, IPC) or inventive (CPC) flag.
	IsMain() bool
	// Raw is the text the classification was parsed from.
	Raw() string
	Facets() []string
	Contains(other Classification) bool
	Equal(other Classification) bool
	// Truncate returns the ancestor at depth, or the receiver when depth is
	// not smaller than Depth().
	Truncate(depth int) Classification
	String() string
}

// Option adjusts a parsed classification.
type Option func(*base)

// Main sets the main/inventive flag.
func Main(main bool) Option { return func(b *base) { b.main = main } }

// base carries the state shared by every standard.
type base struct {
	standard   Standard
	parts      []string
	normalized string
	raw        string
	main       bool
}

func (b *base) Standard() Standard { return b.standard }
func (b *base) Depth() int         { return len(b.parts) }
func (b *base) Normalized() string { return b.normalized }
func (b *base) IsMain() bool       { return b.main }
func (b *base) Raw() string        { return b.raw }
func (b *base) String() string     { return b.normalized }

func (b *base) Parts() []string {
	out := make([]string, len(b.parts))
	copy(out, b.parts)
	return out
}

func (b *base) Facets() []string { return Facets(b.parts) }

func (b *base) Contains(other Classification) bool {
	return other != nil && contains(b, other)
}

func (b *base) Equal(other Classification) bool {
	return other != nil && contains(b, other) && contains(other, b)
}

func (b *base) apply(opts []Option) {
	for _, o := range opts {
		o(b)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Hierarchy
// ─────────────────────────────────────────────────────────────────────────────

// chain is the part of Classification the hierarchy operations need.
type chain interface {
	Standard() Standard
	Parts() []string
	Depth() int
}

// Contains reports whether a is an ancestor of, or equal to, b: both share a
// standard and every part of a matches the part of b at the same level.
func Contains(a, b Classification) bool {
	if a == nil || b == nil {
		return false
	}
	return contains(a, b)
}

func contains(a, b chain) bool {
	if a.Standard() != b.Standard() || a.Depth() > b.Depth() {
		return false
	}
	ap, bp := a.Parts(), b.Parts()
	for i := range ap {
		if ap[i] != bp[i] {
			return false
		}
	}
	return true
}

// Equal is containment in both directions.
func Equal(a, b Classification) bool {
	return Contains(a, b) && Contains(b, a)
}

// ─────────────────────────────────────────────────────────────────────────────
// Parsing entry points
// ─────────────────────────────────────────────────────────────────────────────

// Parse parses s under the grammar of std.
func Parse(std Standard, s string, opts ...Option) (Classification, error) {
	switch std {
	case StandardCPC:
		return widen(ParseCPC(s, opts...))
	case StandardIPC:
		return widen(ParseIPC(s, opts...))
	case StandardUSPC:
		return widen(ParseUSPC(s, opts...))
	case StandardLocarno:
		return widen(ParseLocarno(s, opts...))
	case StandardDWPI:
		return widen(ParseDWPI(s, opts...))
	}
	return nil, errors.Newf(errors.ErrCodeClassificationUnsupported, "classification standard %q", std)
}

// widen converts a concrete parse result so that a failed parse yields a nil
// interface rather than a typed nil.
func widen[T Classification](c T, err error) (Classification, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ParseAny tries every grammar in Standards order and returns the first
// match.
func ParseAny(s string, opts ...Option) (Classification, error) {
	for _, std := range Standards {
		if c, err := Parse(std, s, opts...); err == nil {
			return c, nil
		}
	}
	return nil, errors.Newf(errors.ErrCodeClassificationInvalid, "%q matches no classification grammar", s)
}

// FromParts rebuilds a classification from its cumulative part chain.
func FromParts(std Standard, parts []string, opts ...Option) (Classification, error) {
	if len(parts) == 0 {
		return nil, errors.New(errors.ErrCodeFacetInvalid, "empty part chain")
	}
	for i := 1; i < len(parts); i++ {
		if !strings.HasPrefix(parts[i], parts[i-1]) || len(parts[i]) == len(parts[i-1]) {
			return nil, errors.Newf(errors.ErrCodeFacetInvalid, "part %q does not extend %q", parts[i], parts[i-1])
		}
	}
	var text string
	switch std {
	case StandardCPC, StandardIPC:
		sec, cls, sub, mg, sg, err := splitGroupParts(parts)
		if err != nil {
			return nil, err
		}
		text = groupText(sec, cls, sub, mg, sg)
	case StandardUSPC:
		text = uspcText(parts)
	case StandardLocarno:
		text = locarnoText(parts)
	case StandardDWPI:
		text = dwpiText(parts)
	default:
		return nil, errors.Newf(errors.ErrCodeClassificationUnsupported, "classification standard %q", std)
	}

	c, err := Parse(std, text, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeFacetInvalid, "rebuild %s from %v", std, parts)
	}
	got := c.Parts()
	if len(got) != len(parts) {
		return nil, errors.Newf(errors.ErrCodeFacetInvalid, "%s parts %v rebuild as %v", std, parts, got)
	}
	for i := range got {
		if got[i] != parts[i] {
			return nil, errors.Newf(errors.ErrCodeFacetInvalid, "%s parts %v rebuild as %v", std, parts, got)
		}
	}
	return c, nil
}

func truncate(c Classification, depth int) Classification {
	if depth <= 0 || depth >= c.Depth() {
		return c
	}
	t, err := FromParts(c.Standard(), c.Parts()[:depth], Main(c.IsMain()))
	if err != nil {
		return c
	}
	return t
}

// ─────────────────────────────────────────────────────────────────────────────
// Set
// ─────────────────────────────────────────────────────────────────────────────

// Set is an insertion-ordered collection of classifications without
// duplicates.  Adding an equal classification with the main flag set
// promotes the stored entry.
type Set struct {
	items []Classification
	index map[string]int
}

// NewSet returns a Set holding cs.
func NewSet(cs ...Classification) *Set {
	s := &Set{index: make(map[string]int)}
	for _, c := range cs {
		s.Add(c)
	}
	return s
}

func setKey(c Classification) string {
	return string(c.Standard()) + ":" + c.Normalized()
}

// Add inserts c and reports whether it was new.
func (s *Set) Add(c Classification) bool {
	if c == nil {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	key := setKey(c)
	if i, ok := s.index[key]; ok {
		if c.IsMain() && !s.items[i].IsMain() {
			s.items[i] = c
		}
		return false
	}
	s.index[key] = len(s.items)
	s.items = append(s.items, c)
	return true
}

// Len returns the number of distinct classifications.
func (s *Set) Len() int { return len(s.items) }

// Items returns the classifications in insertion order.
func (s *Set) Items() []Classification {
	out := make([]Classification, len(s.items))
	copy(out, s.items)
	return out
}

// ByStandard returns the members of std in insertion order.
func (s *Set) ByStandard(std Standard) []Classification {
	var out []Classification
	for _, c := range s.items {
		if c.Standard() == std {
			out = append(out, c)
		}
	}
	return out
}

// Main returns the first main classification of std, if any.
func (s *Set) Main(std Standard) (Classification, bool) {
	for _, c := range s.items {
		if c.Standard() == std && c.IsMain() {
			return c, true
		}
	}
	return nil, false
}

// Facets returns the sorted union of member facets for std.
func (s *Set) Facets(std Standard) []string {
	seen := make(map[string]struct{})
	for _, c := range s.items {
		if c.Standard() != std {
			continue
		}
		for _, f := range c.Facets() {
			seen[f] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// onlyDigits reports whether s is a non-empty run of ASCII digits.
func onlyDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func compactSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

//Personal.AI order the ending
