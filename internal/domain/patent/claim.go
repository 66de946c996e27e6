package patent

import (
	"regexp"
	"strconv"
	"strings"
)

// ClaimType defines whether a claim is independent or dependent.
type ClaimType uint8

const (
	ClaimTypeUnknown     ClaimType = 0
	ClaimTypeIndependent ClaimType = 1
	ClaimTypeDependent   ClaimType = 2
)

func (t ClaimType) String() string {
	switch t {
	case ClaimTypeIndependent:
		return "INDEPENDENT"
	case ClaimTypeDependent:
		return "DEPENDENT"
	default:
		return "UNKNOWN"
	}
}

func (t ClaimType) IsValid() bool {
	return t == ClaimTypeIndependent || t == ClaimTypeDependent
}

// LevelUnset marks a claim the tree builder never reached.
const LevelUnset = -1

// Claim is a single patent claim.  DependsOn lists referenced claim ids; a
// claim is dependent iff it references at least one other claim.
type Claim struct {
	id        string
	text      string
	html      string
	claimType ClaimType
	dependsOn []string
	children  []string
	level     int
}

// NewClaim builds a claim.  The id is normalized (see NormalizeClaimID);
// references to the claim itself are dropped.
func NewClaim(id, text string, dependsOn []string) Claim {
	c := Claim{
		id:    NormalizeClaimID(id),
		text:  strings.TrimSpace(text),
		level: LevelUnset,
	}
	seen := map[string]bool{c.id: true}
	for _, d := range dependsOn {
		d = NormalizeClaimID(d)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		c.dependsOn = append(c.dependsOn, d)
	}
	c.claimType = ClaimTypeIndependent
	if len(c.dependsOn) > 0 {
		c.claimType = ClaimTypeDependent
	}
	return c
}

// WithHTML returns a copy of c carrying simplified markup of the claim body.
func (c Claim) WithHTML(html string) Claim {
	c.html = html
	return c
}

func (c Claim) ID() string          { return c.id }
func (c Claim) Text() string        { return c.text }
func (c Claim) HTML() string        { return c.html }
func (c Claim) Type() ClaimType     { return c.claimType }
func (c Claim) DependsOn() []string { return append([]string(nil), c.dependsOn...) }
func (c Claim) Children() []string  { return append([]string(nil), c.children...) }

// Level is the depth below an independent claim, or LevelUnset.
func (c Claim) Level() int { return c.level }

// Number returns the numeric claim id, or 0.
func (c Claim) Number() int {
	n, _ := strconv.Atoi(c.id)
	return n
}

var claimIDDigits = regexp.MustCompile(`\d+`)

// NormalizeClaimID reduces "CLM-00016", "00016" and "16" to "16".  Ids
// without digits are kept as given.
func NormalizeClaimID(id string) string {
	id = strings.TrimSpace(id)
	m := claimIDDigits.FindString(id)
	if m == "" {
		return id
	}
	m = strings.TrimLeft(m, "0")
	if m == "" {
		return "0"
	}
	return m
}

// ─────────────────────────────────────────────────────────────────────────────
// Claim references in text
// ─────────────────────────────────────────────────────────────────────────────

var (
	claimRefPattern = regexp.MustCompile(`(?i)\bclaims?\s+((?:\d+)(?:\s*(?:,|-|–|to|through|or|and/or|and)\s*(?:claim\s+)?\d+)*)`)
	claimRefToken   = regexp.MustCompile(`(?i)\d+|-|–|to|through`)
)

// ClaimRefs finds claim references in claim text: "claim 3", "claims 1 to 4",
// "any one of claims 1-3, 5 or 7".  Ranges are expanded.
func ClaimRefs(text string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(n int) {
		s := strconv.Itoa(n)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, m := range claimRefPattern.FindAllStringSubmatch(text, -1) {
		toks := claimRefToken.FindAllString(m[1], -1)
		for i := 0; i < len(toks); i++ {
			from, err := strconv.Atoi(toks[i])
			if err != nil {
				continue
			}
			if i+2 < len(toks) && isRangeWord(toks[i+1]) {
				if to, err := strconv.Atoi(toks[i+2]); err == nil && to >= from && to-from <= 200 {
					for n := from; n <= to; n++ {
						add(n)
					}
					i += 2
					continue
				}
			}
			add(from)
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// ClaimTree
// ─────────────────────────────────────────────────────────────────────────────

// ClaimTree is the claims of one document held in an arena, with an id index
// and computed parent/child links and levels.
type ClaimTree struct {
	claims []Claim
	index  map[string]int
}

// BuildClaimTree links every dependent claim as a child of each referenced
// claim present in the set, then assigns level 0 to independent claims and
// parent level + 1 to their descendants in one breadth-first pass.  Each
// claim is visited at most once and keeps its first level.  Dependent claims
// not reachable from an independent claim keep LevelUnset.  A claim whose id
// repeats an earlier one is dropped.
func BuildClaimTree(claims []Claim) *ClaimTree {
	t := &ClaimTree{
		claims: make([]Claim, 0, len(claims)),
		index:  make(map[string]int, len(claims)),
	}
	for _, c := range claims {
		if _, dup := t.index[c.id]; dup {
			continue
		}
		c.children = nil
		c.level = LevelUnset
		t.index[c.id] = len(t.claims)
		t.claims = append(t.claims, c)
	}

	for i := range t.claims {
		c := &t.claims[i]
		if c.claimType != ClaimTypeDependent {
			continue
		}
		for _, parent := range c.dependsOn {
			if p, ok := t.index[parent]; ok {
				t.claims[p].children = append(t.claims[p].children, c.id)
			}
		}
	}

	queue := make([]int, 0, len(t.claims))
	for i := range t.claims {
		if t.claims[i].claimType == ClaimTypeIndependent {
			t.claims[i].level = 0
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, childID := range t.claims[cur].children {
			ci := t.index[childID]
			if t.claims[ci].level != LevelUnset {
				continue
			}
			t.claims[ci].level = t.claims[cur].level + 1
			queue = append(queue, ci)
		}
	}
	return t
}

// Len returns the number of claims.
func (t *ClaimTree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.claims)
}

// Claims returns the claims in document order.
func (t *ClaimTree) Claims() []Claim {
	if t == nil {
		return nil
	}
	return append([]Claim(nil), t.claims...)
}

// Get returns the claim with the given id.
func (t *ClaimTree) Get(id string) (Claim, bool) {
	if t == nil {
		return Claim{}, false
	}
	i, ok := t.index[NormalizeClaimID(id)]
	if !ok {
		return Claim{}, false
	}
	return t.claims[i], true
}

// Independent returns the independent claims in document order.
func (t *ClaimTree) Independent() []Claim {
	var out []Claim
	for _, c := range t.Claims() {
		if c.claimType == ClaimTypeIndependent {
			out = append(out, c)
		}
	}
	return out
}

// Children returns the direct dependents of id.
func (t *ClaimTree) Children(id string) []Claim {
	c, ok := t.Get(id)
	if !ok {
		return nil
	}
	out := make([]Claim, 0, len(c.children))
	for _, child := range c.children {
		out = append(out, t.claims[t.index[child]])
	}
	return out
}

// Descendants returns id's claim and every claim depending on it directly or
// indirectly, breadth first.
func (t *ClaimTree) Descendants(id string) []Claim {
	root, ok := t.Get(id)
	if !ok {
		return nil
	}
	out := []Claim{root}
	visited := map[string]bool{root.id: true}
	for i := 0; i < len(out); i++ {
		for _, child := range out[i].children {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, t.claims[t.index[child]])
		}
	}
	return out
}

// Unreached returns dependent claims whose level stayed unset.
func (t *ClaimTree) Unreached() []Claim {
	var out []Claim
	for _, c := range t.Claims() {
		if c.level == LevelUnset {
			out = append(out, c)
		}
	}
	return out
}

//Personal.AI order the ending
