// Package features runs behavioural probes against dependency-injection
// adapters and collects the outcomes into comparison tables.
package features

import (
	"math"
	"regexp"
	"sort"

	"github.com/xraph/anvil/adapter"
)

// State is the outcome of one probe against one adapter.
type State int

const (
	// Success means the probe passed.
	Success State = iota
	// Failure means the probe returned an error or panicked.
	Failure
	// Concern means the probe was skipped; the cell comment explains why.
	Concern
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Concern:
		return "concern"
	default:
		return "unknown"
	}
}

// Cell texts.
const (
	TextSupported  = "supported"
	TextFailed     = "failed"
	TextSeeComment = "see comment"
)

// SpecialCase adjusts how a probe is treated for one adapter.
type SpecialCase struct {
	Skip    bool
	Comment string
}

// Probe checks one feature. Run returns nil when the adapter supports it.
type Probe struct {
	ID          string
	Name        string
	Description string
	// Order sorts probes within a group. Zero means unordered and sorts last.
	Order        int
	Run          func(a adapter.Adapter) error
	SpecialCases map[string]SpecialCase
}

// DisplayName returns Name, or ID when Name is empty.
func (p Probe) DisplayName() string {
	if p.Name == "" {
		return p.ID
	}
	return p.Name
}

// Group is a set of probes rendered as one table.
type Group struct {
	ID          string
	Name        string
	Description string
	// Order sorts groups. Zero means unordered and sorts last.
	Order  int
	Probes []Probe
	// SpecialCases apply to every probe of the group unless the probe has
	// its own entry for the adapter.
	SpecialCases map[string]SpecialCase
}

// DisplayName returns Name, or ID when Name is empty.
func (g Group) DisplayName() string {
	if g.Name == "" {
		return g.ID
	}
	return g.Name
}

// Cell is the outcome of one probe for one adapter.
type Cell struct {
	Adapter string
	State   State
	Text    string
	Comment string
	Err     error
}

// Feature is a table row.
type Feature struct {
	ID          string
	Name        string
	Description string
	// Cells follow the order of Table.Adapters.
	Cells []Cell
}

// Table is the result of running one group.
type Table struct {
	ID          string
	Name        string
	Description string
	Adapters    []string
	Features    []Feature
}

// Counts tallies cell states.
type Counts struct {
	Success int
	Failure int
	Concern int
}

// Add merges o into c.
func (c *Counts) Add(o Counts) {
	c.Success += o.Success
	c.Failure += o.Failure
	c.Concern += o.Concern
}

// Counts tallies the cells of t.
func (t *Table) Counts() Counts {
	var c Counts
	for _, f := range t.Features {
		for _, cell := range f.Cells {
			switch cell.State {
			case Success:
				c.Success++
			case Failure:
				c.Failure++
			case Concern:
				c.Concern++
			}
		}
	}
	return c
}

// Total tallies the cells of every table.
func Total(tables []*Table) Counts {
	var c Counts
	for _, t := range tables {
		c.Add(t.Counts())
	}
	return c
}

var (
	singleNewline = regexp.MustCompile(`([^\r\n]|^)(?:\r\n|\r|\n)([^\r\n]|$)`)
	spaceRun      = regexp.MustCompile(`[ \t]+`)
	edgeSpaces    = regexp.MustCompile(`(?m)^ +| +$`)
)

// NormalizeDescription joins lines separated by a single newline, collapses
// runs of spaces and tabs into one space and trims every line. Blank lines
// survive as paragraph breaks.
func NormalizeDescription(s string) string {
	if s == "" {
		return s
	}
	s = singleNewline.ReplaceAllString(s, "${1} ${2}")
	s = spaceRun.ReplaceAllString(s, " ")
	return edgeSpaces.ReplaceAllString(s, "")
}

func sortKey(order int) int {
	if order == 0 {
		return math.MaxInt
	}
	return order
}

func sortedGroups(groups []Group) []Group {
	out := make([]Group, len(groups))
	copy(out, groups)
	sort.SliceStable(out, func(i, j int) bool {
		return sortKey(out[i].Order) < sortKey(out[j].Order)
	})
	return out
}

func sortedProbes(probes []Probe) []Probe {
	out := make([]Probe, len(probes))
	copy(out, probes)
	sort.SliceStable(out, func(i, j int) bool {
		return sortKey(out[i].Order) < sortKey(out[j].Order)
	})
	return out
}

// specialCaseFor returns the probe-level special case for name, falling back
// to the group-level one.
func specialCaseFor(g Group, p Probe, name string) (SpecialCase, bool) {
	if sc, ok := p.SpecialCases[name]; ok {
		return sc, true
	}
	sc, ok := g.SpecialCases[name]
	return sc, ok
}
