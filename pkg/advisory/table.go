package advisory

import (
	"fmt"
	"regexp"
)

const (
	EcosystemGeneric = "generic"
	EcosystemJava    = "java"
	EcosystemRPM     = "rpm"
)

const (
	groupInstalled = "installed"
	groupFixed     = "fixed"
)

// Pattern recognises one style of upgrade notice in a plugin narrative. Expr
// must carry the named groups "installed" and "fixed".
type Pattern struct {
	Ecosystem string
	Expr      *regexp.Regexp

	installed int
	fixed     int
}

// Table is an ordered, read-only set of patterns. Build it once with NewTable
// or DefaultTable and share it freely.
type Table struct {
	patterns []Pattern
}

// NewTable validates patterns and returns them as a table, in the order given.
func NewTable(patterns ...Pattern) (Table, error) {
	t := Table{patterns: make([]Pattern, 0, len(patterns))}
	for _, p := range patterns {
		if p.Expr == nil {
			return Table{}, fmt.Errorf("pattern %q has no expression", p.Ecosystem)
		}
		p.installed = p.Expr.SubexpIndex(groupInstalled)
		p.fixed = p.Expr.SubexpIndex(groupFixed)
		if p.installed < 0 || p.fixed < 0 {
			return Table{}, fmt.Errorf("pattern %q must define the %q and %q groups", p.Ecosystem, groupInstalled, groupFixed)
		}
		t.patterns = append(t.patterns, p)
	}
	return t, nil
}

// Patterns returns a copy of the table's patterns.
func (t Table) Patterns() []Pattern {
	out := make([]Pattern, len(t.patterns))
	copy(out, t.patterns)
	return out
}

func (t Table) Len() int {
	return len(t.patterns)
}

// Upgrade notices as printed by the local security check plugins. Labels are
// separated from values by a colon padded with any amount of horizontal
// whitespace; the lines of a notice must be adjacent.
var (
	genericNotice = `(?m)^[ \t]*Remote package installed[ \t]*:[ \t]*(?P<installed>\S+)[ \t]*\r?\n` +
		`[ \t]*Should be[ \t]*:[ \t]*(?P<fixed>\S+)`
	javaNotice = `(?m)^[ \t]*Path[ \t]*:[^\n]*\r?\n` +
		`[ \t]*Installed version[ \t]*:[ \t]*(?P<installed>\S+)[ \t]*\r?\n` +
		`[ \t]*Fixed version[ \t]*:[ \t]*(?P<fixed>\S+)`
	rpmNotice = `(?m)^[ \t]*Installed package[ \t]*:[ \t]*(?P<installed>\S+)[ \t]*\r?\n` +
		`[ \t]*Fixed package[ \t]*:[ \t]*(?P<fixed>\S+)`
)

// DefaultTable returns the built-in notice patterns: generic package notices,
// runtime (Java) notices and RPM package notices, in that order.
func DefaultTable() Table {
	t, err := NewTable(
		Pattern{Ecosystem: EcosystemGeneric, Expr: regexp.MustCompile(genericNotice)},
		Pattern{Ecosystem: EcosystemJava, Expr: regexp.MustCompile(javaNotice)},
		Pattern{Ecosystem: EcosystemRPM, Expr: regexp.MustCompile(rpmNotice)},
	)
	if err != nil {
		panic(err)
	}
	return t
}
