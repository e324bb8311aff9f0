package release

import (
	"strconv"
	"strings"
)

// Constraint is a host version requirement such as ">=3000", "<3000",
// "3000 - 3999" or "*". The empty constraint places no requirement.
type Constraint string

// Any matches every host version.
const Any Constraint = "*"

type bound struct {
	op string
	n  int
}

// parse returns the bounds of c; ok is false when c is malformed.
func (c Constraint) parse() (bounds []bound, ok bool) {
	s := strings.TrimSpace(string(c))
	switch {
	case s == "" || s == string(Any):
		return nil, true
	case strings.Contains(s, " - "):
		lo, hi, _ := strings.Cut(s, " - ")
		a, err1 := strconv.Atoi(strings.TrimSpace(lo))
		b, err2 := strconv.Atoi(strings.TrimSpace(hi))
		if err1 != nil || err2 != nil {
			return nil, false
		}
		return []bound{{">=", a}, {"<=", b}}, true
	}

	for _, op := range []string{">=", "<=", ">", "<"} {
		if rest, found := strings.CutPrefix(s, op); found {
			n, err := strconv.Atoi(strings.TrimSpace(rest))
			if err != nil {
				return nil, false
			}
			return []bound{{op, n}}, true
		}
	}
	return nil, false
}

// Valid reports whether c follows the constraint grammar.
func (c Constraint) Valid() bool {
	_, ok := c.parse()
	return ok
}

// Satisfied reports whether host meets c. A malformed constraint is never
// satisfied.
func (c Constraint) Satisfied(host int) bool {
	bounds, ok := c.parse()
	if !ok {
		return false
	}
	for _, b := range bounds {
		var met bool
		switch b.op {
		case ">":
			met = host > b.n
		case ">=":
			met = host >= b.n
		case "<":
			met = host < b.n
		case "<=":
			met = host <= b.n
		}
		if !met {
			return false
		}
	}
	return true
}
