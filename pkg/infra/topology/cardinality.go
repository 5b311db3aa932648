package topology

import (
	"fmt"
	"strconv"
	"strings"
)

// Cardinality is the allowed number of instances of a component across a cluster.
// Accepted forms: "" (unconstrained), "N", "N-M", "N+", "ALL".
type Cardinality struct {
	raw   string
	exact int
	min   int
	max   int
	kind  byte
}

const (
	cardAny   byte = 0
	cardExact byte = 'e'
	cardRange byte = 'r'
	cardMin   byte = 'm'
	cardAll   byte = 'a'
)

func ParseCardinality(s string) (Cardinality, error) {
	s = strings.TrimSpace(s)
	c := Cardinality{raw: s}
	var err error
	switch {
	case s == "":
	case s == "ALL":
		c.kind = cardAll
	case strings.HasSuffix(s, "+"):
		c.kind = cardMin
		c.min, err = strconv.Atoi(strings.TrimSuffix(s, "+"))
	case strings.Contains(s, "-"):
		c.kind = cardRange
		toks := strings.SplitN(s, "-", 2)
		if c.min, err = strconv.Atoi(toks[0]); err == nil {
			c.max, err = strconv.Atoi(toks[1])
		}
		if err == nil && c.max < c.min {
			err = fmt.Errorf("upper bound below lower bound")
		}
	default:
		c.kind = cardExact
		c.exact, err = strconv.Atoi(s)
	}
	if err != nil {
		return Cardinality{}, fmt.Errorf("invalid cardinality %q: %w", s, err)
	}
	return c, nil
}

// IsValidCount reports whether count instances satisfy the cardinality.
// ALL is never satisfied by a count; it is checked against the host groups instead.
func (c Cardinality) IsValidCount(count int) bool {
	switch c.kind {
	case cardAll:
		return false
	case cardExact:
		return count == c.exact
	case cardRange:
		return count >= c.min && count <= c.max
	case cardMin:
		return count >= c.min
	default:
		return true
	}
}

func (c Cardinality) String() string {
	return c.raw
}
