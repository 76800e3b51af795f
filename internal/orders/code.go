package orders

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// CodeGenerator issues order codes of the form PREFIX-MMYY-NNNN with NNNN
// drawn uniformly from [1000, 9999]. Codes are only probabilistically unique;
// nothing checks for collisions.
type CodeGenerator struct {
	prefix string
	now    func() time.Time
	intn   func(n int) int
}

func NewCodeGenerator(prefix string) *CodeGenerator {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "EA"
	}
	return &CodeGenerator{
		prefix: prefix,
		now:    time.Now,
		intn:   rand.IntN,
	}
}

// Next returns a fresh code and the instant it was issued.
func (g *CodeGenerator) Next() (string, time.Time) {
	now := g.now()
	code := fmt.Sprintf("%s-%02d%02d-%d", g.prefix, int(now.Month()), now.Year()%100, 1000+g.intn(9000))
	return code, now
}

// WithSource returns a copy of g drawing time and randomness from now and intn.
func (g *CodeGenerator) WithSource(now func() time.Time, intn func(n int) int) *CodeGenerator {
	clone := *g
	if now != nil {
		clone.now = now
	}
	if intn != nil {
		clone.intn = intn
	}
	return &clone
}
