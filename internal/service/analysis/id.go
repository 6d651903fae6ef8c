package analysis

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator assigns analysis IDs.
type IDGenerator interface {
	Next() string
}

// UUIDGenerator issues random v4 UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) Next() string { return uuid.NewString() }

// SequenceGenerator issues predictable IDs of the form <prefix>-<n>.
type SequenceGenerator struct {
	prefix  string
	counter uint64
}

func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

func (g *SequenceGenerator) Next() string {
	n := atomic.AddUint64(&g.counter, 1)
	return fmt.Sprintf("%s-%d", g.prefix, n)
}
