package catalog

import (
	"math/rand"
	"time"
)

// Catalog is an ordered, shuffled list of image paths consumed in order.
type Catalog struct {
	paths []string
	next  int
}

// NewRand returns a random source seeded with the current time.
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// New copies paths and shuffles them once with rnd.
func New(paths []string, rnd *rand.Rand) *Catalog {
	shuffled := append([]string(nil), paths...)
	if rnd == nil {
		rnd = NewRand()
	}
	rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return &Catalog{paths: shuffled}
}

// Next returns the next path, or false once the catalog is exhausted.
func (c *Catalog) Next() (string, bool) {
	if c == nil || c.next >= len(c.paths) {
		return "", false
	}
	p := c.paths[c.next]
	c.next++
	return p, true
}

// Rewind restarts consumption from the first entry in the same order.
func (c *Catalog) Rewind() {
	if c != nil {
		c.next = 0
	}
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.paths)
}

// Paths returns a copy of the entries in consumption order.
func (c *Catalog) Paths() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.paths...)
}
