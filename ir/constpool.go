package ir

import "math"

// ConstPool deduplicates float32 constants by IEEE-754 bit pattern and
// assigns each distinct value a dense pool offset, per spec §3's
// "Constant pool" data model entry. A Memoized bundle shares exactly one
// ConstPool across its X, Y, and XY subprograms so that a constant used
// in more than one of them still occupies a single slot of the eventual
// .rodata layout.
type ConstPool struct {
	offsets map[uint32]int
	values  []float32
}

// NewConstPool returns an empty pool.
func NewConstPool() *ConstPool {
	return &ConstPool{offsets: make(map[uint32]int)}
}

// Intern returns the pool offset for v, inserting it if this is the
// first time this exact bit pattern has been seen.
func (c *ConstPool) Intern(v float32) int {
	bits := math.Float32bits(v)
	if off, ok := c.offsets[bits]; ok {
		return off
	}
	off := len(c.values)
	c.offsets[bits] = off
	c.values = append(c.values, v)
	return off
}

// Values returns the pool contents in insertion (offset) order.
func (c *ConstPool) Values() []float32 {
	return c.values
}

// Len reports how many distinct constants are in the pool.
func (c *ConstPool) Len() int {
	return len(c.values)
}
