// Package coordinate assembles the flat numeric state vector: named,
// ordered Subsets registered with a Broker that maps each to an
// (offset, size) block, and a State that labels the vector with an
// instant and a frame.
package coordinate

import (
	"fmt"

	"github.com/loftorbital/ostk-astro-go/astroerr"
)

const (
	// CartesianPosition and CartesianVelocity are the two subsets every
	// Broker is expected to carry; State.InFrame treats them jointly.
	CartesianPosition = "cartesian_position"
	CartesianVelocity = "cartesian_velocity"
)

// Broker is an ordered registry of Subsets, an explicit offset/size
// table built once during propagator setup and immutable afterward.
type Broker struct {
	subsets []Subset
	offset  map[string]int
	size    int
}

// NewBroker returns an empty broker. Subsets must be added with AddSubset
// before any State can be built from it.
func NewBroker() *Broker {
	return &Broker{offset: make(map[string]int)}
}

// AddSubset appends s to the broker, assigning it the next contiguous
// offset. Adding the same subset name twice is a setup error.
func (b *Broker) AddSubset(s Subset) error {
	if _, exists := b.offset[s.Name()]; exists {
		return astroerr.New("coordinate.Broker.AddSubset", astroerr.SetupInvalid,
			fmt.Errorf("subset %q already registered", s.Name()))
	}
	b.offset[s.Name()] = b.size
	b.subsets = append(b.subsets, s)
	b.size += s.Size()
	return nil
}

// Size returns the total width of a State built from this broker.
func (b *Broker) Size() int { return b.size }

// Subsets returns the ordered list of registered subsets.
func (b *Broker) Subsets() []Subset { return b.subsets }

// OffsetOf returns the starting index of the named subset within the flat
// state vector, and whether it is registered.
func (b *Broker) OffsetOf(name string) (int, bool) {
	off, ok := b.offset[name]
	return off, ok
}

// Extract returns the slice of vec belonging to the named subset.
func (b *Broker) Extract(vec []float64, name string) ([]float64, error) {
	off, ok := b.offset[name]
	if !ok {
		return nil, astroerr.New("coordinate.Broker.Extract", astroerr.InvalidState,
			fmt.Errorf("unknown subset %q", name))
	}
	for _, s := range b.subsets {
		if s.Name() == name {
			return vec[off : off+s.Size()], nil
		}
	}
	panic("unreachable: offset registered without matching subset")
}

// ExtractMany returns the concatenation of several subsets' values, in the
// order requested (not necessarily the broker's internal order).
func (b *Broker) ExtractMany(vec []float64, names ...string) ([]float64, error) {
	out := make([]float64, 0, len(names))
	for _, n := range names {
		v, err := b.Extract(vec, n)
		if err != nil {
			return nil, err
		}
		out = append(out, v...)
	}
	return out, nil
}

// Set writes value into vec at the named subset's offset. len(value) must
// equal the subset's Size().
func (b *Broker) Set(vec []float64, name string, value []float64) error {
	off, ok := b.offset[name]
	if !ok {
		return astroerr.New("coordinate.Broker.Set", astroerr.InvalidState,
			fmt.Errorf("unknown subset %q", name))
	}
	for _, s := range b.subsets {
		if s.Name() == name {
			if len(value) != s.Size() {
				return astroerr.New("coordinate.Broker.Set", astroerr.InvalidState,
					fmt.Errorf("subset %q wants %d values, got %d", name, s.Size(), len(value)))
			}
			copy(vec[off:off+s.Size()], value)
			return nil
		}
	}
	panic("unreachable: offset registered without matching subset")
}

// HasSubset reports whether name is registered.
func (b *Broker) HasSubset(name string) bool {
	_, ok := b.offset[name]
	return ok
}
