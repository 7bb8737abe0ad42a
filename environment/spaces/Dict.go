package spaces

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Dict is a space of named Boxes. A value of a Dict space is a map
// from each name of the space to a vector in the corresponding Box.
type Dict struct {
	keys   []string
	spaces map[string]*Box
}

// NewDict returns a new Dict space
func NewDict(spaces map[string]*Box) (*Dict, error) {
	if len(spaces) == 0 {
		return nil, fmt.Errorf("newDict: dict space must have at least " +
			"one subspace")
	}

	keys := make([]string, 0, len(spaces))
	copied := make(map[string]*Box, len(spaces))
	for key, space := range spaces {
		if space == nil {
			return nil, fmt.Errorf("newDict: nil subspace %q", key)
		}
		keys = append(keys, key)
		copied[key] = space
	}
	sort.Strings(keys)

	return &Dict{keys: keys, spaces: copied}, nil
}

// MustDict is like NewDict but panics on error
func MustDict(spaces map[string]*Box) *Dict {
	d, err := NewDict(spaces)
	if err != nil {
		panic(err)
	}
	return d
}

// Keys returns the sorted names of the subspaces
func (d *Dict) Keys() []string {
	keys := make([]string, len(d.keys))
	copy(keys, d.keys)
	return keys
}

// Space returns the subspace with the given name
func (d *Dict) Space(key string) (*Box, bool) {
	space, ok := d.spaces[key]
	return space, ok
}

// Seed seeds the sampler of each subspace. Subspaces are seeded in
// key order with consecutive seeds so that sampling is reproducible.
func (d *Dict) Seed(seed uint64) {
	for i, key := range d.keys {
		d.spaces[key].Seed(seed + uint64(i))
	}
}

// Sample returns a value sampled from the space
func (d *Dict) Sample() map[string]*mat.VecDense {
	sample := make(map[string]*mat.VecDense, len(d.keys))
	for _, key := range d.keys {
		sample[key] = d.spaces[key].Sample()
	}
	return sample
}

// Validate returns an error wrapping ErrNotContained if value is
// missing a key of the space, has an unknown key, or has a value
// outside of its subspace.
func (d *Dict) Validate(value map[string]*mat.VecDense) error {
	if value == nil {
		return fmt.Errorf("validate: nil value: %w", ErrNotContained)
	}
	for key := range value {
		if _, ok := d.spaces[key]; !ok {
			return fmt.Errorf("validate: unknown key %q: %w", key,
				ErrNotContained)
		}
	}
	for _, key := range d.keys {
		v, ok := value[key]
		if !ok || v == nil {
			return fmt.Errorf("validate: missing key %q: %w", key,
				ErrNotContained)
		}
		if err := d.spaces[key].Validate(v); err != nil {
			return fmt.Errorf("validate: key %q: %w", key, err)
		}
	}
	return nil
}

// Contains returns whether x is in the space. The argument x must be
// a map[string]*mat.VecDense.
func (d *Dict) Contains(x interface{}) bool {
	switch v := x.(type) {
	case map[string]*mat.VecDense:
		return d.Validate(v) == nil
	}
	return false
}

func (d *Dict) String() string {
	parts := make([]string, len(d.keys))
	for i, key := range d.keys {
		parts[i] = fmt.Sprintf("%v: %v", key, d.spaces[key])
	}
	return fmt.Sprintf("Dict(%v)", strings.Join(parts, ", "))
}
