// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

const initialHashtablePower = 5

// hashtable maps field names to the index at which they were added. It uses
// open addressing with double hashing; the probe step is derived from the
// high bits of the hash. The table doubles in size once it is half full.
type hashtable struct {
	count         []uint8
	name          []string
	index         []int
	power         uint
	size          int
	used          int
	caseSensitive bool
}

func newHashtable(caseSensitive bool) *hashtable {
	return &hashtable{power: initialHashtablePower, caseSensitive: caseSensitive}
}

// hash is hash = hash * 1000003 ^ char. The case-insensitive variant maps
// ASCII upper case to lower case before mixing.
func (t *hashtable) hash(name string) uint64 {
	var hash uint64
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !t.caseSensitive && c >= 'A' && c <= 'Z' {
			c += 32
		}
		hash = (hash * 0xF4243) ^ uint64(c)
	}
	return hash
}

func (t *hashtable) equal(a, b string) bool {
	if t.caseSensitive {
		return a == b
	}
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 32
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 32
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func (t *hashtable) step(hash, mask uint64) int {
	return int(uint8((((hash &^ mask) >> (t.power - 1)) & (mask >> 2)) | 1))
}

// addName stores name with the next sequential index. It reports false when
// the name is already present, leaving the table unchanged.
func (t *hashtable) addName(name string) bool {
	hash := t.hash(name)

	if t.size == 0 {
		t.size = 1 << t.power
		t.count = make([]uint8, t.size)
		t.name = make([]string, t.size)
		t.index = make([]int, t.size)
	} else {
		mask := uint64(t.size - 1)
		i := int(hash & mask)
		step := 0
		for t.count[i] != 0 {
			if t.equal(name, t.name[i]) {
				return false
			}
			if step == 0 {
				step = t.step(hash, mask)
			}
			i -= step
			if i < 0 {
				i += t.size
			}
		}
	}

	// if the table is half full we need to extend it
	if t.used == t.size>>1 {
		newSize := t.size << 1
		newMask := uint64(newSize - 1)
		newCount := make([]uint8, newSize)
		newName := make([]string, newSize)
		newIndex := make([]int, newSize)

		t.power++
		for i := 0; i < t.size; i++ {
			if t.count[i] == 0 {
				continue
			}
			newHash := t.hash(t.name[i])
			j := int(newHash & newMask)
			step := 0
			for newCount[j] != 0 {
				newCount[j]++
				if step == 0 {
					step = t.step(newHash, newMask)
				}
				j -= step
				if j < 0 {
					j += newSize
				}
			}
			newCount[j] = 1
			newName[j] = t.name[i]
			newIndex[j] = t.index[i]
		}
		t.count = newCount
		t.name = newName
		t.index = newIndex
		t.size = newSize
	}

	mask := uint64(t.size - 1)
	i := int(hash & mask)
	step := 0
	for t.count[i] != 0 {
		t.count[i]++
		if step == 0 {
			step = t.step(hash, mask)
		}
		i -= step
		if i < 0 {
			i += t.size
		}
	}

	t.count[i] = 1
	t.name[i] = name
	t.index[i] = t.used
	t.used++

	return true
}

// indexFromName returns the index assigned when name was added, or -1 when
// the name is not present.
func (t *hashtable) indexFromName(name string) int {
	if t.count == nil {
		return -1
	}
	hash := t.hash(name)
	mask := uint64(t.size - 1)
	i := int(hash & mask)
	step := 0
	for t.count[i] != 0 {
		if t.equal(name, t.name[i]) {
			return t.index[i]
		}
		if step == 0 {
			step = t.step(hash, mask)
		}
		i -= step
		if i < 0 {
			i += t.size
		}
	}
	return -1
}
