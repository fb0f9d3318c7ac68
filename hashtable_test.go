// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"fmt"
	"testing"
)

func TestHashtableAddAndGet(t *testing.T) {

	tests := []struct {
		caseSensitive bool
		names         []string
	}{
		{true, []string{"alpha", "beta", "gamma", "Alpha"}},
		{false, []string{"alpha", "beta", "gamma", "delta"}},
	}

	for _, tt := range tests {
		table := newHashtable(tt.caseSensitive)
		for i, name := range tt.names {
			if !table.addName(name) {
				t.Fatalf("addName(%s) failed", name)
			}
			if got := table.indexFromName(name); got != i {
				t.Fatalf("indexFromName(%s) got %d, want %d", name, got, i)
			}
		}
	}
}

func TestHashtableDuplicateAdd(t *testing.T) {
	table := newHashtable(true)
	if !table.addName("field") {
		t.Fatal("addName(field) failed")
	}
	if table.addName("field") {
		t.Fatal("duplicate addName(field) succeeded")
	}
	if got := table.indexFromName("field"); got != 0 {
		t.Fatalf("indexFromName(field) got %d, want 0", got)
	}
}

func TestHashtableCaseInsensitive(t *testing.T) {
	table := newHashtable(false)
	if !table.addName("Name") {
		t.Fatal("addName(Name) failed")
	}
	if got := table.indexFromName("name"); got != 0 {
		t.Fatalf("indexFromName(name) got %d, want 0", got)
	}
	if table.addName("NAME") {
		t.Fatal("addName(NAME) succeeded on case-insensitive table")
	}
}

func TestHashtableGrowth(t *testing.T) {
	table := newHashtable(true)
	const numNames = 1000

	lastSize := 0
	for i := 0; i < numNames; i++ {
		name := fmt.Sprintf("name_%d", i)
		if !table.addName(name) {
			t.Fatalf("addName(%s) failed", name)
		}
		if table.size < lastSize {
			t.Fatalf("table size shrank from %d to %d", lastSize, table.size)
		}
		lastSize = table.size
	}
	for i := 0; i < numNames; i++ {
		name := fmt.Sprintf("name_%d", i)
		if got := table.indexFromName(name); got != i {
			t.Fatalf("indexFromName(%s) got %d, want %d", name, got, i)
		}
	}
	if table.indexFromName("absent") != -1 {
		t.Fatal("indexFromName(absent) did not return -1")
	}
}
