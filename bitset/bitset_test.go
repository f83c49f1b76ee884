package bitset

import (
	"reflect"
	"testing"
)

func onesOf(s *Set) []int {
	var out []int
	for it := s.Ones(); ; {
		i, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, i)
	}
	return out
}

func TestRoundTripYieldsInsertedIndicesAscending(t *testing.T) {
	cases := []struct {
		name string
		cap  int
		idx  []int
	}{
		{"empty", 64, nil},
		{"single bit", 64, []int{0}},
		{"single word, unordered insert", 64, []int{63, 1, 40, 0}},
		{"spans two words", 130, []int{0, 63, 64, 65, 129}},
		{"every bit", 17, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := New(c.cap)
			for _, i := range c.idx {
				s.Set(i)
			}
			want := append([]int(nil), c.idx...)
			sortInts(want)
			got := onesOf(s)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("Ones() = %v, want %v", got, want)
			}
		})
	}
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func TestIteratorNeverYieldsPastCapacity(t *testing.T) {
	// A capacity that doesn't fill the final word: the unused high bits
	// of that word must never surface as set indices.
	s := New(5)
	s.Set(0)
	s.Set(4)
	got := onesOf(s)
	want := []int{0, 4}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Ones() = %v, want %v", got, want)
	}
}

func TestIteratorIsRestartable(t *testing.T) {
	s := New(64)
	s.Set(3)
	s.Set(10)
	first := onesOf(s)
	second := onesOf(s)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("two independent Ones() calls differ: %v vs %v", first, second)
	}
}

func TestSetPanicsOutOfRange(t *testing.T) {
	s := New(8)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Set(8) to panic on a capacity-8 set")
		}
	}()
	s.Set(8)
}

func TestIsEmpty(t *testing.T) {
	s := New(128)
	if !s.IsEmpty() {
		t.Fatalf("freshly constructed set should be empty")
	}
	s.Set(100)
	if s.IsEmpty() {
		t.Fatalf("set with a bit set should not report empty")
	}
}

func TestTestReportsSetAndUnsetBits(t *testing.T) {
	s := New(16)
	s.Set(5)
	for i := 0; i < 16; i++ {
		want := i == 5
		if got := s.Test(i); got != want {
			t.Errorf("Test(%d) = %v, want %v", i, got, want)
		}
	}
	if s.Test(-1) || s.Test(16) {
		t.Errorf("Test should report false for out-of-range indices, not panic")
	}
}

func TestFromWordsSharesBackingArray(t *testing.T) {
	words := make([]uint64, 2)
	s := FromWords(words, 70)
	s.Set(65)
	if words[1] == 0 {
		t.Fatalf("FromWords should wrap the given slice, not copy it")
	}
}

func TestCompactPreservesBitsAcrossManyEntries(t *testing.T) {
	const n = 40
	entries := make(map[uint64]*Set, n)
	for h := uint64(0); h < n; h++ {
		s := New(20)
		s.Set(int(h % 20))
		s.Set(int((h + 7) % 20))
		entries[h] = s
	}
	compacted := Compact(entries, 20)
	if len(compacted) != len(entries) {
		t.Fatalf("Compact changed entry count: got %d, want %d", len(compacted), len(entries))
	}
	for h, orig := range entries {
		got := compacted[h]
		if got == nil {
			t.Fatalf("hash %d missing after Compact", h)
		}
		if !reflect.DeepEqual(onesOf(got), onesOf(orig)) {
			t.Errorf("hash %d: Compact changed set bits: got %v, want %v", h, onesOf(got), onesOf(orig))
		}
	}
}

func TestCompactOfEmptyMapIsNoop(t *testing.T) {
	entries := map[uint64]*Set{}
	if got := Compact(entries, 10); len(got) != 0 {
		t.Fatalf("Compact of empty map should stay empty, got %d entries", len(got))
	}
}
