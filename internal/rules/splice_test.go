package rules

import (
	"testing"

	"github.com/desertthunder/m3ux/internal/playlist"
	"github.com/google/go-cmp/cmp"
)

func seq(names ...string) []playlist.Record {
	out := make([]playlist.Record, len(names))
	for i, n := range names {
		out[i] = playlist.NewRecord(`#EXTINF:-1 group-title="g",`+n, i)
		out[i].LocatorLine = "http://example.com/" + n
	}
	return out
}

func displayNames(records []playlist.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.DisplayName
	}
	return out
}

func TestRelocateAfter(t *testing.T) {
	tt := []struct {
		name    string
		records []string
		indices []int
		anchor  int
		want    []string
		wantAt  int
	}{
		{
			name:    "sources on both sides of anchor",
			records: []string{"r0", "r1", "s2", "a3", "r4", "s5", "r6"},
			indices: []int{2, 5},
			anchor:  3,
			want:    []string{"r0", "r1", "a3", "s2", "s5", "r4", "r6"},
			wantAt:  3,
		},
		{
			name:    "contiguous block before anchor",
			records: []string{"s0", "s1", "r2", "a3"},
			indices: []int{0, 1},
			anchor:  3,
			want:    []string{"r2", "a3", "s0", "s1"},
			wantAt:  2,
		},
		{
			name:    "sources after anchor",
			records: []string{"a0", "r1", "s2", "r3", "s4"},
			indices: []int{4, 2},
			anchor:  0,
			want:    []string{"a0", "s2", "s4", "r1", "r3"},
			wantAt:  1,
		},
		{
			name:    "already in place",
			records: []string{"a0", "s1", "s2", "r3"},
			indices: []int{1, 2},
			anchor:  0,
			want:    []string{"a0", "s1", "s2", "r3"},
			wantAt:  1,
		},
		{
			name:    "duplicate indices collapse",
			records: []string{"s0", "a1", "r2"},
			indices: []int{0, 0},
			anchor:  1,
			want:    []string{"a1", "s0", "r2"},
			wantAt:  1,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			in := seq(tc.records...)
			got, at := RelocateAfter(in, tc.indices, tc.anchor)

			if diff := cmp.Diff(tc.want, displayNames(got)); diff != "" {
				t.Errorf("RelocateAfter() mismatch (-want +got):\n%s", diff)
			}
			if at != tc.wantAt {
				t.Errorf("RelocateAfter() at = %d, want %d", at, tc.wantAt)
			}
			if diff := cmp.Diff(tc.records, displayNames(in)); diff != "" {
				t.Errorf("input slice was modified:\n%s", diff)
			}
		})
	}
}

func TestInsertAfterAndMoveToTail(t *testing.T) {
	extra := seq("x")[0]
	got := InsertAfter(seq("a", "b", "c"), 1, extra)
	if diff := cmp.Diff([]string{"a", "b", "x", "c"}, displayNames(got)); diff != "" {
		t.Errorf("InsertAfter() mismatch:\n%s", diff)
	}

	got = MoveToTail(seq("a", "b", "c"), 0)
	if diff := cmp.Diff([]string{"b", "c", "a"}, displayNames(got)); diff != "" {
		t.Errorf("MoveToTail() mismatch:\n%s", diff)
	}

	got = MoveToTail(seq("a", "b", "c"), 2)
	if diff := cmp.Diff([]string{"a", "b", "c"}, displayNames(got)); diff != "" {
		t.Errorf("MoveToTail() of last element mismatch:\n%s", diff)
	}
}
