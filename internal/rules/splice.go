package rules

import (
	"slices"

	"github.com/desertthunder/m3ux/internal/playlist"
)

// RelocateAfter moves the records at indices into one contiguous block directly after
// the record at anchor, keeping the block in ascending index order and every other
// record in its relative order. It returns the new slice and the index the block starts at.
//
// Indices are removed highest first so lower indices stay valid, then the anchor index
// is shifted down by the number of removed records that sat before it. The anchor must
// not be one of indices.
func RelocateAfter(records []playlist.Record, indices []int, anchor int) ([]playlist.Record, int) {
	sorted := slices.Clone(indices)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	block := make([]playlist.Record, 0, len(sorted))
	for _, i := range sorted {
		block = append(block, records[i])
	}

	out := slices.Clone(records)
	for i := len(sorted) - 1; i >= 0; i-- {
		out = slices.Delete(out, sorted[i], sorted[i]+1)
	}

	shift := 0
	for _, i := range sorted {
		if i < anchor {
			shift++
		}
	}
	at := anchor - shift + 1

	return slices.Insert(out, at, block...), at
}

// InsertAfter returns records with r inserted directly after anchor.
func InsertAfter(records []playlist.Record, anchor int, r playlist.Record) []playlist.Record {
	return slices.Insert(records, anchor+1, r)
}

// MoveToTail returns records with the record at i moved to the end.
func MoveToTail(records []playlist.Record, i int) []playlist.Record {
	r := records[i]
	return append(slices.Delete(records, i, i+1), r)
}
