package lz

import "github.com/andybalholm/lzfse/internal/format"

// HistoryWidth is the number of candidates kept per hash bucket.
const HistoryWidth = 4

// An entry records the word seen at a position.
type entry struct {
	u   uint32
	pos uint32
}

// A bucket holds the most recent positions with a given hash, newest first.
type bucket [HistoryWidth]entry

// HistoryTable is the match finder's hash table: 1<<14 buckets of
// HistoryWidth entries.
type HistoryTable struct {
	buckets [1 << hashBits]bucket
}

// Push records (u, pos) in its bucket and returns the bucket's previous
// contents.
func (t *HistoryTable) Push(mu MatchUnit, u, pos uint32) bucket {
	b := &t.buckets[mu.Hash(u)]
	old := *b
	copy(b[1:], old[:HistoryWidth-1])
	b[0] = entry{u, pos}
	return old
}

// Reset invalidates every bucket for a stream starting at pos. Entries are
// placed ClampInterval behind pos, far beyond any match distance.
func (t *HistoryTable) Reset(pos uint32) {
	for i := range t.buckets {
		t.buckets[i] = bucket{}
		for j := range t.buckets[i] {
			t.buckets[i][j].pos = pos - format.ClampInterval
		}
	}
}

// Clamp moves entries more than ClampInterval behind pos up to exactly
// ClampInterval behind, so that distances computed with wrapping uint32
// arithmetic stay meaningful.
func (t *HistoryTable) Clamp(pos uint32) {
	floor := pos - format.ClampInterval
	for i := range t.buckets {
		b := &t.buckets[i]
		for j := HistoryWidth - 1; j >= 0; j-- {
			if pos-b[j].pos > format.ClampInterval {
				b[j].pos = floor
			} else {
				break
			}
		}
	}
}
