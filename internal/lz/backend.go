package lz

// A Backend turns the literals and matches found by the match finder into
// blocks, appending them to dst.
type Backend interface {
	// Init starts a new block sequence. total is the number of bytes that
	// will be encoded, or -1 if unknown.
	Init(dst []byte, total int) []byte

	// PushLiterals adds a literal run with no match.
	PushLiterals(dst, literals []byte) []byte

	// PushMatch adds a literal run followed by a match of m bytes at
	// distance d.
	PushMatch(dst, literals []byte, m, d uint32) []byte

	// Finalize emits any buffered data.
	Finalize(dst []byte) []byte

	// Limits returns the largest L, M and D the backend's blocks represent.
	Limits() Limits

	// Unit returns how positions are hashed for this backend.
	Unit() MatchUnit
}
