package data

// Entry locates one logical file inside an archive pair. Entries are
// immutable once created.
type Entry struct {
	// Pair is the storage key of the data blob the entry lives in.
	Pair string
	// Name is the case-folded file name.
	Name   string
	Size   int64
	Offset int64
}

// End returns the exclusive end of the entry's byte range.
func (e Entry) End() int64 {
	return e.Offset + e.Size
}
