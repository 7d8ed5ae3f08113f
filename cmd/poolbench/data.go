package main

// benchData is the element type all three containers carry. It is
// pointer-free so it can live in pool slots.
type benchData struct {
	X, Y, Z float32

	Name [16]byte

	Cnt uint64
}

func newBenchData() benchData {
	d := benchData{Cnt: 1}
	copy(d.Name[:], "data")
	return d
}
