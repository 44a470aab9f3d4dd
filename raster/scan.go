package raster

import (
	"image"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Stats summarises every sample of one page of one channel
type Stats struct {
	Max    uint8
	Mean   float64
	StdDev float64
	// Samples counts every decoded sample including tile padding
	Samples uint64
}

// Scanner accumulates a histogram over the tiles of a page
type Scanner struct {
	hist [256]float64
	max  uint8
	n    uint64
}

// Add folds every sample of m into the scan
func (s *Scanner) Add(m *image.Gray) {
	r := m.Bounds()
	for y := 0; y < r.Dy(); y++ {
		for _, v := range m.Pix[y*m.Stride : y*m.Stride+r.Dx()] {
			s.hist[v]++
			if v > s.max {
				s.max = v
			}
		}
	}
	s.n += uint64(r.Dx() * r.Dy())
}

// Max returns the largest sample seen so far
func (s *Scanner) Max() uint8 {
	return s.max
}

// Stats returns the maximum, mean and standard deviation of the scan
func (s *Scanner) Stats() Stats {
	st := Stats{
		Max:     s.max,
		Samples: s.n,
	}
	if s.n == 0 {
		return st
	}

	values := make([]float64, len(s.hist))
	for i := range values {
		values[i] = float64(i)
	}
	st.Mean, st.StdDev = stat.MeanStdDev(values, s.hist[:])
	if math.IsNaN(st.StdDev) {
		st.StdDev = 0
	}
	return st
}

// Scan returns the statistics over every sample of tiles
func Scan(tiles ...*image.Gray) Stats {
	var s Scanner
	for _, m := range tiles {
		s.Add(m)
	}
	return s.Stats()
}
