package market

import "math"

// gridComponent buckets one coordinate into a 32-unit-wide cell. Cell
// indices fit signed 16 bits with room to spare for the populated
// galaxy; out-of-range values saturate rather than wrap.
func gridComponent(c float64) int16 {
	cell := math.Floor(c / 32)
	switch {
	case cell > math.MaxInt16:
		return math.MaxInt16
	case cell < math.MinInt16:
		return math.MinInt16
	}
	return int16(cell)
}

// GridKey packs the grid cell for a galactic coordinate into one 64-bit
// key. The y cell occupies the high 32 bits sign-extended, so keys sort
// by galactic north/south first; x and z fill the next two 16-bit
// compartments.
func GridKey(x, y, z float64) uint64 {
	gy := uint64(int64(gridComponent(y)))
	gx := uint64(uint16(gridComponent(x)))
	gz := uint64(uint16(gridComponent(z)))
	return gy<<32 | gx<<16 | gz
}
