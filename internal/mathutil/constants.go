package mathutil

import "math"

// Joint and texture-matrix angles are stored as signed 16-bit fractions of a
// half turn: 32767 units per 180 degrees.
const AngleUnitsPerHalfTurn = 32767

// AngleFromS16 converts a quantized angle to radians.
func AngleFromS16(v int16) float64 {
	deg := float64(v) * 180 / AngleUnitsPerHalfTurn
	return Deg2Rad(deg)
}

// AngleToS16 quantizes an angle in radians, rounding to nearest and wrapping
// to the 16-bit range.
func AngleToS16(rad float64) int16 {
	q := math.Round(Rad2Deg(rad) * AngleUnitsPerHalfTurn / 180)
	return int16(int32(q))
}
