// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// ClipInterval is a wrapper to use Clip with an r1.Interval instead of
// a separate max and min value
func ClipInterval(value float64, interval r1.Interval) float64 {
	return Clip(value, interval.Min, interval.Max)
}

// ClipSlice clips each value of a slice in place and returns the slice
func ClipSlice(values []float64, min, max float64) []float64 {
	for i := range values {
		values[i] = Clip(values[i], min, max)
	}
	return values
}

// ClipVec clips each coordinate of p to within the box [low, high]
func ClipVec(p, low, high r3.Vec) r3.Vec {
	return r3.Vec{
		X: Clip(p.X, low.X, high.X),
		Y: Clip(p.Y, low.Y, high.Y),
		Z: Clip(p.Z, low.Z, high.Z),
	}
}

// Vec returns the coordinates of p as a slice
func Vec(p r3.Vec) []float64 {
	return []float64{p.X, p.Y, p.Z}
}

// ToVec returns the first three values of a slice as an r3.Vec
func ToVec(values []float64) r3.Vec {
	return r3.Vec{X: values[0], Y: values[1], Z: values[2]}
}

// Min calculates and returns the minimum float64 in a list
func Min(floats ...float64) float64 {
	min := floats[0]
	for _, val := range floats {
		if val < min {
			min = val
		}
	}
	return min
}

// Max calculates and returns the maximum float64 in a list
func Max(floats ...float64) float64 {
	max := floats[0]
	for _, val := range floats {
		if val > max {
			max = val
		}
	}
	return max
}
