package vmath

import (
	"math"
)

// Vec3F is a float64 3D vector used for world-effect positions
// Devices carry it unchanged; no spatialization is applied
type Vec3F struct {
	X, Y, Z float64
}

func V3FAdd(a, b Vec3F) Vec3F {
	return Vec3F{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func V3FSub(a, b Vec3F) Vec3F {
	return Vec3F{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func V3FScale(v Vec3F, s float64) Vec3F {
	return Vec3F{v.X * s, v.Y * s, v.Z * s}
}

func V3FMag(v Vec3F) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// V3FOrbit returns a point on a horizontal circle around center at angle (radians)
func V3FOrbit(center Vec3F, radius, angle float64) Vec3F {
	return Vec3F{
		X: center.X + radius*math.Cos(angle),
		Y: center.Y,
		Z: center.Z + radius*math.Sin(angle),
	}
}
