// Package algebra provides the small amount of 3-D vector math the
// scoring kernel needs.
package algebra

import (
	"fmt"
	"math"
)

// Vector3D is a point or direction in 3-D space. Values are immutable:
// every operation returns a new vector.
type Vector3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func NewVector3D(x, y, z float64) Vector3D {
	return Vector3D{X: x, Y: y, Z: z}
}

// Zero returns the origin.
func Zero() Vector3D { return Vector3D{} }

func (v Vector3D) Add(o Vector3D) Vector3D {
	return Vector3D{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vector3D) Sub(o Vector3D) Vector3D {
	return Vector3D{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vector3D) Scale(f float64) Vector3D {
	return Vector3D{v.X * f, v.Y * f, v.Z * f}
}

func (v Vector3D) Dot(o Vector3D) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vector3D) SquaredNorm() float64 {
	return v.Dot(v)
}

func (v Vector3D) Norm() float64 {
	return math.Sqrt(v.SquaredNorm())
}

// Component returns coordinate i (0 = x, 1 = y, 2 = z).
func (v Vector3D) Component(i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	}
	panic(fmt.Sprintf("algebra: component index %d out of range [0,3)", i))
}

// WithComponent returns a copy of v with coordinate i replaced.
func (v Vector3D) WithComponent(i int, val float64) Vector3D {
	switch i {
	case 0:
		v.X = val
	case 1:
		v.Y = val
	case 2:
		v.Z = val
	default:
		panic(fmt.Sprintf("algebra: component index %d out of range [0,3)", i))
	}
	return v
}

func (v Vector3D) IsValid() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func (v Vector3D) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

func SquaredDistance(a, b Vector3D) float64 {
	return a.Sub(b).SquaredNorm()
}

// Distance is the Euclidean distance between a and b.
func Distance(a, b Vector3D) float64 {
	return math.Sqrt(SquaredDistance(a, b))
}
