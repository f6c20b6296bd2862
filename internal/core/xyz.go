package core

import (
	"errors"
	"fmt"

	"github.com/san-kum/restrain/internal/algebra"
	"github.com/san-kum/restrain/internal/kernel"
)

const (
	XKey kernel.FloatKey = "x"
	YKey kernel.FloatKey = "y"
	ZKey kernel.FloatKey = "z"
)

var xyzKeys = [3]kernel.FloatKey{XKey, YKey, ZKey}

var (
	ErrNotXYZ     = errors.New("core: particle is not decorated with XYZ")
	ErrAlreadyXYZ = errors.New("core: particle is already decorated with XYZ")
)

// XYZ views a particle as a point in space.
type XYZ struct {
	model *kernel.Model
	pi    kernel.ParticleIndex
}

// IsXYZ reports whether the particle carries all three coordinates.
func IsXYZ(m *kernel.Model, pi kernel.ParticleIndex) bool {
	for _, k := range xyzKeys {
		if !m.HasAttribute(k, pi) {
			return false
		}
	}
	return true
}

// SetupXYZ adds coordinate attributes to a particle.
func SetupXYZ(m *kernel.Model, pi kernel.ParticleIndex, v algebra.Vector3D) (XYZ, error) {
	if _, err := m.Particle(pi); err != nil {
		return XYZ{}, err
	}
	if IsXYZ(m, pi) {
		return XYZ{}, fmt.Errorf("%w: %d", ErrAlreadyXYZ, pi)
	}
	for i, k := range xyzKeys {
		if err := m.AddAttribute(k, pi, v.Component(i)); err != nil {
			return XYZ{}, err
		}
	}
	return XYZ{model: m, pi: pi}, nil
}

// NewXYZ wraps an already decorated particle.
func NewXYZ(m *kernel.Model, pi kernel.ParticleIndex) (XYZ, error) {
	if _, err := m.Particle(pi); err != nil {
		return XYZ{}, err
	}
	if !IsXYZ(m, pi) {
		return XYZ{}, fmt.Errorf("%w: %d", ErrNotXYZ, pi)
	}
	return XYZ{model: m, pi: pi}, nil
}

func (d XYZ) Model() *kernel.Model                { return d.model }
func (d XYZ) ParticleIndex() kernel.ParticleIndex { return d.pi }

func (d XYZ) Coordinate(i int) (float64, error) {
	return d.model.Attribute(xyzKeys[i], d.pi)
}

func (d XYZ) X() (float64, error) { return d.Coordinate(0) }
func (d XYZ) Y() (float64, error) { return d.Coordinate(1) }
func (d XYZ) Z() (float64, error) { return d.Coordinate(2) }

func (d XYZ) Coordinates() (algebra.Vector3D, error) {
	var c [3]float64
	for i, k := range xyzKeys {
		v, err := d.model.Attribute(k, d.pi)
		if err != nil {
			return algebra.Vector3D{}, err
		}
		c[i] = v
	}
	return algebra.NewVector3D(c[0], c[1], c[2]), nil
}

func (d XYZ) SetCoordinates(v algebra.Vector3D) error {
	for i, k := range xyzKeys {
		if err := d.model.SetAttribute(k, d.pi, v.Component(i)); err != nil {
			return err
		}
	}
	return nil
}

func (d XYZ) SetCoordinate(i int, v float64) error {
	return d.model.SetAttribute(xyzKeys[i], d.pi, v)
}

func (d XYZ) Derivative(i int) (float64, error) {
	return d.model.Derivative(xyzKeys[i], d.pi)
}

// Derivatives returns the accumulated gradient of the particle's position.
func (d XYZ) Derivatives() (algebra.Vector3D, error) {
	var c [3]float64
	for i, k := range xyzKeys {
		v, err := d.model.Derivative(k, d.pi)
		if err != nil {
			return algebra.Vector3D{}, err
		}
		c[i] = v
	}
	return algebra.NewVector3D(c[0], c[1], c[2]), nil
}

// AddToDerivative adds v to coordinate i's derivative through da.
func (d XYZ) AddToDerivative(i int, v float64, da *kernel.DerivativeAccumulator) error {
	return d.model.AddToDerivative(xyzKeys[i], d.pi, v, da)
}

func (d XYZ) AddToDerivatives(v algebra.Vector3D, da *kernel.DerivativeAccumulator) error {
	for i := range xyzKeys {
		if err := d.AddToDerivative(i, v.Component(i), da); err != nil {
			return err
		}
	}
	return nil
}

func (d XYZ) String() string {
	v, err := d.Coordinates()
	if err != nil {
		return fmt.Sprintf("XYZ[%d](invalid)", d.pi)
	}
	return fmt.Sprintf("XYZ[%d]%v", d.pi, v)
}
