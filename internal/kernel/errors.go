package kernel

import (
	"errors"
	"fmt"
)

// Domain errors for model and restraint operations.
var (
	// ErrUnknownParticle indicates a particle index that is not (or no longer) in the model.
	ErrUnknownParticle = errors.New("kernel: unknown particle")

	// ErrMissingAttribute indicates a read of an attribute the particle does not have.
	ErrMissingAttribute = errors.New("kernel: missing attribute")

	// ErrAttributeExists indicates an attempt to add an attribute twice.
	ErrAttributeExists = errors.New("kernel: attribute already present")

	// ErrModelMismatch indicates restraints from different models were combined.
	ErrModelMismatch = errors.New("kernel: restraint belongs to a different model")

	// ErrRestraintCycle indicates a restraint set that would contain itself.
	ErrRestraintCycle = errors.New("kernel: restraint set would contain itself")
	// ErrInvalidScore indicates a restraint produced NaN or Inf.
	ErrInvalidScore = errors.New("kernel: invalid score (NaN or Inf)")
)

// AttributeError wraps an error with the particle and key it concerns.
type AttributeError struct {
	Particle ParticleIndex
	Key      FloatKey
	Wrapped  error
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("%v: particle %d, key %q", e.Wrapped, e.Particle, e.Key)
}

func (e *AttributeError) Unwrap() error {
	return e.Wrapped
}
