package kernel

import (
	"fmt"

	"github.com/rs/zerolog"
)

// ParticleIndex is the handle of a particle within its model.
type ParticleIndex int

// FloatKey names a float attribute. Every float attribute also carries
// a derivative slot of the same key.
type FloatKey string

// ModelObject is anything a restraint can report as an input.
type ModelObject interface {
	Name() string
}

// Particle is an entity of a model. Its attributes are reached through
// the owning Model.
type Particle struct {
	index  ParticleIndex
	name   string
	values map[FloatKey]float64
	derivs map[FloatKey]float64
}

func (p *Particle) Name() string         { return p.name }
func (p *Particle) Index() ParticleIndex { return p.index }

func (p *Particle) String() string {
	return fmt.Sprintf("%s[%d]", p.name, p.index)
}

type Option func(*Model)

// WithLogger attaches a logger used for evaluation tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Model) { m.log = l }
}

// Model owns particles and their float attributes.
type Model struct {
	particles []*Particle
	live      int
	names     map[string]int
	log       zerolog.Logger
}

func NewModel(opts ...Option) *Model {
	m := &Model{
		particles: make([]*Particle, 0),
		names:     make(map[string]int),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Logger returns the model's logger.
func (m *Model) Logger() zerolog.Logger { return m.log }

// AddParticle creates a particle and returns its index. An empty name
// gets a generated one.
func (m *Model) AddParticle(name string) ParticleIndex {
	pi := ParticleIndex(len(m.particles))
	if name == "" {
		name = fmt.Sprintf("P%d", pi)
	}
	m.particles = append(m.particles, &Particle{
		index:  pi,
		name:   name,
		values: make(map[FloatKey]float64),
		derivs: make(map[FloatKey]float64),
	})
	m.live++
	return pi
}

// RemoveParticle drops a particle. Its index is never reused.
func (m *Model) RemoveParticle(pi ParticleIndex) error {
	if _, err := m.Particle(pi); err != nil {
		return err
	}
	m.particles[pi] = nil
	m.live--
	return nil
}

func (m *Model) Particle(pi ParticleIndex) (*Particle, error) {
	if pi < 0 || int(pi) >= len(m.particles) || m.particles[pi] == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownParticle, pi)
	}
	return m.particles[pi], nil
}

// Particles returns the indexes of all live particles in creation order.
func (m *Model) Particles() []ParticleIndex {
	out := make([]ParticleIndex, 0, m.live)
	for _, p := range m.particles {
		if p != nil {
			out = append(out, p.index)
		}
	}
	return out
}

func (m *Model) NumParticles() int { return m.live }

// UniqueName expands a format with a single %d into a name not yet
// handed out for that format by this model.
func (m *Model) UniqueName(format string) string {
	n := m.names[format]
	m.names[format] = n + 1
	return fmt.Sprintf(format, n)
}

func (m *Model) HasAttribute(k FloatKey, pi ParticleIndex) bool {
	p, err := m.Particle(pi)
	if err != nil {
		return false
	}
	_, ok := p.values[k]
	return ok
}

func (m *Model) Attribute(k FloatKey, pi ParticleIndex) (float64, error) {
	p, err := m.Particle(pi)
	if err != nil {
		return 0, err
	}
	v, ok := p.values[k]
	if !ok {
		return 0, &AttributeError{Particle: pi, Key: k, Wrapped: ErrMissingAttribute}
	}
	return v, nil
}

// AddAttribute creates attribute k; it fails if the particle already has it.
func (m *Model) AddAttribute(k FloatKey, pi ParticleIndex, v float64) error {
	p, err := m.Particle(pi)
	if err != nil {
		return err
	}
	if _, ok := p.values[k]; ok {
		return &AttributeError{Particle: pi, Key: k, Wrapped: ErrAttributeExists}
	}
	p.values[k] = v
	p.derivs[k] = 0
	return nil
}

// SetAttribute overwrites an existing attribute.
func (m *Model) SetAttribute(k FloatKey, pi ParticleIndex, v float64) error {
	p, err := m.Particle(pi)
	if err != nil {
		return err
	}
	if _, ok := p.values[k]; !ok {
		return &AttributeError{Particle: pi, Key: k, Wrapped: ErrMissingAttribute}
	}
	p.values[k] = v
	return nil
}

func (m *Model) RemoveAttribute(k FloatKey, pi ParticleIndex) error {
	p, err := m.Particle(pi)
	if err != nil {
		return err
	}
	if _, ok := p.values[k]; !ok {
		return &AttributeError{Particle: pi, Key: k, Wrapped: ErrMissingAttribute}
	}
	delete(p.values, k)
	delete(p.derivs, k)
	return nil
}

func (m *Model) Derivative(k FloatKey, pi ParticleIndex) (float64, error) {
	p, err := m.Particle(pi)
	if err != nil {
		return 0, err
	}
	d, ok := p.derivs[k]
	if !ok {
		return 0, &AttributeError{Particle: pi, Key: k, Wrapped: ErrMissingAttribute}
	}
	return d, nil
}

// AddToDerivative adds da.Weight*v to the derivative of attribute k.
// A nil accumulator means derivatives are off and the call is a no-op.
func (m *Model) AddToDerivative(k FloatKey, pi ParticleIndex, v float64, da *DerivativeAccumulator) error {
	if da == nil {
		return nil
	}
	p, err := m.Particle(pi)
	if err != nil {
		return err
	}
	if _, ok := p.derivs[k]; !ok {
		return &AttributeError{Particle: pi, Key: k, Wrapped: ErrMissingAttribute}
	}
	p.derivs[k] += da.Weight * v
	return nil
}

// ZeroDerivatives resets every derivative in the model.
func (m *Model) ZeroDerivatives() {
	for _, p := range m.particles {
		if p == nil {
			continue
		}
		for k := range p.derivs {
			p.derivs[k] = 0
		}
	}
}
