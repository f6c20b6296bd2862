package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"github.com/san-kum/restrain/internal/algebra"
	"github.com/san-kum/restrain/internal/core"
	"github.com/san-kum/restrain/internal/experiment"
	"github.com/san-kum/restrain/internal/kernel"
	"gopkg.in/yaml.v3"
)

const (
	DefaultStepSize  = 0.01
	DefaultMaxStep   = 1.0
	DefaultMaxSteps  = 1000
	DefaultThreshold = 1e-8
)

var (
	ErrUnsupportedFormat = errors.New("config: unsupported file format")
	ErrInvalidScene      = errors.New("config: invalid scene")
)

type Config struct {
	Name       string            `yaml:"name" toml:"name"`
	Particles  []ParticleConfig  `yaml:"particles" toml:"particles"`
	Restraints []RestraintConfig `yaml:"restraints" toml:"restraints"`
	Minimize   MinimizeConfig    `yaml:"minimize" toml:"minimize"`
}

type ParticleConfig struct {
	Name string    `yaml:"name" toml:"name"`
	XYZ  []float64 `yaml:"xyz" toml:"xyz"`
}

type RestraintConfig struct {
	Type     string             `yaml:"type" toml:"type"`
	Particle string             `yaml:"particle" toml:"particle"`
	Params   map[string]float64 `yaml:"params" toml:"params"`
	Weight   *float64           `yaml:"weight,omitempty" toml:"weight,omitempty"`
}

type MinimizeConfig struct {
	StepSize  float64 `yaml:"step_size" toml:"step_size"`
	MaxStep   float64 `yaml:"max_step" toml:"max_step"`
	MaxSteps  int     `yaml:"max_steps" toml:"max_steps"`
	Threshold float64 `yaml:"threshold" toml:"threshold"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "scene",
		Minimize: MinimizeConfig{
			StepSize:  DefaultStepSize,
			MaxStep:   DefaultMaxStep,
			MaxSteps:  DefaultMaxSteps,
			Threshold: DefaultThreshold,
		},
	}
}

// Load reads a scene from a .yaml, .yml or .toml file. Fields missing
// from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	case ".toml":
		var sb strings.Builder
		err = toml.NewEncoder(&sb).Encode(cfg)
		data = []byte(sb.String())
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks that the scene can be built: particles are uniquely
// named with three coordinates and every restraint names one of them.
func (c *Config) Validate() error {
	if len(c.Particles) == 0 {
		return fmt.Errorf("%w: no particles", ErrInvalidScene)
	}
	names := make(map[string]bool, len(c.Particles))
	for i, p := range c.Particles {
		if p.Name == "" {
			return fmt.Errorf("%w: particle %d has no name", ErrInvalidScene, i)
		}
		if names[p.Name] {
			return fmt.Errorf("%w: duplicate particle %q", ErrInvalidScene, p.Name)
		}
		if len(p.XYZ) != 3 {
			return fmt.Errorf("%w: particle %q needs 3 coordinates, got %d", ErrInvalidScene, p.Name, len(p.XYZ))
		}
		names[p.Name] = true
	}
	for i, r := range c.Restraints {
		if r.Type == "" {
			return fmt.Errorf("%w: restraint %d has no type", ErrInvalidScene, i)
		}
		if !names[r.Particle] {
			return fmt.Errorf("%w: restraint %d references unknown particle %q", ErrInvalidScene, i, r.Particle)
		}
	}
	if c.Minimize.StepSize <= 0 || c.Minimize.MaxSteps <= 0 {
		return fmt.Errorf("%w: minimize step_size and max_steps must be positive", ErrInvalidScene)
	}
	return nil
}

// Build creates the model and restraints the scene describes.
func (c *Config) Build(reg *experiment.Registry, log zerolog.Logger) (*kernel.Model, []kernel.Restraint, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	m := kernel.NewModel(kernel.WithLogger(log))
	index := make(map[string]kernel.ParticleIndex, len(c.Particles))
	for _, p := range c.Particles {
		pi := m.AddParticle(p.Name)
		if _, err := core.SetupXYZ(m, pi, algebra.NewVector3D(p.XYZ[0], p.XYZ[1], p.XYZ[2])); err != nil {
			return nil, nil, err
		}
		index[p.Name] = pi
	}

	restraints := make([]kernel.Restraint, 0, len(c.Restraints))
	for _, rc := range c.Restraints {
		r, err := reg.GetRestraint(rc.Type, m, index[rc.Particle], rc.Params)
		if err != nil {
			return nil, nil, err
		}
		if rc.Weight != nil {
			w, ok := r.(interface{ SetWeight(float64) })
			if !ok {
				return nil, nil, fmt.Errorf("restraint %s does not support weights", r.Name())
			}
			w.SetWeight(*rc.Weight)
		}
		restraints = append(restraints, r)
	}

	return m, restraints, nil
}

// NewExperiment builds the scene and wraps it for evaluation.
func (c *Config) NewExperiment(reg *experiment.Registry, log zerolog.Logger) (*experiment.Experiment, error) {
	m, restraints, err := c.Build(reg, log)
	if err != nil {
		return nil, err
	}
	return experiment.New(m, restraints, log)
}
