package config

import "sort"

func weight(w float64) *float64 { return &w }

var Presets = map[string]*Config{
	// one particle at (1,2,3) held by MyRestraint with k = 10
	"default": {
		Name: "default",
		Particles: []ParticleConfig{
			{Name: "p", XYZ: []float64{1, 2, 3}},
		},
		Restraints: []RestraintConfig{
			{Type: "my_restraint", Particle: "p", Params: map[string]float64{"k": 10}},
		},
	},
	"offset": {
		Name: "offset",
		Particles: []ParticleConfig{
			{Name: "p", XYZ: []float64{0, 0, -4}},
		},
		Restraints: []RestraintConfig{
			{Type: "my_restraint", Particle: "p", Params: map[string]float64{"k": 2}},
		},
	},
	"pair": {
		Name: "pair",
		Particles: []ParticleConfig{
			{Name: "a", XYZ: []float64{1, 2, 3}},
			{Name: "b", XYZ: []float64{-1, 0, 2}},
		},
		Restraints: []RestraintConfig{
			{Type: "my_restraint", Particle: "a", Params: map[string]float64{"k": 10}},
			{Type: "harmonic_point", Particle: "b", Params: map[string]float64{"k": 1, "x0": 2, "y0": 2, "z0": 2}, Weight: weight(0.5)},
			{Type: "my_restraint", Particle: "b", Params: map[string]float64{"k": 4}},
		},
	},
}

// GetPreset returns a copy of the named preset with default minimizer
// settings filled in, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Name = p.Name
	cfg.Particles = make([]ParticleConfig, len(p.Particles))
	for i, pc := range p.Particles {
		cfg.Particles[i] = ParticleConfig{Name: pc.Name, XYZ: append([]float64(nil), pc.XYZ...)}
	}
	cfg.Restraints = make([]RestraintConfig, len(p.Restraints))
	for i, rc := range p.Restraints {
		params := make(map[string]float64, len(rc.Params))
		for k, v := range rc.Params {
			params[k] = v
		}
		cfg.Restraints[i] = RestraintConfig{Type: rc.Type, Particle: rc.Particle, Params: params}
		if rc.Weight != nil {
			cfg.Restraints[i].Weight = weight(*rc.Weight)
		}
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
