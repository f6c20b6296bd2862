// Package automation runs scripted sequences of scene evaluations and
// parameter sweeps.
package automation

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/san-kum/restrain/internal/config"
	"github.com/san-kum/restrain/internal/experiment"
	"github.com/san-kum/restrain/internal/metrics"
	"github.com/san-kum/restrain/internal/optim"
	"github.com/san-kum/restrain/internal/storage"
	"gopkg.in/yaml.v3"
)

const (
	ActionEval     = "eval"
	ActionMinimize = "minimize"
	ActionGrid     = "grid"
)

// Scenario defines a scripted sequence of scene runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep names a scene (file path or preset) and what to do with it.
type ScenarioStep struct {
	Scene  string    `yaml:"scene"`
	Preset string    `yaml:"preset"`
	Action string    `yaml:"action"`
	Grid   *GridSpec `yaml:"grid,omitempty"`
	Save   bool      `yaml:"save"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Scene   string
	Action  string
	Result  *experiment.Result
	Metrics map[string]float64
	RunID   string
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

// ResolveScene loads a scene from a file, or from a preset when path is empty.
func ResolveScene(path, preset string) (*config.Config, error) {
	switch {
	case path != "":
		return config.Load(path)
	case preset != "":
		cfg := config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		return cfg, nil
	}
	return nil, fmt.Errorf("neither scene file nor preset given")
}

// RunScenario executes all steps in order. st may be nil, in which case
// nothing is saved.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, st *storage.Store, log zerolog.Logger) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := ResolveScene(step.Scene, step.Preset)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		action := step.Action
		if action == "" {
			action = ActionEval
		}

		log.Info().
			Int("step", i+1).
			Int("of", len(scenario.Steps)).
			Str("scene", cfg.Name).
			Str("action", action).
			Msg("running scenario step")

		exp, err := cfg.NewExperiment(registry, log)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		sr := StepResult{Scene: cfg.Name, Action: action}
		var history []float64

		switch action {
		case ActionEval:
			if sr.Result, err = exp.Run(ctx, true); err != nil {
				return results, fmt.Errorf("step %d run: %w", i+1, err)
			}
		case ActionMinimize:
			opt := optim.NewSteepestDescent(exp.ScoringFunction(), OptimConfig(cfg.Minimize), log)
			ms := metrics.Defaults()
			for _, m := range ms {
				opt.AddObserver(m)
			}
			if _, err := opt.Optimize(ctx); err != nil {
				return results, fmt.Errorf("step %d minimize: %w", i+1, err)
			}
			if sr.Result, err = exp.Run(ctx, true); err != nil {
				return results, fmt.Errorf("step %d run: %w", i+1, err)
			}
			sr.Metrics = metrics.Collect(ms)
			history = ms[0].(*metrics.ScoreHistory).Scores()
		case ActionGrid:
			if step.Grid == nil {
				return results, fmt.Errorf("step %d: grid action needs a grid section", i+1)
			}
			if _, _, err := RunGrid(ctx, exp, *step.Grid); err != nil {
				return results, fmt.Errorf("step %d grid: %w", i+1, err)
			}
			if sr.Result, err = exp.Run(ctx, true); err != nil {
				return results, fmt.Errorf("step %d run: %w", i+1, err)
			}
		default:
			return results, fmt.Errorf("step %d: unknown action %q", i+1, action)
		}

		if step.Save && st != nil {
			if sr.RunID, err = st.Save(cfg.Name, action, sr.Result, history, sr.Metrics); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}

		results = append(results, sr)
	}

	return results, nil
}

// OptimConfig maps scene minimizer settings onto the optimizer's.
func OptimConfig(mc config.MinimizeConfig) optim.Config {
	cfg := optim.DefaultConfig()
	if mc.StepSize > 0 {
		cfg.StepSize = mc.StepSize
	}
	if mc.MaxStep > 0 {
		cfg.MaxStep = mc.MaxStep
	}
	if mc.MaxSteps > 0 {
		cfg.MaxSteps = mc.MaxSteps
	}
	if mc.Threshold > 0 {
		cfg.Threshold = mc.Threshold
	}
	if cfg.MaxStep < cfg.StepSize {
		cfg.MaxStep = cfg.StepSize
	}
	return cfg
}

// ParameterSweep re-evaluates a scene while one parameter of one of its
// restraints runs over a range.
type ParameterSweep struct {
	Scene     *config.Config
	Restraint int
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

type SweepResult struct {
	ParamValue float64
	Score      float64
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, log zerolog.Logger) ([]SweepResult, error) {
	if sweep.Restraint < 0 || sweep.Restraint >= len(sweep.Scene.Restraints) {
		return nil, fmt.Errorf("restraint %d out of range (scene has %d)", sweep.Restraint, len(sweep.Scene.Restraints))
	}
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step")
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	values := optim.Linspace(sweep.ParamMin, sweep.ParamMax, sweep.NumSteps)

	for i, paramVal := range values {
		cfg := *sweep.Scene
		cfg.Restraints = append([]config.RestraintConfig(nil), sweep.Scene.Restraints...)
		rc := cfg.Restraints[sweep.Restraint]
		params := make(map[string]float64, len(rc.Params)+1)
		for k, v := range rc.Params {
			params[k] = v
		}
		params[sweep.ParamName] = paramVal
		rc.Params = params
		cfg.Restraints[sweep.Restraint] = rc

		exp, err := cfg.NewExperiment(registry, log)
		if err != nil {
			return results, err
		}
		result, err := exp.Run(ctx, false)
		if err != nil {
			return results, err
		}

		results = append(results, SweepResult{ParamValue: paramVal, Score: result.Score})

		log.Debug().
			Int("sweep", i+1).
			Int("of", len(values)).
			Str("param", sweep.ParamName).
			Float64("value", paramVal).
			Float64("score", result.Score).
			Msg("sweep point")
	}

	return results, nil
}
