// Package engine turns upstream perception output (object detections,
// action-recognition scores, motion statistics) into a structured crime
// report: four per-dimension assessments, an overall severity verdict,
// and a discrete event timeline. Analysis is pure and deterministic;
// the same input and config always produce the same report.
package engine

import "fmt"

// Engine runs crime-pattern analysis with a fixed, validated config.
// It holds no per-analysis state and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns a ready engine. The config is
// copied; later mutation of the caller's value has no effect.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns a copy of the engine's active configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Analyze produces the crime report for one video's perception output.
// Empty input yields a safe report, not an error; the only fatal input
// condition is non-monotonic frame ordering (ErrNonMonotonicFrames).
func (e *Engine) Analyze(in Input) (*CrimeReport, error) {
	cfg := &e.cfg

	norm, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}

	prox := analyzeProximity(norm.frames, cfg)
	temp := trackTemporal(norm.frames, cfg)
	act := classifyActions(norm.actions, cfg)
	mot := analyzeMotion(norm.motion, cfg)

	report := resolve(prox, temp, act, mot, cfg)

	var triggers []trigger
	triggers = append(triggers, prox.triggers...)
	triggers = append(triggers, temp.triggers...)
	triggers = append(triggers, act.triggers...)
	triggers = append(triggers, mot.triggers...)
	report.Events = aggregateEvents(triggers)

	report.ActionsObserved = act.actions
	report.InputWarnings = norm.warnings
	report.ConfigVersion = cfg.Version
	report.FramesAnalyzed = len(norm.frames)
	report.ClipsAnalyzed = len(in.Clips)
	report.MotionSamples = len(norm.motion)
	return &report, nil
}
