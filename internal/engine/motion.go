package engine

import (
	"strconv"
)

type motionResult struct {
	analysis MotionAnalysis
	triggers []trigger
}

// analyzeMotion classifies the motion time-series on the fixed 0-100
// scale: overall pattern from mean magnitude, sudden-movement flags from
// sample-to-sample jumps, and chase sequences from sustained high motion.
func analyzeMotion(samples []MotionSample, cfg *Config) motionResult {
	var res motionResult
	res.analysis.Pattern = MotionLow
	res.analysis.CrimeRelevance = SeverityLow
	if len(samples) == 0 {
		return res
	}
	res.analysis.Analyzed = true

	var sum float64
	for _, s := range samples {
		sum += s.Magnitude
		if s.Magnitude > res.analysis.Max {
			res.analysis.Max = s.Magnitude
		}
	}
	mean := sum / float64(len(samples))
	res.analysis.Mean = mean

	// Population variance; a single-sample series has no spread, so the
	// variance falls back to 0 rather than dividing by n-1.
	var sq float64
	for _, s := range samples {
		d := s.Magnitude - mean
		sq += d * d
	}
	res.analysis.Variance = sq / float64(len(samples))

	switch {
	case mean > cfg.Motion.ChaoticMean:
		res.analysis.Pattern = MotionChaotic
		res.analysis.CrimeRelevance = SeverityHigh
	case mean > cfg.Motion.ErraticMean:
		res.analysis.Pattern = MotionErratic
		res.analysis.CrimeRelevance = SeverityHigh
	case mean > cfg.Motion.HighMean:
		res.analysis.Pattern = MotionHigh
		res.analysis.CrimeRelevance = SeverityMedium
	case mean > cfg.Motion.ModerateMean:
		res.analysis.Pattern = MotionModerate
	}

	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		if cur.Magnitude >= cfg.Motion.SuddenFloor && cur.Magnitude > prev.Magnitude*cfg.Motion.SuddenFactor {
			res.analysis.SuddenMoves = append(res.analysis.SuddenMoves, SuddenMovement{
				FrameIndex: cur.FrameIndex,
				Magnitude:  cur.Magnitude,
				Previous:   prev.Magnitude,
			})
			res.triggers = append(res.triggers, trigger{
				typ:        EventSuspiciousPattern,
				severity:   SeverityLow,
				confidence: clampScore(cur.Magnitude / 100),
				frameStart: cur.FrameIndex,
				frameEnd:   cur.FrameIndex,
				details: map[string]string{
					"pattern":   "sudden_movement",
					"magnitude": strconv.FormatFloat(cur.Magnitude, 'f', 1, 64),
				},
			})
		}
	}

	res.analysis.ChaseSequences = detectChases(samples, cfg)
	for _, c := range res.analysis.ChaseSequences {
		res.triggers = append(res.triggers, trigger{
			typ:        EventSuspiciousPattern,
			severity:   SeverityLow,
			confidence: clampScore(c.AvgMagnitude / 100),
			frameStart: c.StartFrame,
			frameEnd:   c.StartFrame + c.Frames - 1,
			details: map[string]string{
				"pattern": "chase_sequence",
				"frames":  strconv.Itoa(c.Frames),
			},
		})
	}

	return res
}

// detectChases finds runs of ChaseMinRun or more consecutive samples in
// the "high" band or above.
func detectChases(samples []MotionSample, cfg *Config) []ChaseSequence {
	var out []ChaseSequence
	runStart, runSum, runLen := 0, 0.0, 0

	flush := func() {
		if runLen >= cfg.Motion.ChaseMinRun {
			out = append(out, ChaseSequence{
				StartFrame:   samples[runStart].FrameIndex,
				Frames:       runLen,
				AvgMagnitude: runSum / float64(runLen),
			})
		}
		runLen, runSum = 0, 0
	}

	for i, s := range samples {
		if s.Magnitude > cfg.Motion.HighMean {
			if runLen == 0 {
				runStart = i
			}
			runLen++
			runSum += s.Magnitude
			continue
		}
		flush()
	}
	flush()
	return out
}

func clampScore(v float64) float64 {
	c, _ := clampUnit(v)
	return c
}
