package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func motionSeries(mags ...float64) []MotionSample {
	out := make([]MotionSample, len(mags))
	for i, m := range mags {
		out[i] = MotionSample{FrameIndex: i, Magnitude: m}
	}
	return out
}

func TestAnalyzeMotion_Empty(t *testing.T) {
	cfg := DefaultConfig()

	res := analyzeMotion(nil, &cfg)
	assert.False(t, res.analysis.Analyzed)
	assert.Equal(t, MotionLow, res.analysis.Pattern)
	assert.Empty(t, res.triggers)
}

func TestAnalyzeMotion_Patterns(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		mean          float64
		wantPattern   MotionPatternName
		wantRelevance Severity
	}{
		{90, MotionChaotic, SeverityHigh},
		{70, MotionErratic, SeverityHigh},
		{50, MotionHigh, SeverityMedium},
		{30, MotionModerate, SeverityLow},
		{10, MotionLow, SeverityLow},
	}
	for _, tc := range tests {
		res := analyzeMotion(motionSeries(tc.mean, tc.mean), &cfg)
		assert.Equal(t, tc.wantPattern, res.analysis.Pattern, "mean=%v", tc.mean)
		assert.Equal(t, tc.wantRelevance, res.analysis.CrimeRelevance, "mean=%v", tc.mean)
	}
}

func TestAnalyzeMotion_Statistics(t *testing.T) {
	cfg := DefaultConfig()

	res := analyzeMotion(motionSeries(10, 20, 30), &cfg)
	assert.True(t, res.analysis.Analyzed)
	assert.InDelta(t, 20, res.analysis.Mean, 1e-9)
	assert.InDelta(t, 30, res.analysis.Max, 1e-9)
	// Population variance of {10,20,30}.
	assert.InDelta(t, 200.0/3.0, res.analysis.Variance, 1e-9)
}

func TestAnalyzeMotion_SingleSampleVariance(t *testing.T) {
	cfg := DefaultConfig()

	res := analyzeMotion(motionSeries(42), &cfg)
	assert.Zero(t, res.analysis.Variance)
	assert.InDelta(t, 42, res.analysis.Mean, 1e-9)
}

func TestAnalyzeMotion_SuddenMovement(t *testing.T) {
	cfg := DefaultConfig()

	res := analyzeMotion(motionSeries(20, 60, 55), &cfg)

	require.Len(t, res.analysis.SuddenMoves, 1)
	jump := res.analysis.SuddenMoves[0]
	assert.Equal(t, 1, jump.FrameIndex)
	assert.Equal(t, 60.0, jump.Magnitude)
	assert.Equal(t, 20.0, jump.Previous)
}

func TestAnalyzeMotion_JumpBelowFloorIgnored(t *testing.T) {
	cfg := DefaultConfig()

	// 10 -> 40 is a 4x jump but stays under the absolute floor.
	res := analyzeMotion(motionSeries(10, 40), &cfg)
	assert.Empty(t, res.analysis.SuddenMoves)
}

func TestAnalyzeMotion_ChaseSequence(t *testing.T) {
	cfg := DefaultConfig()

	res := analyzeMotion(motionSeries(10, 45, 50, 55, 10), &cfg)

	require.Len(t, res.analysis.ChaseSequences, 1)
	chase := res.analysis.ChaseSequences[0]
	assert.Equal(t, 1, chase.StartFrame)
	assert.Equal(t, 3, chase.Frames)
	assert.InDelta(t, 50, chase.AvgMagnitude, 1e-9)

	var chaseTriggers int
	for _, tr := range res.triggers {
		if tr.details["pattern"] == "chase_sequence" {
			chaseTriggers++
			assert.Equal(t, EventSuspiciousPattern, tr.typ)
		}
	}
	assert.Equal(t, 1, chaseTriggers)
}

func TestAnalyzeMotion_ShortHighRunNotChase(t *testing.T) {
	cfg := DefaultConfig()

	res := analyzeMotion(motionSeries(10, 50, 55, 10), &cfg)
	assert.Empty(t, res.analysis.ChaseSequences)
}

func TestAnalyzeMotion_TrailingChaseFlushed(t *testing.T) {
	cfg := DefaultConfig()

	res := analyzeMotion(motionSeries(10, 45, 50, 55), &cfg)
	require.Len(t, res.analysis.ChaseSequences, 1)
	assert.Equal(t, 3, res.analysis.ChaseSequences[0].Frames)
}
