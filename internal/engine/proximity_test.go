package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detectionAt(label string, conf, x, y float64) Detection {
	return Detection{Label: label, Confidence: conf, BBox: BBox{X: x, Y: y, W: 10, H: 10}}
}

func TestAnalyzeProximity_Tiers(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name      string
		personDX  float64
		wantTier  ProximityTier
		wantLevel Severity
	}{
		{"close", 150, ProximityClose, SeverityCritical},
		{"moderate", 400, ProximityModerate, SeverityHigh},
		{"beyond moderate", 900, ProximityNone, SeverityMedium},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			frames := []Frame{{Index: 0, Detections: []Detection{
				detectionAt("gun", 0.5, 0, 0),
				detectionAt("person", 0.9, tc.personDX, 0),
			}}}
			res := analyzeProximity(frames, &cfg)

			assert.True(t, res.analysis.Detected)
			assert.Equal(t, tc.wantLevel, res.analysis.ThreatLevel)
			if tc.wantTier == ProximityNone {
				assert.Empty(t, res.analysis.ProximityAlerts)
			} else {
				require.Len(t, res.analysis.ProximityAlerts, 1)
				assert.Equal(t, tc.wantTier, res.analysis.ProximityAlerts[0].Tier)
			}
		})
	}
}

func TestAnalyzeProximity_ConfidentWeaponAlone(t *testing.T) {
	cfg := DefaultConfig()

	frames := []Frame{{Index: 0, Detections: []Detection{
		detectionAt("rifle", 0.75, 0, 0),
	}}}
	res := analyzeProximity(frames, &cfg)

	// No person in frame, but the detection clears the high-confidence bar.
	assert.Equal(t, SeverityCritical, res.analysis.ThreatLevel)
	assert.Empty(t, res.analysis.ProximityAlerts)
	require.Len(t, res.analysis.WeaponFrames, 1)
	assert.Equal(t, 0, res.analysis.WeaponFrames[0].PersonCount)
}

func TestAnalyzeProximity_LowConfidenceWeaponAlone(t *testing.T) {
	cfg := DefaultConfig()

	frames := []Frame{{Index: 0, Detections: []Detection{
		detectionAt("rifle", 0.4, 0, 0),
	}}}
	res := analyzeProximity(frames, &cfg)

	assert.Equal(t, SeverityMedium, res.analysis.ThreatLevel)
}

func TestAnalyzeProximity_SubstringLexicon(t *testing.T) {
	cfg := DefaultConfig()

	frames := []Frame{{Index: 0, Detections: []Detection{
		detectionAt("baseball bat", 0.8, 0, 0),
		detectionAt("person", 0.9, 100, 0),
	}}}
	res := analyzeProximity(frames, &cfg)

	require.Len(t, res.analysis.WeaponFrames, 1)
	require.Len(t, res.analysis.WeaponFrames[0].Weapons, 1)
	assert.Equal(t, "baseball bat", res.analysis.WeaponFrames[0].Weapons[0].Label)
}

func TestAnalyzeProximity_NearestPersonWins(t *testing.T) {
	cfg := DefaultConfig()

	weapon := detectionAt("knife", 0.6, 0, 0)
	frames := []Frame{{Index: 3, Detections: []Detection{
		weapon,
		detectionAt("person", 0.9, 600, 0),
		detectionAt("person", 0.9, 250, 0),
	}}}
	res := analyzeProximity(frames, &cfg)

	require.Len(t, res.analysis.ProximityAlerts, 1)
	assert.InDelta(t, 250, res.analysis.ProximityAlerts[0].Distance, 1e-9)
	assert.Equal(t, ProximityClose, res.analysis.ProximityAlerts[0].Tier)
}

func TestNearestPersonAlert_NoPersons(t *testing.T) {
	cfg := DefaultConfig()

	alert := nearestPersonAlert(detectionAt("gun", 0.5, 0, 0), nil, &cfg)
	assert.Equal(t, ProximityNone, alert.Tier)
	assert.True(t, math.IsInf(alert.Distance, 1))
}

func TestAnalyzeProximity_ScoreIsMaxConfidence(t *testing.T) {
	cfg := DefaultConfig()

	frames := []Frame{
		{Index: 0, Detections: []Detection{detectionAt("knife", 0.55, 0, 0)}},
		{Index: 1, Detections: []Detection{detectionAt("gun", 0.35, 0, 0)}},
	}
	res := analyzeProximity(frames, &cfg)
	assert.InDelta(t, 0.55, res.analysis.Score, 1e-9)
}
