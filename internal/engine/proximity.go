package engine

import (
	"math"
	"strconv"
	"strings"
)

// proximityResult is the weapon-threat assessment plus its raw triggers.
type proximityResult struct {
	analysis WeaponThreatAnalysis
	triggers []trigger
}

// analyzeProximity computes weapon-to-person spatial relationships per
// frame. Any single weapon detection in any single frame is sufficient to
// set detected=true; this deliberately trades precision for recall.
func analyzeProximity(frames []Frame, cfg *Config) proximityResult {
	var res proximityResult

	for _, frame := range frames {
		var weapons, persons []Detection
		for _, d := range frame.Detections {
			switch {
			case d.Label == cfg.Lexicons.PersonLabel:
				persons = append(persons, d)
			case isWeaponLabel(d.Label, cfg.Lexicons.Weapons):
				weapons = append(weapons, d)
			}
		}
		if len(weapons) == 0 {
			continue
		}

		wf := WeaponFrame{
			FrameIndex:  frame.Index,
			WeaponCount: len(weapons),
			PersonCount: len(persons),
		}
		for _, w := range weapons {
			wf.Weapons = append(wf.Weapons, WeaponSighting{Label: w.Label, Confidence: w.Confidence})
			if w.Confidence > res.analysis.Score {
				res.analysis.Score = w.Confidence
			}

			alert := nearestPersonAlert(w, persons, cfg)
			instanceLevel := weaponInstanceLevel(alert.Tier, len(persons), w.Confidence, cfg)
			res.analysis.ThreatLevel = maxSeverity(res.analysis.ThreatLevel, instanceLevel)

			if alert.Tier != ProximityNone {
				res.analysis.ProximityAlerts = append(res.analysis.ProximityAlerts, alert)
				res.triggers = append(res.triggers, trigger{
					typ:        EventWeaponProximity,
					severity:   instanceLevel,
					confidence: w.Confidence,
					frameStart: frame.Index,
					frameEnd:   frame.Index,
					details: map[string]string{
						"weapon":   w.Label,
						"distance": strconv.FormatFloat(alert.Distance, 'f', 1, 64),
						"tier":     string(alert.Tier),
					},
				})
			}
			res.triggers = append(res.triggers, trigger{
				typ:        EventWeaponPresence,
				severity:   instanceLevel,
				confidence: w.Confidence,
				frameStart: frame.Index,
				frameEnd:   frame.Index,
				details: map[string]string{
					"weapon":  w.Label,
					"persons": strconv.Itoa(len(persons)),
				},
			})
		}
		res.analysis.WeaponFrames = append(res.analysis.WeaponFrames, wf)
	}

	res.analysis.Detected = len(res.analysis.WeaponFrames) > 0
	return res
}

// weaponInstanceLevel grades one weapon instance: critical when close to a
// person, or when no person is co-present but the detection itself is
// confident; high in moderate proximity; medium otherwise.
func weaponInstanceLevel(tier ProximityTier, personCount int, confidence float64, cfg *Config) Severity {
	switch {
	case tier == ProximityClose:
		return SeverityCritical
	case personCount == 0 && confidence >= cfg.Proximity.HighConfidence:
		return SeverityCritical
	case tier == ProximityModerate:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// nearestPersonAlert finds the nearest person to the weapon's box center.
// With no person in frame the distance is undefined and the tier is none.
func nearestPersonAlert(weapon Detection, persons []Detection, cfg *Config) ProximityAlert {
	alert := ProximityAlert{
		FrameIndex:  weapon.FrameIndex,
		WeaponLabel: weapon.Label,
		Confidence:  weapon.Confidence,
		Distance:    math.Inf(1),
		Tier:        ProximityNone,
	}
	if len(persons) == 0 {
		return alert
	}

	wx, wy := weapon.BBox.Center()
	for _, p := range persons {
		px, py := p.BBox.Center()
		if d := math.Hypot(wx-px, wy-py); d < alert.Distance {
			alert.Distance = d
		}
	}

	switch {
	case alert.Distance < cfg.Proximity.CloseDistance:
		alert.Tier = ProximityClose
	case alert.Distance < cfg.Proximity.ModerateDistance:
		alert.Tier = ProximityModerate
	}
	return alert
}

func isWeaponLabel(label string, lexicon []string) bool {
	for _, w := range lexicon {
		if strings.Contains(label, w) {
			return true
		}
	}
	return false
}
