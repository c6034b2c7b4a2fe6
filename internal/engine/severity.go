package engine

import (
	"math"
	"sort"
)

// Deterministic recommendations keyed by overall severity. The narrative
// service may attach richer prose downstream, but the report itself never
// depends on text generation.
var recommendations = map[Severity]string{
	SeverityCritical: "Contact emergency services immediately. Do not intervene directly; move to a safe location and preserve the footage for authorities.",
	SeverityHigh:     "Contact law enforcement. Keep a safe distance, observe from a secure location, and preserve the footage.",
	SeverityMedium:   "Suspicious activity detected. Monitor the situation closely and contact security or police if it escalates.",
	SeverityLow:      "Minor concerning activity detected. Continue monitoring.",
	SeveritySafe:     "No significant unlawful activity detected.",
}

// Tie-break priority when sub-report severities are equal: the displayed
// top-level reason must be deterministic.
var indicatorPriority = []string{"weapon_threat", "violence", "theft", "suspicious_behavior"}

// resolve combines the four analysis dimensions plus crowd/loitering and
// motion signals into the final verdict. The decision table is evaluated
// inside each dimension; the overall tier is the maximum across them.
func resolve(prox proximityResult, temp temporalResult, act actionResult, mot motionResult, cfg *Config) CrimeReport {
	weapon := resolveWeapon(prox, act, cfg)
	violence := resolveViolence(act, cfg)
	theft := resolveTheft(temp, act, cfg)
	suspicious := resolveSuspicious(temp, act, mot, cfg)

	report := CrimeReport{
		WeaponThreat: weapon,
		Violence:     violence,
		Theft:        theft,
		Suspicious:   suspicious,
	}

	dims := map[string]struct {
		severity   Severity
		confidence float64
		present    bool
	}{
		"weapon_threat":       {weapon.ThreatLevel, cfg.Resolver.WeaponConfidence, weapon.Detected || len(weapon.WeaponActions) > 0},
		"violence":            {violence.Severity, violence.Score, violence.Detected},
		"theft":               {theft.Severity, theft.Score, theft.Detected},
		"suspicious_behavior": {suspicious.Severity, suspicious.Score, suspicious.Detected},
	}

	overall := SeveritySafe
	for _, name := range indicatorPriority {
		d := dims[name]
		if !d.present {
			continue
		}
		overall = maxSeverity(overall, d.severity)
		report.CrimeIndicators = append(report.CrimeIndicators, CrimeIndicator{
			Type:       name,
			Severity:   d.severity,
			Confidence: d.confidence,
		})
	}
	// Highest severity first; priority order breaks ties, so the leading
	// indicator is the deterministic top-level reason.
	sort.SliceStable(report.CrimeIndicators, func(i, j int) bool {
		return report.CrimeIndicators[i].Severity > report.CrimeIndicators[j].Severity
	})

	report.OverallSeverity = overall
	report.CrimeDetected = overall >= SeverityMedium
	report.Recommendation = recommendations[overall]
	return report
}

func resolveWeapon(prox proximityResult, act actionResult, cfg *Config) WeaponThreatAnalysis {
	analysis := prox.analysis

	for _, ev := range act.actions {
		if !hasCategory(ev.Categories, CategoryWeapon) {
			continue
		}
		analysis.WeaponActions = append(analysis.WeaponActions, ev)
		// Rule 1: a crime-relevant weapon action above the probability
		// threshold is critical on its own. Below it, the action grades
		// like any other crime-relevant action: medium over the generic
		// threshold, low otherwise.
		switch {
		case ev.Probability > cfg.Resolver.WeaponActionProb:
			analysis.ThreatLevel = SeverityCritical
		case ev.Probability > cfg.Resolver.GenericActionProb:
			analysis.ThreatLevel = maxSeverity(analysis.ThreatLevel, SeverityMedium)
		default:
			analysis.ThreatLevel = maxSeverity(analysis.ThreatLevel, SeverityLow)
		}
		if ev.Probability > analysis.Score {
			analysis.Score = ev.Probability
		}
	}
	return analysis
}

func resolveViolence(act actionResult, cfg *Config) ViolenceAnalysis {
	analysis := ViolenceAnalysis{
		Score:      act.violenceScore,
		ClipScores: act.clipScores,
	}
	for _, ev := range act.actions {
		if hasCategory(ev.Categories, CategoryViolence) {
			analysis.ViolentActions = append(analysis.ViolentActions, ev)
		}
	}
	analysis.Detected = len(analysis.ViolentActions) > 0
	analysis.IntensityLevel = violenceTier(analysis.Score, cfg)

	switch {
	case !analysis.Detected:
		analysis.Severity = SeveritySafe
	case analysis.Score > cfg.Resolver.ViolenceHighScore:
		analysis.Severity = SeverityHigh
	case analysis.Score > cfg.Resolver.ViolenceMedScore:
		analysis.Severity = SeverityMedium
	default:
		analysis.Severity = SeverityLow
	}
	return analysis
}

func resolveTheft(temp temporalResult, act actionResult, cfg *Config) TheftAnalysis {
	analysis := TheftAnalysis{Disappearances: temp.disappearances}

	maxActionProb := 0.0
	for _, ev := range act.actions {
		if hasCategory(ev.Categories, CategoryTheft) || hasCategory(ev.Categories, CategoryBreakIn) {
			analysis.TheftActions = append(analysis.TheftActions, ev)
			if ev.Probability > maxActionProb {
				maxActionProb = ev.Probability
			}
		}
	}
	analysis.Detected = len(analysis.Disappearances) > 0 || len(analysis.TheftActions) > 0
	analysis.Score = theftScore(analysis.Disappearances, maxActionProb)

	switch {
	case !analysis.Detected:
		analysis.Severity = SeveritySafe
	case maxActionProb > cfg.Resolver.TheftActionProb:
		// Rule 2: theft- or break-in-category action over threshold.
		analysis.Severity = SeverityHigh
	default:
		analysis.Severity = SeverityLow
	}
	return analysis
}

// theftScore blends disappearance evidence with the strongest theft
// action; both together reinforce each other.
func theftScore(disappearances []Disappearance, actionProb float64) float64 {
	if len(disappearances) == 0 && actionProb == 0 {
		return 0
	}
	var disScore float64
	for _, d := range disappearances {
		disScore += disappearanceConfidence(d)
	}
	if n := len(disappearances); n > 0 {
		disScore /= float64(n)
	}

	switch {
	case disScore > 0 && actionProb > 0:
		return math.Min(1.0, (disScore+actionProb)/2*1.2)
	case disScore > 0:
		return disScore * 0.8
	default:
		return actionProb * 0.7
	}
}

func resolveSuspicious(temp temporalResult, act actionResult, mot motionResult, cfg *Config) SuspiciousBehaviorAnalysis {
	analysis := SuspiciousBehaviorAnalysis{
		LoiteringRuns: temp.loitering,
		CrowdFrames:   temp.crowdFrames,
		MotionPattern: mot.analysis,
	}

	maxActionProb := 0.0
	for _, ev := range act.actions {
		if hasCategory(ev.Categories, CategorySuspicious) || hasCategory(ev.Categories, CategoryVandalism) {
			analysis.SuspiciousActions = append(analysis.SuspiciousActions, ev)
			if ev.Probability > maxActionProb {
				maxActionProb = ev.Probability
			}
		}
	}

	motionSignal := mot.analysis.Analyzed &&
		(mot.analysis.CrimeRelevance >= SeverityMedium || len(mot.analysis.SuddenMoves) > 0 || len(mot.analysis.ChaseSequences) > 0)

	analysis.Detected = len(analysis.LoiteringRuns) > 0 ||
		len(analysis.CrowdFrames) > 0 ||
		len(analysis.SuspiciousActions) > 0 ||
		motionSignal

	patterns := len(analysis.LoiteringRuns) + len(analysis.CrowdFrames) + len(analysis.SuspiciousActions) +
		len(mot.analysis.SuddenMoves) + len(mot.analysis.ChaseSequences)
	analysis.Score = math.Min(1.0, float64(patterns)*0.25)

	switch {
	case !analysis.Detected:
		analysis.Severity = SeveritySafe
	case len(analysis.CrowdFrames) > 0:
		// Rule 3: crowd gathering of CrowdMinPersons or more.
		analysis.Severity = SeverityMedium
	case maxActionProb > cfg.Resolver.SuspiciousActProb:
		analysis.Severity = SeverityMedium
	default:
		analysis.Severity = SeverityLow
	}
	return analysis
}
