package engine

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// actionResult holds every classified action plus the per-clip violence
// scores and raw triggers derived from crime-relevant matches.
type actionResult struct {
	actions    []ActionEvidence
	clipScores []ClipViolence
	// violenceScore is the maximum per-clip score; each clip score is the
	// capped sum of weighted intensities of its violence-category actions.
	violenceScore float64
	triggers      []trigger
}

// classifyActions matches normalized action labels against the static
// crime lexicon. A label may land in several categories ("stabbing" is
// both violence and a weapon action); every match counts.
func classifyActions(actions []ActionScore, cfg *Config) actionResult {
	var res actionResult

	perClip := make(map[int]float64)
	var clipOrder []int

	for _, a := range actions {
		ev := ActionEvidence{
			Label:       a.Label,
			Probability: a.Probability,
			Weight:      1.0,
			ClipIndex:   a.ClipIndex,
			FrameStart:  a.FrameStart,
			FrameEnd:    a.FrameEnd,
		}
		ev.Categories = matchCategories(a.Label, cfg)
		ev.CrimeRelevant = len(ev.Categories) > 0
		if ev.CrimeRelevant {
			ev.Weight = keywordWeight(a.Label, cfg)
		}
		ev.Intensity = a.Probability * ev.Weight
		res.actions = append(res.actions, ev)

		if !ev.CrimeRelevant {
			continue
		}

		if hasCategory(ev.Categories, CategoryViolence) {
			if _, seen := perClip[a.ClipIndex]; !seen {
				clipOrder = append(clipOrder, a.ClipIndex)
			}
			perClip[a.ClipIndex] += ev.Intensity
		}

		res.triggers = append(res.triggers, actionTrigger(ev, cfg))
	}

	sort.Ints(clipOrder)
	for _, clip := range clipOrder {
		score := math.Min(1.0, perClip[clip])
		res.clipScores = append(res.clipScores, ClipViolence{ClipIndex: clip, Score: score})
		if score > res.violenceScore {
			res.violenceScore = score
		}
	}

	return res
}

// actionTrigger grades one crime-relevant action into a timeline trigger.
// Severity mirrors the resolver's decision table so the emitted event and
// the final verdict tell the same story.
func actionTrigger(ev ActionEvidence, cfg *Config) trigger {
	typ := EventSuspiciousPattern
	sev := SeverityLow

	switch {
	case hasCategory(ev.Categories, CategoryWeapon):
		typ = EventViolentAction
		switch {
		case ev.Probability > cfg.Resolver.WeaponActionProb:
			sev = SeverityCritical
		case ev.Probability > cfg.Resolver.GenericActionProb:
			sev = SeverityMedium
		}
	case hasCategory(ev.Categories, CategoryViolence):
		typ = EventViolentAction
		switch {
		case ev.Intensity > cfg.Actions.HighScore:
			sev = SeverityHigh
		case ev.Intensity > cfg.Actions.ModerateScore:
			sev = SeverityMedium
		}
	case hasCategory(ev.Categories, CategoryTheft), hasCategory(ev.Categories, CategoryBreakIn):
		typ = EventSuspiciousPattern
		if ev.Probability > cfg.Resolver.TheftActionProb {
			sev = SeverityHigh
		} else {
			sev = SeverityMedium
		}
	default: // vandalism, suspicious
		if ev.Probability > cfg.Resolver.SuspiciousActProb {
			sev = SeverityMedium
		}
	}

	return trigger{
		typ:        typ,
		severity:   sev,
		confidence: ev.Probability,
		frameStart: ev.FrameStart,
		frameEnd:   ev.FrameEnd,
		details: map[string]string{
			"action":   ev.Label,
			"category": categoryList(ev.Categories),
			"clip":     strconv.Itoa(ev.ClipIndex),
		},
	}
}

// matchCategories returns the matching categories in a fixed order so the
// evidence list is deterministic regardless of map iteration.
func matchCategories(label string, cfg *Config) []ActionCategory {
	order := []ActionCategory{
		CategoryWeapon, CategoryViolence, CategoryTheft,
		CategoryBreakIn, CategoryVandalism, CategorySuspicious,
	}
	var out []ActionCategory
	for _, cat := range order {
		for _, kw := range cfg.Actions.Categories[cat] {
			if strings.Contains(label, kw) {
				out = append(out, cat)
				break
			}
		}
	}
	return out
}

func keywordWeight(label string, cfg *Config) float64 {
	for _, tier := range cfg.Actions.WeightTiers {
		for _, kw := range tier.Keywords {
			if strings.Contains(label, kw) {
				return tier.Weight
			}
		}
	}
	return 1.0
}

// violenceTier converts a violence score to its intensity tier. Bounds are
// inclusive: a score of exactly 0.60 is extreme.
func violenceTier(score float64, cfg *Config) IntensityTier {
	switch {
	case score >= cfg.Actions.ExtremeScore:
		return IntensityExtreme
	case score >= cfg.Actions.HighScore:
		return IntensityHigh
	case score >= cfg.Actions.ModerateScore:
		return IntensityModerate
	default:
		return IntensityLow
	}
}

func hasCategory(cats []ActionCategory, want ActionCategory) bool {
	for _, c := range cats {
		if c == want {
			return true
		}
	}
	return false
}

func categoryList(cats []ActionCategory) string {
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}
