package engine

import (
	"errors"
	"fmt"
)

// Config is the single versioned knob set for an Engine. Every lexicon and
// threshold lives here so sensitivity runs are reproducible: two engines
// built from equal configs produce identical reports for identical inputs.
type Config struct {
	Version string `yaml:"version" json:"version"`

	Lexicons  LexiconConfig   `yaml:"lexicons" json:"lexicons"`
	Proximity ProximityConfig `yaml:"proximity" json:"proximity"`
	Actions   ActionConfig    `yaml:"actions" json:"actions"`
	Temporal  TemporalConfig  `yaml:"temporal" json:"temporal"`
	Motion    MotionConfig    `yaml:"motion" json:"motion"`
	Resolver  ResolverConfig  `yaml:"resolver" json:"resolver"`
}

type LexiconConfig struct {
	// Weapons are matched by substring against normalized labels, so
	// "baseball bat" matches an entry "bat".
	Weapons []string `yaml:"weapons" json:"weapons"`
	// Valuables are matched exactly against normalized labels.
	Valuables   []string `yaml:"valuables" json:"valuables"`
	PersonLabel string   `yaml:"person_label" json:"person_label"`
}

type ProximityConfig struct {
	// Distances are frame-pixel units between bounding-box centers.
	CloseDistance    float64 `yaml:"close_distance" json:"close_distance"`
	ModerateDistance float64 `yaml:"moderate_distance" json:"moderate_distance"`
	// HighConfidence escalates a weapon with no co-present person to a
	// critical threat when its own confidence reaches this value.
	HighConfidence float64 `yaml:"high_confidence" json:"high_confidence"`
}

// WeightTier maps a keyword set to a violence intensity multiplier.
type WeightTier struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Weight   float64  `yaml:"weight" json:"weight"`
}

type ActionConfig struct {
	// Categories is the static crime lexicon: category name -> keyword set.
	// Matching is case-insensitive substring.
	Categories map[ActionCategory][]string `yaml:"categories" json:"categories"`
	// WeightTiers are evaluated in order; the first tier containing a
	// matching keyword decides the weight. Unlisted crime-relevant
	// actions weigh 1.0.
	WeightTiers []WeightTier `yaml:"weight_tiers" json:"weight_tiers"`

	// Violence score tier bounds (inclusive).
	ExtremeScore  float64 `yaml:"extreme_score" json:"extreme_score"`
	HighScore     float64 `yaml:"high_score" json:"high_score"`
	ModerateScore float64 `yaml:"moderate_score" json:"moderate_score"`
}

type TemporalConfig struct {
	MinPresenceFrames int     `yaml:"min_presence_frames" json:"min_presence_frames"`
	MinAbsenceFrames  int     `yaml:"min_absence_frames" json:"min_absence_frames"`
	LoiterMinFrames   int     `yaml:"loiter_min_frames" json:"loiter_min_frames"`
	LoiterTolerancePx float64 `yaml:"loiter_tolerance_px" json:"loiter_tolerance_px"`
	CrowdMinPersons   int     `yaml:"crowd_min_persons" json:"crowd_min_persons"`
	CrowdMediumCount  int     `yaml:"crowd_medium_count" json:"crowd_medium_count"`
}

type MotionConfig struct {
	// Mean-magnitude bounds on the 0-100 scale (exclusive lower bounds).
	ChaoticMean  float64 `yaml:"chaotic_mean" json:"chaotic_mean"`
	ErraticMean  float64 `yaml:"erratic_mean" json:"erratic_mean"`
	HighMean     float64 `yaml:"high_mean" json:"high_mean"`
	ModerateMean float64 `yaml:"moderate_mean" json:"moderate_mean"`

	SuddenFactor float64 `yaml:"sudden_factor" json:"sudden_factor"`
	SuddenFloor  float64 `yaml:"sudden_floor" json:"sudden_floor"`
	ChaseMinRun  int     `yaml:"chase_min_run" json:"chase_min_run"`
}

// ResolverConfig holds the decision-table thresholds. Historical revisions
// of these numbers disagree; these are defaults, not constants.
type ResolverConfig struct {
	WeaponActionProb  float64 `yaml:"weapon_action_prob" json:"weapon_action_prob"`
	TheftActionProb   float64 `yaml:"theft_action_prob" json:"theft_action_prob"`
	ViolenceHighScore float64 `yaml:"violence_high_score" json:"violence_high_score"`
	ViolenceMedScore  float64 `yaml:"violence_medium_score" json:"violence_medium_score"`
	GenericActionProb float64 `yaml:"generic_action_prob" json:"generic_action_prob"`
	SuspiciousActProb float64 `yaml:"suspicious_action_prob" json:"suspicious_action_prob"`
	WeaponConfidence  float64 `yaml:"weapon_indicator_confidence" json:"weapon_indicator_confidence"`
}

// DefaultConfig returns the shipped threshold set (version "2026.1").
func DefaultConfig() Config {
	return Config{
		Version: "2026.1",
		Lexicons: LexiconConfig{
			Weapons: []string{
				"knife", "gun", "pistol", "rifle", "weapon", "firearm",
				"bat", "hammer", "axe", "crowbar", "scissors", "sword",
				"machete", "blade", "razor", "bottle", "chain", "pipe",
				"wrench", "club", "baton",
			},
			Valuables: []string{
				"handbag", "backpack", "suitcase", "cell phone", "phone",
				"laptop", "wallet", "purse", "briefcase", "luggage", "bag",
				"watch", "jewelry", "tablet", "camera",
			},
			PersonLabel: "person",
		},
		Proximity: ProximityConfig{
			CloseDistance:    300,
			ModerateDistance: 500,
			HighConfidence:   0.60,
		},
		Actions: ActionConfig{
			Categories: map[ActionCategory][]string{
				CategoryViolence: {
					"fight", "punch", "kick", "beat", "slap", "strangle",
					"choke", "stab", "shoot", "attack", "assault", "wrestle",
					"tackle", "shove", "headbutt", "brawl", "combat", "kill",
				},
				CategoryTheft: {
					"steal", "snatch", "shoplift", "pickpocket", "rob",
					"burglar", "loot", "pilfer", "mug", "swipe",
				},
				CategoryVandalism: {
					"smash", "break", "destroy", "vandal", "graffiti",
					"spray paint", "shatter", "demolish", "damag",
				},
				CategoryWeapon: {
					"shoot", "stab", "aim", "wield", "point", "brandish",
					"fire gun", "knife fight",
				},
				CategoryBreakIn: {
					"break in", "breaking and entering", "pry", "jimmy",
					"force open", "pick lock",
				},
				CategorySuspicious: {
					"lurk", "sneak", "stalk", "flee", "hide", "creep",
					"prowl", "loiter", "chase", "escape",
				},
			},
			WeightTiers: []WeightTier{
				{Name: "extreme", Keywords: []string{"shoot", "stab", "strangle", "choke", "murder", "kill"}, Weight: 2.0},
				{Name: "high", Keywords: []string{"punch", "kick", "beat", "slap", "headbutt", "attack", "assault"}, Weight: 1.5},
				{Name: "moderate", Keywords: []string{"fight", "wrestle", "tackle", "shove"}, Weight: 1.2},
			},
			ExtremeScore:  0.60,
			HighScore:     0.35,
			ModerateScore: 0.15,
		},
		Temporal: TemporalConfig{
			MinPresenceFrames: 2,
			MinAbsenceFrames:  2,
			LoiterMinFrames:   5,
			LoiterTolerancePx: 20,
			CrowdMinPersons:   3,
			CrowdMediumCount:  7,
		},
		Motion: MotionConfig{
			ChaoticMean:  80,
			ErraticMean:  60,
			HighMean:     40,
			ModerateMean: 20,
			SuddenFactor: 1.5,
			SuddenFloor:  50,
			ChaseMinRun:  3,
		},
		Resolver: ResolverConfig{
			WeaponActionProb:  0.10,
			TheftActionProb:   0.05,
			ViolenceHighScore: 0.35,
			ViolenceMedScore:  0.15,
			GenericActionProb: 0.05,
			SuspiciousActProb: 0.05,
			WeaponConfidence:  0.90,
		},
	}
}

// Validate rejects configs whose tier bounds are out of order; a bad
// threshold set silently inverts verdicts, so this fails loudly instead.
func (c Config) Validate() error {
	if c.Version == "" {
		return errors.New("version is required")
	}
	if c.Lexicons.PersonLabel == "" {
		return errors.New("person label is required")
	}
	if len(c.Lexicons.Weapons) == 0 {
		return errors.New("weapon lexicon is empty")
	}
	if c.Proximity.CloseDistance <= 0 || c.Proximity.ModerateDistance <= c.Proximity.CloseDistance {
		return fmt.Errorf("proximity tiers out of order (close=%v moderate=%v)",
			c.Proximity.CloseDistance, c.Proximity.ModerateDistance)
	}
	if !(c.Actions.ModerateScore < c.Actions.HighScore && c.Actions.HighScore < c.Actions.ExtremeScore) {
		return errors.New("violence tier bounds out of order")
	}
	if !(c.Motion.ModerateMean < c.Motion.HighMean && c.Motion.HighMean < c.Motion.ErraticMean && c.Motion.ErraticMean < c.Motion.ChaoticMean) {
		return errors.New("motion tier bounds out of order")
	}
	if c.Temporal.MinPresenceFrames < 1 || c.Temporal.MinAbsenceFrames < 1 {
		return errors.New("temporal run lengths must be >= 1")
	}
	if c.Temporal.CrowdMinPersons < 2 || c.Temporal.CrowdMediumCount < c.Temporal.CrowdMinPersons {
		return errors.New("crowd thresholds out of order")
	}
	return nil
}
