package engine

import (
	"math"
	"sort"
	"strconv"
)

// temporalResult carries the tracker outputs: confirmed disappearances of
// valuable items, loitering runs, and crowd frames, plus raw triggers.
type temporalResult struct {
	disappearances []Disappearance
	loitering      []LoiteringRun
	crowdFrames    []CrowdFrame
	triggers       []trigger
}

// labelRun is the explicit per-label presence state machine, advanced one
// frame at a time. A disappearance confirms when a label that was present
// for MinPresenceFrames stays absent for MinAbsenceFrames observed frames.
type labelRun struct {
	presentRun    int
	absentRun     int
	lastSeenFrame int
	absentFrame   int
	eligible      bool // presence run reached the minimum
	reported      bool // disappearance already confirmed for this episode
}

func (r *labelRun) advance(frameIndex int, present bool, cfg *Config) *Disappearance {
	if present {
		if r.absentRun > 0 {
			// Item came back; start a fresh presence episode.
			r.presentRun = 0
			r.eligible = false
			r.reported = false
			r.absentRun = 0
		}
		r.presentRun++
		r.lastSeenFrame = frameIndex
		if r.presentRun >= cfg.Temporal.MinPresenceFrames {
			r.eligible = true
		}
		return nil
	}

	if r.presentRun == 0 {
		return nil // never seen yet
	}
	if r.absentRun == 0 {
		r.absentFrame = frameIndex
	}
	r.absentRun++
	if r.eligible && !r.reported && r.absentRun >= cfg.Temporal.MinAbsenceFrames {
		r.reported = true
		return &Disappearance{
			LastSeenFrame:  r.lastSeenFrame,
			AbsentFrame:    r.absentFrame,
			PresenceFrames: r.presentRun,
			AbsenceFrames:  r.absentRun,
		}
	}
	return nil
}

// personAnchor tracks a person-labeled region that stays near one spot.
type personAnchor struct {
	cx, cy     float64
	startFrame int
	lastFrame  int
	run        int
	reported   bool
}

func trackTemporal(frames []Frame, cfg *Config) temporalResult {
	var res temporalResult

	runs := make(map[string]*labelRun)
	var anchors []*personAnchor

	for _, frame := range frames {
		present := make(map[string]bool)
		var personCenters [][2]float64
		personCount := 0

		for _, d := range frame.Detections {
			if d.Label == cfg.Lexicons.PersonLabel {
				personCount++
				cx, cy := d.BBox.Center()
				personCenters = append(personCenters, [2]float64{cx, cy})
				continue
			}
			if isValuableLabel(d.Label, cfg.Lexicons.Valuables) {
				present[d.Label] = true
				if runs[d.Label] == nil {
					runs[d.Label] = &labelRun{}
				}
			}
		}

		// Advance every tracked valuable, in sorted label order so the
		// report is deterministic.
		for _, label := range sortedKeys(runs) {
			if dis := runs[label].advance(frame.Index, present[label], cfg); dis != nil {
				dis.Label = label
				res.disappearances = append(res.disappearances, *dis)
				res.triggers = append(res.triggers, trigger{
					typ:        EventTheftDisappearance,
					severity:   SeverityMedium,
					confidence: disappearanceConfidence(*dis),
					frameStart: dis.AbsentFrame,
					frameEnd:   dis.AbsentFrame,
					details: map[string]string{
						"item":            label,
						"last_seen_frame": strconv.Itoa(dis.LastSeenFrame),
						"presence_frames": strconv.Itoa(dis.PresenceFrames),
					},
				})
			}
		}

		anchors = advanceAnchors(anchors, personCenters, frame.Index, cfg, &res)

		if personCount >= cfg.Temporal.CrowdMinPersons {
			res.crowdFrames = append(res.crowdFrames, CrowdFrame{FrameIndex: frame.Index, PersonCount: personCount})
			sev := SeverityLow
			if personCount >= cfg.Temporal.CrowdMediumCount {
				sev = SeverityMedium
			}
			res.triggers = append(res.triggers, trigger{
				typ:        EventCrowdGathering,
				severity:   sev,
				confidence: math.Min(0.8, 0.4+float64(personCount)*0.05),
				frameStart: frame.Index,
				frameEnd:   frame.Index,
				details:    map[string]string{"persons": strconv.Itoa(personCount)},
			})
		}
	}

	return res
}

// advanceAnchors matches this frame's person centers against live anchors.
// An anchor whose center displacement stays within the pixel tolerance
// accumulates a run; hitting the loiter minimum emits one trigger.
func advanceAnchors(anchors []*personAnchor, centers [][2]float64, frameIndex int, cfg *Config, res *temporalResult) []*personAnchor {
	claimed := make([]bool, len(centers))

	var kept []*personAnchor
	for _, a := range anchors {
		best := -1
		bestDist := cfg.Temporal.LoiterTolerancePx
		for i, c := range centers {
			if claimed[i] {
				continue
			}
			if d := math.Hypot(a.cx-c[0], a.cy-c[1]); d <= bestDist {
				best, bestDist = i, d
			}
		}
		if best < 0 {
			continue // anchor lost; a finished run was already reported when it peaked
		}
		claimed[best] = true
		a.run++
		a.lastFrame = frameIndex
		if !a.reported && a.run >= cfg.Temporal.LoiterMinFrames {
			a.reported = true
			res.loitering = append(res.loitering, LoiteringRun{
				StartFrame: a.startFrame,
				EndFrame:   frameIndex,
				Frames:     a.run,
				CenterX:    a.cx,
				CenterY:    a.cy,
			})
			res.triggers = append(res.triggers, trigger{
				typ:        EventSuspiciousPattern,
				severity:   SeverityLow,
				confidence: 0.65,
				frameStart: a.startFrame,
				frameEnd:   frameIndex,
				details: map[string]string{
					"pattern": "loitering",
					"frames":  strconv.Itoa(a.run),
				},
			})
		}
		kept = append(kept, a)
	}

	for i, c := range centers {
		if !claimed[i] {
			kept = append(kept, &personAnchor{
				cx: c[0], cy: c[1],
				startFrame: frameIndex,
				lastFrame:  frameIndex,
				run:        1,
			})
		}
	}
	return kept
}

func disappearanceConfidence(d Disappearance) float64 {
	// Longer presence before vanishing reads as a stronger theft signal.
	if d.PresenceFrames >= 4 {
		return 0.8
	}
	return 0.6
}

func isValuableLabel(label string, lexicon []string) bool {
	for _, v := range lexicon {
		if label == v {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]*labelRun) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
