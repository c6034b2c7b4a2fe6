package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNonMonotonicFrames signals a contract violation by the upstream
// pipeline: frame indices must be strictly increasing with no duplicates.
var ErrNonMonotonicFrames = errors.New("frame indices are not strictly increasing")

// normalized holds the validated, canonicalized input collections.
type normalized struct {
	frames   []Frame
	actions  []ActionScore
	motion   []MotionSample
	warnings []string
}

// normalizeInput canonicalizes raw upstream records. Labels are trimmed
// and lowercased; confidences and probabilities outside [0,1] are clamped
// and flagged degraded; records missing a required field are dropped with
// a recorded warning. Only non-monotonic frame ordering is fatal.
func normalizeInput(in Input) (*normalized, error) {
	out := &normalized{}

	lastIndex := -1
	for _, f := range in.Frames {
		if f.FrameIndex <= lastIndex {
			return nil, fmt.Errorf("%w: frame %d after frame %d", ErrNonMonotonicFrames, f.FrameIndex, lastIndex)
		}
		lastIndex = f.FrameIndex

		frame := Frame{Index: f.FrameIndex, Timestamp: f.TimestampSec}
		for i, d := range f.Detections {
			label := normalizeLabel(d.Label)
			if label == "" {
				out.warn("frame %d detection %d: empty label, dropped", f.FrameIndex, i)
				continue
			}
			if d.BBox == nil {
				out.warn("frame %d detection %q: missing bounding box, dropped", f.FrameIndex, label)
				continue
			}
			conf, degraded := clampUnit(d.Confidence)
			if degraded {
				out.warn("frame %d detection %q: confidence %v clamped", f.FrameIndex, label, d.Confidence)
			}
			frame.Detections = append(frame.Detections, Detection{
				Label:      label,
				Confidence: conf,
				BBox:       *d.BBox,
				FrameIndex: f.FrameIndex,
				Degraded:   degraded,
			})
		}
		out.frames = append(out.frames, frame)
	}

	for _, c := range in.Clips {
		start, end := c.FrameStart, c.FrameEnd
		if end < start {
			out.warn("clip %d: inverted frame range [%d,%d], swapped", c.ClipIndex, start, end)
			start, end = end, start
		}
		for i, a := range c.Actions {
			label := normalizeLabel(a.Label)
			if label == "" {
				out.warn("clip %d action %d: empty label, dropped", c.ClipIndex, i)
				continue
			}
			if a.Probability == nil {
				out.warn("clip %d action %q: missing probability, dropped", c.ClipIndex, label)
				continue
			}
			prob, degraded := clampUnit(*a.Probability)
			if degraded {
				out.warn("clip %d action %q: probability %v clamped", c.ClipIndex, label, *a.Probability)
			}
			out.actions = append(out.actions, ActionScore{
				Label:       label,
				Probability: prob,
				ClipIndex:   c.ClipIndex,
				FrameStart:  start,
				FrameEnd:    end,
				Degraded:    degraded,
			})
		}
	}

	for _, m := range in.Motion {
		mag := m.Magnitude
		if mag < 0 {
			out.warn("motion sample at frame %d: negative magnitude %v clamped to 0", m.FrameIndex, mag)
			mag = 0
		}
		out.motion = append(out.motion, MotionSample{FrameIndex: m.FrameIndex, Magnitude: mag})
	}

	return out, nil
}

func (n *normalized) warn(format string, args ...any) {
	n.warnings = append(n.warnings, fmt.Sprintf(format, args...))
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

func clampUnit(v float64) (float64, bool) {
	switch {
	case v < 0:
		return 0, true
	case v > 1:
		return 1, true
	default:
		return v, false
	}
}
