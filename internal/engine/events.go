package engine

import "sort"

// trigger is a raw signal from one analyzer, before aggregation.
type trigger struct {
	typ        EventType
	severity   Severity
	confidence float64
	frameStart int
	frameEnd   int
	details    map[string]string
}

// aggregateEvents converts raw triggers into the deduplicated, time-ordered
// event timeline. Two triggers of the same type in the same frame, or with
// overlapping frame ranges, merge into one Event keeping the maximum
// confidence and severity and the union of details. No severity filtering
// happens here; culling is a presentation concern.
func aggregateEvents(triggers []trigger) []Event {
	if len(triggers) == 0 {
		return nil
	}

	// Stable grouping order: by type, then range, then confidence
	// descending so the strongest trigger's details win conflicts.
	sorted := make([]trigger, len(triggers))
	copy(sorted, triggers)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.typ != b.typ {
			return a.typ < b.typ
		}
		if a.frameStart != b.frameStart {
			return a.frameStart < b.frameStart
		}
		if a.frameEnd != b.frameEnd {
			return a.frameEnd < b.frameEnd
		}
		return a.confidence > b.confidence
	})

	var events []Event
	for _, t := range sorted {
		if n := len(events); n > 0 {
			last := &events[n-1]
			if last.Type == t.typ && t.frameStart <= last.FrameEnd {
				// Overlapping same-type trigger: merge.
				if t.frameEnd > last.FrameEnd {
					last.FrameEnd = t.frameEnd
				}
				if t.confidence > last.Confidence {
					last.Confidence = t.confidence
				}
				if t.severity > last.Severity {
					last.Severity = t.severity
				}
				for k, v := range t.details {
					if _, exists := last.Details[k]; !exists {
						last.Details[k] = v
					}
				}
				continue
			}
		}
		events = append(events, Event{
			Type:       t.typ,
			Severity:   t.severity,
			Confidence: t.confidence,
			FrameIndex: t.frameStart,
			FrameEnd:   t.frameEnd,
			Details:    copyDetails(t.details),
		})
	}

	// Emission order: ascending frame index; on ties, descending severity,
	// then type for a total deterministic order.
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.FrameIndex != b.FrameIndex {
			return a.FrameIndex < b.FrameIndex
		}
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		return a.Type < b.Type
	})
	return events
}

func copyDetails(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
