package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateEvents_Empty(t *testing.T) {
	assert.Nil(t, aggregateEvents(nil))
}

func TestAggregateEvents_MergesOverlappingSameType(t *testing.T) {
	events := aggregateEvents([]trigger{
		{typ: EventWeaponPresence, severity: SeverityMedium, confidence: 0.5, frameStart: 2, frameEnd: 4,
			details: map[string]string{"weapon": "knife"}},
		{typ: EventWeaponPresence, severity: SeverityCritical, confidence: 0.9, frameStart: 3, frameEnd: 6,
			details: map[string]string{"weapon": "gun", "persons": "2"}},
	})

	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, 2, ev.FrameIndex)
	assert.Equal(t, 6, ev.FrameEnd)
	assert.Equal(t, SeverityCritical, ev.Severity)
	assert.Equal(t, 0.9, ev.Confidence)
	// Union of details: earlier keys win, missing keys fill in.
	assert.Equal(t, "knife", ev.Details["weapon"])
	assert.Equal(t, "2", ev.Details["persons"])
}

func TestAggregateEvents_SameFrameSameTypeDeduplicated(t *testing.T) {
	events := aggregateEvents([]trigger{
		{typ: EventViolentAction, severity: SeverityHigh, confidence: 0.4, frameStart: 5, frameEnd: 5},
		{typ: EventViolentAction, severity: SeverityMedium, confidence: 0.7, frameStart: 5, frameEnd: 5},
	})

	require.Len(t, events, 1)
	assert.Equal(t, SeverityHigh, events[0].Severity)
	assert.Equal(t, 0.7, events[0].Confidence)
}

func TestAggregateEvents_DifferentTypesNotMerged(t *testing.T) {
	events := aggregateEvents([]trigger{
		{typ: EventWeaponPresence, severity: SeverityMedium, confidence: 0.5, frameStart: 1, frameEnd: 1},
		{typ: EventCrowdGathering, severity: SeverityLow, confidence: 0.5, frameStart: 1, frameEnd: 1},
	})
	assert.Len(t, events, 2)
}

func TestAggregateEvents_DisjointRangesNotMerged(t *testing.T) {
	events := aggregateEvents([]trigger{
		{typ: EventSuspiciousPattern, severity: SeverityLow, confidence: 0.5, frameStart: 0, frameEnd: 2},
		{typ: EventSuspiciousPattern, severity: SeverityLow, confidence: 0.5, frameStart: 3, frameEnd: 5},
	})
	assert.Len(t, events, 2)
}

func TestAggregateEvents_Ordering(t *testing.T) {
	events := aggregateEvents([]trigger{
		{typ: EventSuspiciousPattern, severity: SeverityLow, confidence: 0.5, frameStart: 9, frameEnd: 9},
		{typ: EventWeaponProximity, severity: SeverityCritical, confidence: 0.8, frameStart: 4, frameEnd: 4},
		{typ: EventCrowdGathering, severity: SeverityLow, confidence: 0.6, frameStart: 4, frameEnd: 4},
	})

	require.Len(t, events, 3)
	// Ascending frame; same frame orders by descending severity.
	assert.Equal(t, EventWeaponProximity, events[0].Type)
	assert.Equal(t, EventCrowdGathering, events[1].Type)
	assert.Equal(t, EventSuspiciousPattern, events[2].Type)
}

func TestAggregateEvents_InputNotMutated(t *testing.T) {
	triggers := []trigger{
		{typ: EventViolentAction, severity: SeverityHigh, confidence: 0.4, frameStart: 5, frameEnd: 5,
			details: map[string]string{"action": "punching"}},
		{typ: EventViolentAction, severity: SeverityMedium, confidence: 0.7, frameStart: 5, frameEnd: 5,
			details: map[string]string{"action": "kicking"}},
	}
	_ = aggregateEvents(triggers)

	assert.Equal(t, "punching", triggers[0].details["action"])
	assert.Equal(t, "kicking", triggers[1].details["action"])
	assert.Len(t, triggers[0].details, 1)
}
