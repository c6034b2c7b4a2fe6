package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubmissionDedup_DuplicateWithinWindow(t *testing.T) {
	d := NewSubmissionDedup(100, time.Minute)

	key := BuildDedupKey("abc123", "2026.1")
	assert.False(t, d.IsDuplicate(key))
	assert.True(t, d.IsDuplicate(key))
}

func TestSubmissionDedup_ExpiredEntryReAdmitted(t *testing.T) {
	d := NewSubmissionDedup(100, time.Millisecond)

	key := BuildDedupKey("abc123", "2026.1")
	assert.False(t, d.IsDuplicate(key))

	time.Sleep(5 * time.Millisecond)
	assert.False(t, d.IsDuplicate(key))
}

func TestSubmissionDedup_ConfigVersionSeparatesKeys(t *testing.T) {
	d := NewSubmissionDedup(100, time.Minute)

	assert.False(t, d.IsDuplicate(BuildDedupKey("abc123", "2026.1")))
	assert.False(t, d.IsDuplicate(BuildDedupKey("abc123", "2026.2")))
}

func TestSubmissionDedup_LRUEviction(t *testing.T) {
	d := NewSubmissionDedup(2, time.Minute)

	assert.False(t, d.IsDuplicate("a"))
	assert.False(t, d.IsDuplicate("b"))
	assert.False(t, d.IsDuplicate("c")) // evicts "a"
	assert.False(t, d.IsDuplicate("a"))
}
