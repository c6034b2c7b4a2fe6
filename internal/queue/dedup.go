package queue

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SubmissionDedup suppresses duplicate analysis submissions within a TTL
// window. The same video hash re-submitted after the window is analyzed
// again (the engine config may have changed in between).
type SubmissionDedup struct {
	cache *lru.Cache[string, time.Time]
	ttl   time.Duration
}

func NewSubmissionDedup(maxKeys int, ttl time.Duration) *SubmissionDedup {
	c, _ := lru.New[string, time.Time](maxKeys)
	return &SubmissionDedup{cache: c, ttl: ttl}
}

// IsDuplicate reports whether key was seen within the TTL window, and
// records it either way.
func (d *SubmissionDedup) IsDuplicate(key string) bool {
	if addedAt, ok := d.cache.Get(key); ok {
		if time.Since(addedAt) < d.ttl {
			return true
		}
	}
	d.cache.Add(key, time.Now())
	return false
}

// BuildDedupKey ties a submission to the engine config version, so a
// threshold change invalidates the window for all hashes.
func BuildDedupKey(videoHash, configVersion string) string {
	return fmt.Sprintf("%s|%s", videoHash, configVersion)
}
