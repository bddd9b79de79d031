package code_analyzer

import (
	"time"
)

// recordCacheHit increments cache hit counter
func (c *DocCache) recordCacheHit() {
	if c.stats == nil {
		return
	}
	c.stats.mutex.Lock()
	defer c.stats.mutex.Unlock()
	c.stats.TotalRequests++
	c.stats.CacheHits++
}

// recordCacheMiss increments cache miss counter
func (c *DocCache) recordCacheMiss() {
	if c.stats == nil {
		return
	}
	c.stats.mutex.Lock()
	defer c.stats.mutex.Unlock()
	c.stats.TotalRequests++
	c.stats.CacheMisses++
}

// PerformanceStats is a point-in-time copy of the lookup counters
type PerformanceStats struct {
	TotalRequests int64
	CacheHits     int64
	CacheMisses   int64
	HitRate       float64
	Entries       int
	Uptime        time.Duration
}

// GetPerformanceStats returns lookup statistics for the documentation cache
func (c *DocCache) GetPerformanceStats() PerformanceStats {
	entries := c.Len()
	if c.stats == nil {
		return PerformanceStats{Entries: entries}
	}

	c.stats.mutex.RLock()
	defer c.stats.mutex.RUnlock()

	hitRate := 0.0
	if c.stats.TotalRequests > 0 {
		hitRate = float64(c.stats.CacheHits) / float64(c.stats.TotalRequests) * 100
	}

	return PerformanceStats{
		TotalRequests: c.stats.TotalRequests,
		CacheHits:     c.stats.CacheHits,
		CacheMisses:   c.stats.CacheMisses,
		HitRate:       hitRate,
		Entries:       entries,
		Uptime:        time.Since(c.stats.LastResetTime),
	}
}

// ResetPerformanceStats resets all performance counters
func (c *DocCache) ResetPerformanceStats() {
	if c.stats == nil {
		return
	}
	c.stats.mutex.Lock()
	defer c.stats.mutex.Unlock()

	c.stats.TotalRequests = 0
	c.stats.CacheHits = 0
	c.stats.CacheMisses = 0
	c.stats.LastResetTime = time.Now()
}
