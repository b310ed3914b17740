package leaderboard

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/zcredlabs/zscore/internal/cache"
)

// standingsCache keeps serialized rankings so repeated board reads skip
// the database between rebuilds
type standingsCache struct {
	cache *cache.Cache
}

func newStandingsCache(ttl time.Duration) *standingsCache {
	return &standingsCache{cache: cache.NewCache(ttl)}
}

func standingsKey(period string, limit int) string {
	return fmt.Sprintf("standings:%s:%d", period, limit)
}

func rankKey(applicantID, period string) string {
	return fmt.Sprintf("rank:%s:%s", applicantID, period)
}

// GetStandings retrieves cached standings for a period and limit
func (sc *standingsCache) GetStandings(period string, limit int) (*Standings, bool) {
	data, found := sc.cache.Get(standingsKey(period, limit))
	if !found {
		return nil, false
	}

	var standings Standings
	if err := json.Unmarshal(data, &standings); err != nil {
		slog.Error("Failed to unmarshal cached standings", "error", err, "period", period)
		return nil, false
	}

	slog.Debug("Standings cache hit", "period", period, "limit", limit)
	return &standings, true
}

// SetStandings caches standings for a period and limit
func (sc *standingsCache) SetStandings(period string, limit int, standings *Standings) {
	data, err := json.Marshal(standings)
	if err != nil {
		slog.Error("Failed to marshal standings for cache", "error", err, "period", period)
		return
	}

	sc.cache.Set(standingsKey(period, limit), data)
	slog.Debug("Standings cached", "period", period, "limit", limit, "entries", len(standings.Entries))
}

// GetRank retrieves a cached rank entry
func (sc *standingsCache) GetRank(applicantID, period string) (*Entry, bool) {
	data, found := sc.cache.Get(rankKey(applicantID, period))
	if !found {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		slog.Error("Failed to unmarshal cached rank", "error", err, "period", period)
		return nil, false
	}
	entry.ApplicantID = applicantID

	return &entry, true
}

// SetRank caches one applicant's rank entry
func (sc *standingsCache) SetRank(applicantID, period string, entry *Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		slog.Error("Failed to marshal rank for cache", "error", err, "period", period)
		return
	}

	sc.cache.Set(rankKey(applicantID, period), data)
}

// Clear drops every cached ranking, called after rebuilds
func (sc *standingsCache) Clear() {
	sc.cache.Clear()
}

// Stats returns cache statistics
func (sc *standingsCache) Stats() map[string]interface{} {
	return sc.cache.Stats()
}
