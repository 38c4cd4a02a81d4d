package analytics

import "time"

type EventType string

const (
	EventSnippet    EventType = "snippet"
	EventCacheHit   EventType = "cache_hit"
	EventNoMatch    EventType = "no_match"
	EventEmptyQuery EventType = "empty_query"
	EventIndexBuilt EventType = "index_built"
)

// QueryEvent describes one answered snippet query.
type QueryEvent struct {
	Type         EventType `json:"type"`
	Query        string    `json:"query"`
	Terms        []string  `json:"terms"`
	UnknownTerms []string  `json:"unknown_terms,omitempty"`
	Candidates   int       `json:"candidates"`
	Sentences    int       `json:"sentences"`
	LatencyUS    int64     `json:"latency_us"`
	CacheHit     bool      `json:"cache_hit"`
	Fingerprint  string    `json:"fingerprint"`
	Source       string    `json:"source"`
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"request_id,omitempty"`
}

// IndexEvent is emitted once per engine build.
type IndexEvent struct {
	Type        EventType `json:"type"`
	Fingerprint string    `json:"fingerprint"`
	Source      string    `json:"source"`
	Sentences   int       `json:"sentences"`
	Terms       int       `json:"terms"`
	Characters  int       `json:"characters"`
	BuildMs     int64     `json:"build_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// EventKey partitions events by document.
func (e QueryEvent) EventKey() string { return e.Fingerprint }

func (e IndexEvent) EventKey() string { return e.Fingerprint }

// QueryEventType classifies a query by its result type and cache outcome.
// Cache hits are counted as such whatever the cached result was.
func QueryEventType(resultType string, cacheHit bool) EventType {
	if cacheHit {
		return EventCacheHit
	}
	switch EventType(resultType) {
	case EventNoMatch:
		return EventNoMatch
	case EventEmptyQuery:
		return EventEmptyQuery
	default:
		return EventSnippet
	}
}

type envelope struct {
	Type EventType `json:"type"`
}
