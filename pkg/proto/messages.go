// Package proto defines the message types carried by the JSON-over-TCP RPC
// layer in pkg/grpc. Field tags are the wire names.
package proto

// HealthCheckResponse mirrors the gRPC health check states.
type HealthCheckResponse struct {
	Status string `json:"status"` // SERVING, NOT_SERVING
}

// SnippetRequest is the input to SnippetService.Snippet.
type SnippetRequest struct {
	Query string `json:"query"`
}

// SnippetResponse is the output of SnippetService.Snippet. Snippet holds
// either the joined sentences or the configured message.
type SnippetResponse struct {
	Query       string        `json:"query"`
	Snippet     string        `json:"snippet"`
	ResultType  string        `json:"result_type"`
	Terms       []string      `json:"terms,omitempty"`
	Unknown     []string      `json:"unknown,omitempty"`
	Sentences   []SentenceHit `json:"sentences,omitempty"`
	CacheHit    bool          `json:"cache_hit"`
	LatencyUS   int64         `json:"latency_us"`
	Fingerprint string        `json:"fingerprint"`
}

// SentenceHit is one selected sentence with the term that scored it.
type SentenceHit struct {
	Sentence int     `json:"sentence"`
	Term     string  `json:"term"`
	Weight   float64 `json:"weight"`
	Text     string  `json:"text"`
}

// StatsRequest asks for index statistics; Top limits the term list.
type StatsRequest struct {
	Top int `json:"top"`
}

// StatsResponse contains index-level statistics.
type StatsResponse struct {
	Sentences   int        `json:"sentences"`
	Terms       int        `json:"terms"`
	Characters  int        `json:"characters"`
	Fingerprint string     `json:"fingerprint"`
	BuildMs     int64      `json:"build_ms"`
	TopTerms    []TermStat `json:"top_terms,omitempty"`
}

// TermStat is a term with its occurrence count.
type TermStat struct {
	Term        string `json:"term"`
	Occurrences int    `json:"occurrences"`
}
