// Command loadtest drives GET /api/v1/snippet with a fixed query mix and
// reports throughput, latency percentiles, cache hit rate and the mix of
// result types the service returned.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var defaultQueries = []string{
	"cats dogs",
	"snippet engine",
	"sentence weight",
	"query terms",
	"document index",
	"benchmark length",
	"rare term",
	"",
	"zebra unicorn",
	"the",
}

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Queries     []string
}

// snippetReply is the part of the snippet response the load test inspects.
type snippetReply struct {
	ResultType string `json:"result_type"`
	CacheHit   bool   `json:"cache_hit"`
	LatencyUS  int64  `json:"latency_us"`
}

type Stats struct {
	totalRequests atomic.Int64
	successCount  atomic.Int64
	errorCount    atomic.Int64
	cacheHits     atomic.Int64
	serverUS      atomic.Int64

	mu          sync.Mutex
	latencies   []time.Duration
	statusCodes map[int]int64
	resultTypes map[string]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]int64),
		resultTypes: make(map[string]int64),
	}
}

// Record stores the outcome of one request. reply is nil when the body
// could not be decoded.
func (s *Stats) Record(duration time.Duration, statusCode int, reply *snippetReply, err error) {
	s.totalRequests.Add(1)
	if err != nil {
		s.errorCount.Add(1)
		return
	}
	if statusCode >= 200 && statusCode < 300 {
		s.successCount.Add(1)
	} else {
		s.errorCount.Add(1)
	}
	if reply != nil {
		if reply.CacheHit {
			s.cacheHits.Add(1)
		}
		s.serverUS.Add(reply.LatencyUS)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latencies = append(s.latencies, duration)
	s.statusCodes[statusCode]++
	if reply != nil {
		s.resultTypes[reply.ResultType]++
	}
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the snippet service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	queries := flag.String("queries", "", "comma-separated queries (default: built-in mix)")
	flag.Parse()

	cfg := Config{
		BaseURL:     strings.TrimRight(*baseURL, "/"),
		Concurrency: *concurrency,
		Duration:    *duration,
		Queries:     defaultQueries,
	}
	if *queries != "" {
		cfg.Queries = strings.Split(*queries, ",")
	}

	fmt.Println("=== Snippet Engine Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Queries:     %d unique\n", len(cfg.Queries))
	fmt.Println()

	stats := run(cfg)
	if !printReport(os.Stdout, stats, cfg.Duration) {
		os.Exit(1)
	}
}

func run(cfg Config) *Stats {
	stats := NewStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := workerID; ctx.Err() == nil; i++ {
				query := cfg.Queries[i%len(cfg.Queries)]
				start := time.Now()
				status, reply, err := fetch(ctx, client, cfg.BaseURL, query)
				if ctx.Err() != nil {
					return
				}
				stats.Record(time.Since(start), status, reply, err)
			}
		}(w)
	}
	wg.Wait()
	return stats
}

func fetch(ctx context.Context, client *http.Client, baseURL, query string) (int, *snippetReply, error) {
	snippetURL := fmt.Sprintf("%s/api/v1/snippet?q=%s", baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, snippetURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var reply snippetReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil, nil
	}
	return resp.StatusCode, &reply, nil
}

// printReport writes the summary to w and reports whether any request
// completed.
func printReport(w io.Writer, stats *Stats, duration time.Duration) bool {
	total := stats.totalRequests.Load()
	success := stats.successCount.Load()
	failed := stats.errorCount.Load()

	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total Requests:  %d\n", total)
	fmt.Fprintf(w, "Successful:      %d\n", success)
	fmt.Fprintf(w, "Errors:          %d\n", failed)
	if total == 0 {
		fmt.Fprintln(w, "WARNING: No requests completed. Is the service running?")
		return false
	}
	fmt.Fprintf(w, "Error Rate:      %.2f%%\n", float64(failed)/float64(total)*100)
	fmt.Fprintf(w, "Requests/sec:    %.2f\n", float64(total)/duration.Seconds())
	fmt.Fprintf(w, "Cache Hit Rate:  %.2f%%\n", float64(stats.cacheHits.Load())/float64(total)*100)
	fmt.Fprintf(w, "Avg Server Time: %s\n", time.Duration(stats.serverUS.Load()/total)*time.Microsecond)

	stats.mu.Lock()
	defer stats.mu.Unlock()

	latencies := append([]time.Duration(nil), stats.latencies...)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	if len(latencies) > 0 {
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Latency ===")
		fmt.Fprintf(w, "Min:    %s\n", latencies[0])
		fmt.Fprintf(w, "Avg:    %s\n", sum/time.Duration(len(latencies)))
		fmt.Fprintf(w, "P50:    %s\n", percentile(latencies, 50))
		fmt.Fprintf(w, "P95:    %s\n", percentile(latencies, 95))
		fmt.Fprintf(w, "P99:    %s\n", percentile(latencies, 99))
		fmt.Fprintf(w, "Max:    %s\n", latencies[len(latencies)-1])
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Status Codes ===")
	codes := make([]int, 0, len(stats.statusCodes))
	for code := range stats.statusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, stats.statusCodes[code])
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Result Types ===")
	types := make([]string, 0, len(stats.resultTypes))
	for t := range stats.resultTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(w, "  %s: %d\n", t, stats.resultTypes[t])
	}
	return true
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
