// Package main provides the CLI entry point for the marketplace load generator.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/markethub/tools/loadgen/internal/pool"
)

// Version information (populated at build time)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// CLI flags
var (
	baseURL     string
	tenantID    string
	bearerToken string
	duration    time.Duration
	concurrency int
	qps         float64
	poolSize    int
	poolTTL     time.Duration
	verbose     bool
	list        bool
	showVersion bool
)

func init() {
	flag.StringVar(&baseURL, "base-url", "http://localhost:8080", "Base URL of the marketplace API")
	flag.StringVar(&baseURL, "u", "http://localhost:8080", "Base URL of the marketplace API (shorthand)")
	flag.StringVar(&tenantID, "tenant", "", "Tenant ID sent as the X-Tenant-ID header")
	flag.StringVar(&bearerToken, "token", "", "Bearer token for authenticated endpoints")

	flag.DurationVar(&duration, "duration", 1*time.Minute, "Test duration (e.g., 5m, 1h)")
	flag.DurationVar(&duration, "d", 1*time.Minute, "Test duration (shorthand)")
	flag.IntVar(&concurrency, "concurrency", 8, "Number of concurrent workers")
	flag.Float64Var(&qps, "qps", 20, "Target queries per second across all workers")

	flag.IntVar(&poolSize, "pool-size", 1000, "Max harvested values kept per semantic type")
	flag.DurationVar(&poolTTL, "pool-ttl", 5*time.Minute, "TTL for harvested parameter values")

	flag.BoolVar(&verbose, "verbose", false, "Log every request")
	flag.BoolVar(&verbose, "v", false, "Log every request (shorthand)")
	flag.BoolVar(&list, "list", false, "List traffic scenarios and exit")
	flag.BoolVar(&list, "l", false, "List traffic scenarios (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = printUsage
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `MarketHub Load Generator

USAGE:
    loadgen -base-url <url> -tenant <uuid> [options]

DESCRIPTION:
    Generates storefront traffic against the marketplace API. A seed pass
    harvests product, vendor and category ids from listing endpoints into a
    parameter pool; the traffic mix then draws ids from the pool so detail
    and relation requests hit real entities instead of 404s.

OPTIONS:
    -base-url, -u <url>   Base URL of the marketplace API
    -tenant <uuid>        Tenant ID sent as the X-Tenant-ID header
    -token <jwt>          Bearer token for authenticated endpoints
    -duration, -d <dur>   Test duration (e.g., "5m", "1h30m")
    -concurrency <n>      Number of concurrent workers
    -qps <n>              Target queries per second
    -pool-size <n>        Max harvested values per semantic type
    -pool-ttl <dur>       TTL for harvested values
    -list, -l             List traffic scenarios and exit
    -verbose, -v          Log every request
    -version              Show version information

EXAMPLES:
    # One minute of storefront browsing at 20 QPS
    loadgen -base-url http://localhost:8080 -tenant 9f1c... -d 1m

    # Sustained mixed load
    loadgen -u https://staging.markethub.example -tenant 9f1c... -d 30m -qps 100 -concurrency 32
`)
}

// scenario is one weighted step of the traffic mix. Scenarios that need a
// harvested id declare the semantic type they draw from and are skipped
// while the pool has nothing of that type.
type scenario struct {
	name   string
	weight int
	needs  pool.SemanticType
	path   func(value string) string
}

// trafficMix is the storefront browse/search profile. Weights are relative.
var trafficMix = []scenario{
	{name: "browse_products", weight: 25,
		path: func(string) string { return "/api/v1/products?page=1&page_size=20" }},
	{name: "product_detail", weight: 30, needs: pool.SemanticTypeProductID,
		path: func(id string) string { return "/api/v1/products/" + id }},
	{name: "search_products", weight: 15,
		path: func(string) string { return "/api/v1/search/products?q=pack&page_size=10" }},
	{name: "vendor_profile", weight: 8, needs: pool.SemanticTypeVendorID,
		path: func(id string) string { return "/api/v1/vendors/" + id }},
	{name: "vendor_products", weight: 7, needs: pool.SemanticTypeVendorID,
		path: func(id string) string { return "/api/v1/vendors/" + id + "/products" }},
	{name: "trending", weight: 6,
		path: func(string) string { return "/api/v1/recommendations/trending" }},
	{name: "similar_products", weight: 4, needs: pool.SemanticTypeProductID,
		path: func(id string) string { return "/api/v1/recommendations/products/" + id + "/similar" }},
	{name: "category_tree", weight: 5,
		path: func(string) string { return "/api/v1/categories/tree" }},
}

// seedEndpoints are fetched once before the run to fill the pool.
var seedEndpoints = []struct {
	path         string
	semanticType pool.SemanticType
}{
	{"/api/v1/products?page=1&page_size=50", pool.SemanticTypeProductID},
	{"/api/v1/vendors?page=1&page_size=50", pool.SemanticTypeVendorID},
	{"/api/v1/categories", pool.SemanticTypeCategoryID},
}

// apiEnvelope mirrors the API's response wrapper.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// extractIDs pulls the "id" field out of an envelope's data payload,
// whether the payload is a single object or a list.
func extractIDs(body []byte) []string {
	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Data) == 0 {
		return nil
	}

	var items []map[string]json.RawMessage
	if err := json.Unmarshal(envelope.Data, &items); err != nil {
		var single map[string]json.RawMessage
		if err := json.Unmarshal(envelope.Data, &single); err != nil {
			return nil
		}
		items = []map[string]json.RawMessage{single}
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		raw, ok := item["id"]
		if !ok {
			continue
		}
		var id string
		if err := json.Unmarshal(raw, &id); err == nil && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// pickScenario selects a runnable scenario by weight. Scenarios whose
// required semantic type has no pooled values are excluded from the draw.
func pickScenario(ctx context.Context, p pool.ParameterPool, rng *rand.Rand) *scenario {
	runnable := make([]*scenario, 0, len(trafficMix))
	total := 0
	for i := range trafficMix {
		s := &trafficMix[i]
		if s.needs != "" {
			count, err := p.Count(ctx, s.needs)
			if err != nil || count == 0 {
				continue
			}
		}
		runnable = append(runnable, s)
		total += s.weight
	}
	if total == 0 {
		return nil
	}

	roll := rng.Intn(total)
	for _, s := range runnable {
		roll -= s.weight
		if roll < 0 {
			return s
		}
	}
	return runnable[len(runnable)-1]
}

// runStats aggregates counters across workers.
type runStats struct {
	requests   atomic.Int64
	failures   atomic.Int64
	latencySum atomic.Int64 // nanoseconds

	mu         sync.Mutex
	byScenario map[string]int64
	byStatus   map[int]int64
}

func newRunStats() *runStats {
	return &runStats{
		byScenario: make(map[string]int64),
		byStatus:   make(map[int]int64),
	}
}

func (s *runStats) record(name string, status int, elapsed time.Duration, failed bool) {
	s.requests.Add(1)
	s.latencySum.Add(int64(elapsed))
	if failed {
		s.failures.Add(1)
	}
	s.mu.Lock()
	s.byScenario[name]++
	s.byStatus[status]++
	s.mu.Unlock()
}

type driver struct {
	client *http.Client
	pool   pool.ParameterPool
	stats  *runStats
}

func (d *driver) do(ctx context.Context, name, path string, harvest pool.SemanticType) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		d.stats.record(name, 0, 0, true)
		return
	}
	if tenantID != "" {
		req.Header.Set("X-Tenant-ID", tenantID)
	}
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		d.stats.record(name, 0, elapsed, true)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	failed := resp.StatusCode >= 400
	d.stats.record(name, resp.StatusCode, elapsed, failed)

	if verbose {
		fmt.Printf("  %-18s %s -> %d (%s)\n", name, path, resp.StatusCode, elapsed.Round(time.Millisecond))
	}

	if !failed && harvest != "" {
		for _, id := range extractIDs(body) {
			value := pool.NewParameterValue(id, harvest, poolTTL).
				WithSource("GET "+path, "$.data[*].id")
			if _, err := d.pool.Add(ctx, value); err != nil {
				return
			}
		}
	}
}

// harvestTarget maps a scenario to the semantic type its response feeds
// back into the pool. Listing scenarios replenish the ids that detail
// scenarios consume.
func harvestTarget(name string) pool.SemanticType {
	switch name {
	case "browse_products", "search_products", "trending", "similar_products", "vendor_products":
		return pool.SemanticTypeProductID
	case "category_tree":
		return pool.SemanticTypeCategoryID
	default:
		return ""
	}
}

func (d *driver) seed(ctx context.Context) {
	for _, seed := range seedEndpoints {
		d.do(ctx, "seed", seed.path, seed.semanticType)
	}
}

func (d *driver) worker(ctx context.Context, limiter *rate.Limiter, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		s := pickScenario(ctx, d.pool, rng)
		if s == nil {
			continue
		}

		var value string
		if s.needs != "" {
			pv, err := d.pool.GetRandom(ctx, s.needs)
			if err != nil || pv == nil {
				continue
			}
			value, _ = pv.Value.(string)
			if value == "" {
				continue
			}
		}
		d.do(ctx, s.name, s.path(value), harvestTarget(s.name))
	}
}

func printScenarios() {
	fmt.Println("Traffic scenarios (weight / pool dependency):")
	for _, s := range trafficMix {
		dep := "-"
		if s.needs != "" {
			dep = string(s.needs)
		}
		fmt.Printf("  %-18s %3d  %s\n", s.name, s.weight, dep)
	}
}

func (s *runStats) print(elapsed time.Duration, poolStats pool.Stats) {
	total := s.requests.Load()
	failures := s.failures.Load()
	fmt.Println("\n=== Run Summary ===")
	fmt.Printf("Duration:       %s\n", elapsed.Round(time.Second))
	fmt.Printf("Requests:       %d (%.1f/s)\n", total, float64(total)/elapsed.Seconds())
	fmt.Printf("Failures:       %d (%.1f%%)\n", failures, percent(failures, total))
	if total > 0 {
		avg := time.Duration(s.latencySum.Load() / total)
		fmt.Printf("Avg latency:    %s\n", avg.Round(time.Millisecond))
	}

	s.mu.Lock()
	names := make([]string, 0, len(s.byScenario))
	for name := range s.byScenario {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nBy scenario:")
	for _, name := range names {
		fmt.Printf("  %-18s %d\n", name, s.byScenario[name])
	}
	statuses := make([]int, 0, len(s.byStatus))
	for status := range s.byStatus {
		statuses = append(statuses, status)
	}
	sort.Ints(statuses)
	fmt.Println("\nBy status:")
	for _, status := range statuses {
		label := fmt.Sprintf("%d", status)
		if status == 0 {
			label = "transport error"
		}
		fmt.Printf("  %-18s %d\n", label, s.byStatus[status])
	}
	s.mu.Unlock()

	fmt.Println("\nParameter pool:")
	fmt.Printf("  values:   %d\n", poolStats.TotalValues)
	fmt.Printf("  hit rate: %.1f%%\n", poolStats.HitRate())
}

func percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("loadgen %s (built %s, commit %s)\n", version, buildTime, gitCommit)
		return
	}
	if list {
		printScenarios()
		return
	}
	baseURL = strings.TrimRight(baseURL, "/")

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := pool.NewShardedParameterPool(pool.PoolConfig{
		DefaultTTL:       poolTTL,
		MaxValuesPerType: poolSize,
		EvictionPolicy:   pool.EvictionLRU,
		CleanupInterval:  1 * time.Minute,
		ShardCount:       16,
	})
	defer p.Close()

	d := &driver{
		client: &http.Client{Timeout: 10 * time.Second},
		pool:   p,
		stats:  newRunStats(),
	}

	fmt.Printf("Seeding parameter pool from %s ...\n", baseURL)
	d.seed(ctx)

	limiter := rate.NewLimiter(rate.Limit(qps), concurrency)
	fmt.Printf("Running %d workers at %.0f QPS for %s\n", concurrency, qps, duration)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			d.worker(ctx, limiter, seed)
		}(time.Now().UnixNano() + int64(i))
	}
	wg.Wait()

	poolStats, _ := p.Stats(context.Background())
	d.stats.print(time.Since(start), poolStats)

	if d.stats.failures.Load() > 0 {
		os.Exit(1)
	}
}
