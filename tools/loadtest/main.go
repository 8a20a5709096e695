package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mama165/sdk-go/logs"

	"github.com/devaloi/guestbook/internal/auth"
	"github.com/devaloi/guestbook/internal/client"
	"github.com/devaloi/guestbook/internal/domain"
	"github.com/devaloi/guestbook/internal/guestbook"
	"github.com/devaloi/guestbook/internal/rpc"
)

func main() {
	home, _ := os.UserHomeDir()
	baseURL := flag.String("url", "http://localhost:8080", "guestbook server URL")
	posters := flag.Int("posters", 10, "number of concurrent posters")
	watchers := flag.Int("watchers", 10, "number of live subscribers")
	messages := flag.Int("messages", 10, "messages per poster")
	tokenFile := flag.String("token-file", filepath.Join(home, ".guestbook-token"), "session token written by `guestbook login`")
	flag.Parse()

	log := logs.GetLoggerFromString("INFO")
	log.Info("load test", "posters", *posters, "watchers", *watchers, "messages", *messages)

	token, err := auth.FileTokenStore(*tokenFile).Load()
	if err != nil || token == "" {
		log.Error("no session token, run `guestbook login` first", "file", *tokenFile, "error", err)
		os.Exit(1)
	}

	wsURL, err := client.WebSocketURL(*baseURL, domain.TopicGetAll)
	if err != nil {
		log.Error("bad url", "error", err)
		os.Exit(1)
	}

	var (
		connected   int64
		sent        int64
		invalidated int64
		failures    int64
		latencies   []time.Duration
		latencyMu   sync.Mutex
		watchWG     sync.WaitGroup
		postWG      sync.WaitGroup
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < *watchers; i++ {
		watchWG.Add(1)
		go func(id int) {
			defer watchWG.Done()
			atomic.AddInt64(&connected, 1)
			err := client.Subscribe(ctx, wsURL, nil, func(string) {
				atomic.AddInt64(&invalidated, 1)
			})
			if err != nil {
				atomic.AddInt64(&failures, 1)
				log.Warn("watcher stopped", "watcher", id, "error", err)
			}
		}(i)
	}
	time.Sleep(200 * time.Millisecond)

	hc := &http.Client{Timeout: 10 * time.Second}
	api := guestbook.NewAPI(rpc.NewClient(*baseURL, hc, func() (string, error) { return token, nil }))

	start := time.Now()
	for i := 0; i < *posters; i++ {
		postWG.Add(1)
		go func(id int) {
			defer postWG.Done()
			for j := 0; j < *messages; j++ {
				msg := domain.Message{
					Name:    fmt.Sprintf("poster_%d", id),
					Message: fmt.Sprintf("msg %d from poster %d", j, id),
				}
				sendTime := time.Now()
				if err := api.PostMessage(ctx, msg); err != nil {
					atomic.AddInt64(&failures, 1)
					log.Warn("post failed", "poster", id, "error", err)
					return
				}
				atomic.AddInt64(&sent, 1)
				lat := time.Since(sendTime)
				latencyMu.Lock()
				latencies = append(latencies, lat)
				latencyMu.Unlock()
			}
		}(i)
	}

	postWG.Wait()
	elapsed := time.Since(start)

	// Wait a bit for remaining invalidations.
	time.Sleep(500 * time.Millisecond)
	cancel()
	watchWG.Wait()

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	fmt.Println("\n=== Load Test Results ===")
	fmt.Printf("Duration:      %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Watchers:      %d connected\n", connected)
	fmt.Printf("Posted:        %d messages\n", sent)
	fmt.Printf("Invalidations: %d received\n", invalidated)
	fmt.Printf("Errors:        %d\n", failures)
	if len(latencies) > 0 {
		fmt.Printf("Latency p50:   %s\n", percentile(latencies, 50))
		fmt.Printf("Latency p95:   %s\n", percentile(latencies, 95))
		fmt.Printf("Latency p99:   %s\n", percentile(latencies, 99))
	}
	fmt.Printf("Throughput:    %.0f posts/sec\n", float64(sent)/elapsed.Seconds())
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
