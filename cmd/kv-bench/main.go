package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/loganszeto/respkv/internal/client"
	"github.com/loganszeto/respkv/internal/config"
	"github.com/loganszeto/respkv/internal/protocol"
)

func main() {
	addr := flag.String("addr", net.JoinHostPort(config.DefaultHost, strconv.Itoa(config.DefaultPort)), "server address")
	clients := flag.Int("clients", 10, "concurrent connections")
	ops := flag.Int("ops", 100000, "total operations")
	ratioGet := flag.Float64("ratio_get", 0.8, "fraction of GET requests")
	valueSize := flag.Int("value_size", 128, "value size bytes")
	keySpace := flag.Int("keys", 1000, "distinct keys")
	pipeline := flag.Int("pipeline", 1, "requests per round trip")
	flag.Parse()

	if *clients <= 0 || *pipeline <= 0 || *keySpace <= 0 {
		fmt.Fprintln(os.Stderr, "clients, keys and pipeline must be > 0")
		os.Exit(1)
	}

	value := []byte(strings.Repeat("x", *valueSize))
	keys := make([][]byte, *keySpace)
	for i := range keys {
		keys[i] = []byte("key:" + strconv.Itoa(i))
	}

	var next atomic.Int64
	var mu sync.Mutex
	lats := make([]time.Duration, 0, *ops)

	ctx := context.Background()
	g, ctx := errgroup.WithContext(ctx)
	start := time.Now()
	for i := 0; i < *clients; i++ {
		seed := time.Now().UnixNano() + int64(i)
		g.Go(func() error {
			c, err := client.Dial(ctx, *addr)
			if err != nil {
				return err
			}
			defer c.Close()
			rng := rand.New(rand.NewSource(seed))
			local := make([]time.Duration, 0, 1024)
			batch := make([]protocol.Frame, 0, *pipeline)
			for {
				first := int(next.Add(int64(*pipeline))) - *pipeline
				if first >= *ops || ctx.Err() != nil {
					break
				}
				n := min(*pipeline, *ops-first)
				batch = batch[:0]
				for j := 0; j < n; j++ {
					key := keys[rng.Intn(len(keys))]
					if rng.Float64() < *ratioGet {
						batch = append(batch, protocol.Command("GET", key))
					} else {
						batch = append(batch, protocol.Command("SET", key, value))
					}
				}
				t0 := time.Now()
				replies, err := c.Pipeline(batch...)
				if err != nil {
					return err
				}
				local = append(local, time.Since(t0))
				for _, r := range replies {
					if e, ok := r.(protocol.Error); ok {
						return fmt.Errorf("server error: %s", string(e))
					}
				}
			}
			mu.Lock()
			lats = append(lats, local...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "bench: %v\n", err)
		os.Exit(1)
	}

	elapsed := time.Since(start)
	fmt.Printf("Total ops: %d\n", *ops)
	fmt.Printf("Clients: %d, pipeline: %d\n", *clients, *pipeline)
	fmt.Printf("Elapsed: %s\n", elapsed)
	fmt.Printf("Ops/sec: %.2f\n", float64(*ops)/elapsed.Seconds())
	printLatencyStats(lats)
}

func printLatencyStats(lats []time.Duration) {
	if len(lats) == 0 {
		fmt.Println("No latency samples")
		return
	}
	slices.Sort(lats)
	fmt.Printf("p50: %s\n", percentile(lats, 50))
	fmt.Printf("p95: %s\n", percentile(lats, 95))
	fmt.Printf("p99: %s\n", percentile(lats, 99))
	fmt.Printf("max: %s\n", lats[len(lats)-1])
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, p int) time.Duration {
	return sorted[len(sorted)*p/100]
}
