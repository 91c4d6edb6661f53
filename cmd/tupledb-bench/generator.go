package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/tuple-db/go-tupledb/tuple"
)

// generator produces pseudo-random keys and values, seeded deterministically
// so successive runs are comparable, the same approach as the teacher's
// bench.go generator.
type generator struct {
	*rand.Rand
}

func newGenerator() *generator {
	return &generator{rand.New(rand.NewSource(0))}
}

// randomKey produces a two-element tuple key: a fixed low-cardinality
// "shard" element followed by a random string, so a range Scan over one
// shard exercises more than a single key per benchmark iteration.
func (g *generator) randomKey() tuple.Tuple {
	shard := g.Intn(16)
	return tuple.Tuple{tuple.Number(float64(shard)), tuple.String(fmt.Sprintf("%016x", g.Uint64()))}
}

func (g *generator) value() string {
	b := make([]byte, 100)
	g.Read(b)
	return string(b)
}

// stats tracks throughput for a single benchmark run, grounded on the
// teacher's bench.go stats type.
type stats struct {
	ops   int
	bytes int
	start time.Time
}

func newStats() *stats {
	return &stats{start: time.Now()}
}

func (s *stats) finishOp(n int) {
	s.ops++
	s.bytes += n
}

func (s *stats) report(label string) {
	micros := time.Since(s.start).Seconds() * 1e6
	fmt.Printf("%-10s %8.3f micros/op; %6.1f MB/s\n",
		label, micros/float64(s.ops), float64(s.bytes)/(1024*1024)/(micros/1e6))
}
