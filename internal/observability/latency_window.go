package observability

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

type AgentLatencyStats struct {
	Agent   string  `json:"agent"`
	Samples int     `json:"samples"`
	LastMS  float64 `json:"last_ms"`
	AvgMS   float64 `json:"avg_ms"`
	P50MS   float64 `json:"p50_ms"`
	P95MS   float64 `json:"p95_ms"`
	P99MS   float64 `json:"p99_ms"`
}

type IntentCount struct {
	Intent string `json:"intent"`
	Count  int    `json:"count"`
}

type AgentLatencySnapshot struct {
	GeneratedAt time.Time           `json:"generated_at"`
	WindowSize  int                 `json:"window_size"`
	Agents      []AgentLatencyStats `json:"agents"`
	Intents     []IntentCount       `json:"intents,omitempty"`
}

// latencyWindow keeps the last maxSamples latencies per agent in ring buffers.
type latencyWindow struct {
	mu         sync.RWMutex
	maxSamples int
	agents     map[string]*latencyBuffer
	intents    map[string]int
}

type latencyBuffer struct {
	values []float64
	next   int
	filled bool
	last   float64
}

func newLatencyWindow(maxSamples int) *latencyWindow {
	if maxSamples <= 0 {
		maxSamples = 256
	}
	return &latencyWindow{
		maxSamples: maxSamples,
		agents:     make(map[string]*latencyBuffer),
		intents:    make(map[string]int),
	}
}

func (w *latencyWindow) Observe(agent string, ms float64) {
	if agent == "" || ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	buf, ok := w.agents[agent]
	if !ok {
		buf = &latencyBuffer{values: make([]float64, w.maxSamples)}
		w.agents[agent] = buf
	}
	buf.values[buf.next] = ms
	buf.last = ms
	buf.next++
	if buf.next >= len(buf.values) {
		buf.next = 0
		buf.filled = true
	}
}

func (w *latencyWindow) ObserveIntent(intent string) {
	intent = strings.TrimSpace(intent)
	if intent == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.intents[intent]++
}

func (w *latencyWindow) Snapshot() AgentLatencySnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	names := make([]string, 0, len(w.agents))
	for name := range w.agents {
		names = append(names, name)
	}
	sort.Strings(names)

	agents := make([]AgentLatencyStats, 0, len(names))
	for _, name := range names {
		buf := w.agents[name]
		n := buf.next
		if buf.filled {
			n = len(buf.values)
		}
		if n <= 0 {
			continue
		}
		samples := make([]float64, n)
		copy(samples, buf.values[:n])
		sort.Float64s(samples)

		sum := 0.0
		for _, v := range samples {
			sum += v
		}
		agents = append(agents, AgentLatencyStats{
			Agent:   name,
			Samples: n,
			LastMS:  round2(buf.last),
			AvgMS:   round2(sum / float64(n)),
			P50MS:   round2(quantile(samples, 0.50)),
			P95MS:   round2(quantile(samples, 0.95)),
			P99MS:   round2(quantile(samples, 0.99)),
		})
	}

	intentNames := make([]string, 0, len(w.intents))
	for name := range w.intents {
		intentNames = append(intentNames, name)
	}
	sort.Strings(intentNames)
	intents := make([]IntentCount, 0, len(intentNames))
	for _, name := range intentNames {
		intents = append(intents, IntentCount{Intent: name, Count: w.intents[name]})
	}

	return AgentLatencySnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.maxSamples,
		Agents:      agents,
		Intents:     intents,
	}
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := q * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
