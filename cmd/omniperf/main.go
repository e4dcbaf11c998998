package main

import (
	"bytes"
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
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/omnicart/internal/protocol"
)

type options struct {
	baseURL        string
	customerID     string
	channel        string
	turns          int
	interTurnDelay time.Duration
	turnTimeout    time.Duration
	texts          []string
	jsonReport     bool
	verbose        bool
}

type createSessionRequest struct {
	Channel    string `json:"channel,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

type wsEnvelope struct {
	Type      string `json:"type"`
	Seq       int    `json:"seq,omitempty"`
	Intent    string `json:"intent,omitempty"`
	AgentUsed string `json:"agent_used,omitempty"`
	Code      string `json:"code,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// sample is one measured turn.
type sample struct {
	Seq     int           `json:"seq"`
	Text    string        `json:"text"`
	Intent  string        `json:"intent"`
	Agent   string        `json:"agent_used"`
	Latency time.Duration `json:"latency_ns"`
}

type latencyStats struct {
	Count int     `json:"count"`
	P50MS float64 `json:"p50_ms"`
	P95MS float64 `json:"p95_ms"`
	MaxMS float64 `json:"max_ms"`
}

type report struct {
	SessionID string                  `json:"session_id"`
	Turns     int                     `json:"turns"`
	Overall   latencyStats            `json:"overall"`
	ByAgent   map[string]latencyStats `json:"by_agent"`
	Samples   []sample                `json:"samples,omitempty"`
}

// defaultScript walks one shopping journey from greeting to order tracking.
var defaultScript = []string{
	"hi",
	"show me formal under 3000",
	"add LV001 to cart",
	"is it in stock?",
	"checkout",
	"pay with upi",
	"track my order",
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "omniperf: %v\n", err)
		os.Exit(2)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Minute)
	rep, err := run(ctx, cfg, os.Stdout)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "omniperf: %v\n", err)
		os.Exit(1)
	}
	if cfg.jsonReport {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(rep)
		return
	}
	printReport(os.Stdout, rep)
}

func parseFlags() (options, error) {
	var cfg options
	var textsRaw string
	var interTurnMS int
	var turnTimeoutMS int

	flag.StringVar(&cfg.baseURL, "base-url", "http://127.0.0.1:8080", "OmniCart base URL")
	flag.StringVar(&cfg.customerID, "customer", "C001", "customer_id attached to the synthetic session (empty for guest)")
	flag.StringVar(&cfg.channel, "channel", "web", "session channel")
	flag.IntVar(&cfg.turns, "turns", len(defaultScript), "number of turns to replay; the script repeats with a reset between passes")
	flag.IntVar(&interTurnMS, "inter-turn-ms", 50, "delay between turns in milliseconds")
	flag.IntVar(&turnTimeoutMS, "turn-timeout-ms", 5000, "timeout waiting for assistant_reply per turn in milliseconds")
	flag.StringVar(&textsRaw, "texts", "", "messages separated by '|' (optional)")
	flag.BoolVar(&cfg.jsonReport, "json", false, "print the report as JSON")
	flag.BoolVar(&cfg.verbose, "verbose", false, "print replay progress")
	flag.Parse()

	return normalize(cfg, textsRaw, interTurnMS, turnTimeoutMS)
}

func normalize(cfg options, textsRaw string, interTurnMS, turnTimeoutMS int) (options, error) {
	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")
	if cfg.baseURL == "" {
		return options{}, fmt.Errorf("base-url is required")
	}
	if cfg.turns <= 0 {
		return options{}, fmt.Errorf("turns must be > 0")
	}
	if interTurnMS < 0 {
		interTurnMS = 0
	}
	if turnTimeoutMS < 100 {
		turnTimeoutMS = 100
	}
	cfg.interTurnDelay = time.Duration(interTurnMS) * time.Millisecond
	cfg.turnTimeout = time.Duration(turnTimeoutMS) * time.Millisecond

	if strings.TrimSpace(textsRaw) == "" {
		cfg.texts = append([]string(nil), defaultScript...)
		return cfg, nil
	}
	for _, part := range strings.Split(textsRaw, "|") {
		if t := strings.TrimSpace(part); t != "" {
			cfg.texts = append(cfg.texts, t)
		}
	}
	if len(cfg.texts) == 0 {
		return options{}, fmt.Errorf("texts produced no non-empty messages")
	}
	return cfg, nil
}

func run(ctx context.Context, cfg options, progress io.Writer) (report, error) {
	httpClient := &http.Client{Timeout: 15 * time.Second}
	sessionID, err := createSession(ctx, httpClient, cfg)
	if err != nil {
		return report{}, fmt.Errorf("create session: %w", err)
	}
	defer func() {
		_ = endSession(context.Background(), httpClient, cfg.baseURL, sessionID)
	}()

	wsURL, err := wsURLForSession(cfg.baseURL, sessionID)
	if err != nil {
		return report{}, fmt.Errorf("build ws URL: %w", err)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return report{}, fmt.Errorf("open websocket: %w", err)
	}
	defer conn.Close()

	if cfg.verbose {
		fmt.Fprintf(progress, "omniperf: session=%s turns=%d\n", sessionID, cfg.turns)
	}

	replyCh := make(chan wsEnvelope, 32)
	readErrCh := make(chan error, 1)
	go readLoop(conn, replyCh, readErrCh, progress, cfg.verbose)

	samples := make([]sample, 0, cfg.turns)
	for i := 0; i < cfg.turns; i++ {
		if i > 0 && i%len(cfg.texts) == 0 {
			if err := sendReset(conn, sessionID); err != nil {
				return report{}, fmt.Errorf("turn %d send reset: %w", i+1, err)
			}
		}
		text := cfg.texts[i%len(cfg.texts)]
		seq := i + 1

		started := time.Now()
		msg := protocol.ClientMessage{
			Type:      protocol.TypeClientMessage,
			SessionID: sessionID,
			Seq:       seq,
			Text:      text,
		}
		if err := conn.WriteJSON(msg); err != nil {
			return report{}, fmt.Errorf("turn %d send: %w", seq, err)
		}
		reply, err := awaitReply(replyCh, readErrCh, seq, cfg.turnTimeout)
		if err != nil {
			return report{}, fmt.Errorf("turn %d await assistant_reply: %w", seq, err)
		}
		s := sample{Seq: seq, Text: text, Intent: reply.Intent, Agent: reply.AgentUsed, Latency: time.Since(started)}
		samples = append(samples, s)
		if cfg.verbose {
			fmt.Fprintf(progress, "omniperf: turn %d/%d %q -> %s/%s in %s\n", seq, cfg.turns, text, s.Intent, s.Agent, s.Latency.Round(time.Microsecond))
		}
		if cfg.interTurnDelay > 0 && i < cfg.turns-1 {
			time.Sleep(cfg.interTurnDelay)
		}
	}

	return summarize(sessionID, samples), nil
}

func createSession(ctx context.Context, client *http.Client, cfg options) (string, error) {
	payload, err := json.Marshal(createSessionRequest{
		Channel:    strings.TrimSpace(cfg.channel),
		CustomerID: strings.TrimSpace(cfg.customerID),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.baseURL+"/v1/sessions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("HTTP %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var out createSessionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.SessionID) == "" {
		return "", fmt.Errorf("missing session_id in response")
	}
	return out.SessionID, nil
}

func endSession(ctx context.Context, client *http.Client, baseURL, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/sessions/"+url.PathEscape(sessionID)+"/end", nil)
	if err != nil {
		return err
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<20))
	return nil
}

func wsURLForSession(baseURL, sessionID string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported base-url scheme %q", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", fmt.Errorf("base-url host is required")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/sessions/" + url.PathEscape(sessionID) + "/ws"
	return u.String(), nil
}

func readLoop(conn *websocket.Conn, replyCh chan<- wsEnvelope, readErrCh chan<- error, progress io.Writer, verbose bool) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case readErrCh <- err:
			default:
			}
			return
		}
		var env wsEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		switch env.Type {
		case string(protocol.TypeAssistantReply):
			replyCh <- env
		case string(protocol.TypeErrorEvent):
			if verbose {
				fmt.Fprintf(progress, "omniperf: error_event code=%s detail=%s\n", env.Code, env.Detail)
			}
		}
	}
}

func sendReset(conn *websocket.Conn, sessionID string) error {
	return conn.WriteJSON(protocol.ClientControl{
		Type:      protocol.TypeClientControl,
		SessionID: sessionID,
		Action:    protocol.ActionReset,
	})
}

// awaitReply waits for the assistant_reply carrying seq, skipping stale ones.
func awaitReply(replyCh <-chan wsEnvelope, readErrCh <-chan error, seq int, timeout time.Duration) (wsEnvelope, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case env := <-replyCh:
			if env.Seq == seq {
				return env, nil
			}
		case err := <-readErrCh:
			return wsEnvelope{}, err
		case <-timer.C:
			return wsEnvelope{}, fmt.Errorf("timeout after %s", timeout)
		}
	}
}

func summarize(sessionID string, samples []sample) report {
	rep := report{
		SessionID: sessionID,
		Turns:     len(samples),
		ByAgent:   make(map[string]latencyStats),
		Samples:   samples,
	}
	all := make([]time.Duration, 0, len(samples))
	perAgent := make(map[string][]time.Duration)
	for _, s := range samples {
		all = append(all, s.Latency)
		perAgent[s.Agent] = append(perAgent[s.Agent], s.Latency)
	}
	rep.Overall = statsOf(all)
	for agent, lat := range perAgent {
		rep.ByAgent[agent] = statsOf(lat)
	}
	return rep
}

// statsOf uses nearest-rank percentiles.
func statsOf(lat []time.Duration) latencyStats {
	if len(lat) == 0 {
		return latencyStats{}
	}
	sorted := append([]time.Duration(nil), lat...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	rank := func(p float64) time.Duration {
		idx := int(math.Ceil(p*float64(len(sorted)))) - 1
		if idx < 0 {
			idx = 0
		}
		return sorted[idx]
	}
	return latencyStats{
		Count: len(sorted),
		P50MS: ms(rank(0.50)),
		P95MS: ms(rank(0.95)),
		MaxMS: ms(sorted[len(sorted)-1]),
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func printReport(w io.Writer, rep report) {
	fmt.Fprintf(w, "session %s: %d turns p50=%.2fms p95=%.2fms max=%.2fms\n",
		rep.SessionID, rep.Turns, rep.Overall.P50MS, rep.Overall.P95MS, rep.Overall.MaxMS)
	agents := make([]string, 0, len(rep.ByAgent))
	for a := range rep.ByAgent {
		agents = append(agents, a)
	}
	sort.Strings(agents)
	for _, a := range agents {
		st := rep.ByAgent[a]
		fmt.Fprintf(w, "  %-20s n=%-3d p50=%.2fms p95=%.2fms max=%.2fms\n", a, st.Count, st.P50MS, st.P95MS, st.MaxMS)
	}
}
