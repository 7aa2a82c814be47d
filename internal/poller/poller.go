package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/http2"

	"parking-status-backend/config"
	"parking-status-backend/internal/model"
	"parking-status-backend/internal/parse"
)

// ErrNoAddress is recorded when a fetch runs without a usable address.
var ErrNoAddress = errors.New("no server address provided")

// Engine polls a sensor endpoint on a fixed period and keeps the latest snapshot.
// Only one cycle is active per engine; Start replaces it.
type Engine struct {
	client     *http.Client
	interval   time.Duration
	classifier *Classifier
	onSnapshot func([]model.SlotReading)

	mu     sync.Mutex // guards target and stop
	target parse.Target
	stop   chan struct{}

	stateMu   sync.RWMutex
	snapshot  []model.SlotReading
	lastError string

	busy atomic.Bool
}

// Option customises an Engine.
type Option func(*Engine)

// WithHTTPClient replaces the HTTP client used for fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) { e.client = client }
}

// WithInterval overrides the polling period.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// WithSnapshotHook registers fn to receive a copy of every new snapshot.
func WithSnapshotHook(fn func([]model.SlotReading)) Option {
	return func(e *Engine) { e.onSnapshot = fn }
}

// NewEngine creates a polling engine from the poller configuration.
func NewEngine(cfg config.PollerConfig, opts ...Option) *Engine {
	transport := &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Poller will not use a proxy.", cfg.HTTPProxy, err)
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		log.Printf("Warning: could not enable HTTP/2 for poller: %v", err)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	e := &Engine{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		interval:   interval,
		classifier: NewClassifier(debounce, cfg.DangerZone),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start points the engine at address, fetches once right away and then every interval.
// A previously running cycle is cancelled first.
func (e *Engine) Start(address string) {
	target, err := parse.ParseAddress(address)
	if err != nil {
		log.Printf("Warning: %v", err)
	} else {
		log.Printf("Polling %s every %s", target.URL(), e.interval)
	}

	stop := make(chan struct{})
	e.mu.Lock()
	if e.stop != nil {
		close(e.stop)
	}
	e.target = target
	e.stop = stop
	e.mu.Unlock()

	go e.tick()
	go e.loop(stop)
}

// Stop cancels future ticks. A fetch already in flight completes normally.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop == nil {
		return
	}
	close(e.stop)
	e.stop = nil
	log.Println("Polling stopped.")
}

// Run starts polling address and blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context, address string) {
	log.Println("Starting poller service...")
	e.Start(address)
	<-ctx.Done()
	e.Stop()
	log.Println("Poller service shutting down.")
}

// Target returns the current normalised target.
func (e *Engine) Target() parse.Target {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target
}

// Snapshot returns a copy of the latest successfully fetched readings.
func (e *Engine) Snapshot() []model.SlotReading {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	out := make([]model.SlotReading, len(e.snapshot))
	copy(out, e.snapshot)
	return out
}

// LastError returns the most recent polling error, or "" after a successful fetch.
func (e *Engine) LastError() string {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.lastError
}

// Classifier returns the engine's slot classifier.
func (e *Engine) Classifier() *Classifier {
	return e.classifier
}

// Classified returns the latest snapshot with each slot's status at now.
func (e *Engine) Classified(now time.Time) []ClassifiedReading {
	return e.classifier.ClassifyAll(e.Snapshot(), now)
}

func (e *Engine) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			go e.tick()
		}
	}
}

// tick runs one fetch unless another is still in flight.
func (e *Engine) tick() {
	if !e.busy.CompareAndSwap(false, true) {
		log.Println("Previous fetch still in flight, skipping tick.")
		return
	}
	defer e.busy.Store(false)

	if err := e.FetchStatus(context.Background()); err != nil {
		log.Printf("Polling error: %v", err)
	}
}

// FetchStatus performs one request against the current target and updates
// the snapshot and last error accordingly.
func (e *Engine) FetchStatus(ctx context.Context) error {
	target := e.Target()
	if target.Host == "" {
		e.setError(ErrNoAddress.Error())
		return ErrNoAddress
	}

	resp, err := e.fetch(ctx, target)
	if err != nil {
		e.setError(err.Error())
		return err
	}

	readings, ok := resp.readings()
	if !ok {
		// The error is still cleared below; the previous snapshot stays on display.
		log.Printf("Warning: response from %s has no slots array, keeping previous snapshot", target.Host)
	} else {
		e.setSnapshot(readings)
	}
	e.setError("")
	return nil
}

func (e *Engine) fetch(ctx context.Context, target parse.Target) (*SensorResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var sensorResp SensorResponse
	if err := json.Unmarshal(body, &sensorResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sensor response: %w", err)
	}
	return &sensorResp, nil
}

func (e *Engine) setSnapshot(readings []model.SlotReading) {
	e.stateMu.Lock()
	e.snapshot = readings
	e.stateMu.Unlock()

	if e.onSnapshot != nil {
		out := make([]model.SlotReading, len(readings))
		copy(out, readings)
		e.onSnapshot(out)
	}
}

func (e *Engine) setError(msg string) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.lastError = msg
}
