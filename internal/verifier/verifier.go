package verifier

import (
	"context"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"PumpSentinel/internal/analyzer"
	"PumpSentinel/internal/buffer"
	"PumpSentinel/internal/calculator"
	"PumpSentinel/internal/collector"
	"PumpSentinel/internal/model"
	"PumpSentinel/internal/ratelimit"
)

// Notifier delivers confirmed alerts. It retries internally and reports
// delivery failure with false rather than an error.
type Notifier interface {
	SendAlert(event *model.AlertEvent) bool
}

// Recorder persists confirmed alerts.
type Recorder interface {
	RecordAlert(event *model.AlertEvent) error
}

// Config holds the verification parameters.
type Config struct {
	Workers       int
	QueueSize     int
	RSIPeriod     int
	Overbought    float64
	Oversold      float64
	MinCandles    int
	LongInterval  string
	ShortInterval string
}

// Stats is a snapshot of verification counters.
type Stats struct {
	Enqueued    int64
	Dropped     int64
	Verified    int64
	Alerts      int64
	Failures    int64
	AvgDuration time.Duration
	P95Duration time.Duration
}

// Verifier owns the bounded verification queue and the worker pool that
// confirms candidate price moves against RSI on two timeframes. The longer
// timeframe is checked first; the second fetch is only spent when the first
// already looks extreme.
type Verifier struct {
	cfg      Config
	cache    *collector.CandleCache
	fetcher  collector.Fetcher
	limiter  *ratelimit.Limiter
	cooldown *analyzer.CooldownTracker
	store    *buffer.Store
	notifier Notifier
	recorder Recorder

	queue chan model.VerificationTask

	enqueued int64
	dropped  int64
	verified int64
	alerts   int64
	failures int64

	durMu     sync.Mutex
	durations []time.Duration
}

// New creates a Verifier. The recorder may be nil when alert persistence is
// disabled.
func New(cfg Config, cache *collector.CandleCache, fetcher collector.Fetcher, limiter *ratelimit.Limiter,
	cooldown *analyzer.CooldownTracker, store *buffer.Store, notifier Notifier, recorder Recorder) *Verifier {
	return &Verifier{
		cfg:      cfg,
		cache:    cache,
		fetcher:  fetcher,
		limiter:  limiter,
		cooldown: cooldown,
		store:    store,
		notifier: notifier,
		recorder: recorder,
		queue:    make(chan model.VerificationTask, cfg.QueueSize),
	}
}

// Enqueue offers a candidate for verification. Symbols in cooldown are
// rejected before queueing so high tick volume cannot grow the queue with
// work that would be discarded anyway; a full queue drops the task.
func (v *Verifier) Enqueue(task model.VerificationTask) bool {
	if !v.cooldown.Eligible(task.Symbol) {
		return false
	}
	select {
	case v.queue <- task:
		atomic.AddInt64(&v.enqueued, 1)
		return true
	default:
		atomic.AddInt64(&v.dropped, 1)
		log.Printf("[WARN] verification queue full, dropping %s", task.Symbol)
		return false
	}
}

// Run starts the worker pool and blocks until ctx is cancelled and all
// workers have finished their current task.
func (v *Verifier) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 1; i <= v.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			v.worker(ctx, id)
		}(i)
	}
	wg.Wait()
	log.Println("[INFO] all verification workers stopped")
}

func (v *Verifier) worker(ctx context.Context, id int) {
	log.Printf("[INFO] verification worker #%d started", id)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] verification worker #%d stopped", id)
			return
		case task := <-v.queue:
			start := time.Now()
			v.process(ctx, task)
			elapsed := time.Since(start)
			v.recordDuration(elapsed)
			if elapsed > 3*time.Second {
				log.Printf("[WARN] worker #%d: slow verification for %s: %v", id, task.Symbol, elapsed)
			}
		}
	}
}

// process runs one verification end to end. Any fetch failure aborts the
// task without an alert and without touching the cooldown; the symbol stays
// eligible for future candidates.
func (v *Verifier) process(ctx context.Context, task model.VerificationTask) {
	atomic.AddInt64(&v.verified, 1)

	// A task may have aged into cooldown while queued.
	if !v.cooldown.Eligible(task.Symbol) {
		return
	}

	rsiLong, ok := v.fetchRSI(ctx, task.Symbol, v.cfg.LongInterval)
	if !ok {
		return
	}
	if !v.isExtreme(rsiLong) {
		// Neutral on the longer timeframe: skip the second, more expensive
		// confirmation fetch entirely.
		return
	}

	rsiShort, ok := v.fetchRSI(ctx, task.Symbol, v.cfg.ShortInterval)
	if !ok {
		return
	}
	if !v.isExtreme(rsiShort) {
		return
	}

	event := &model.AlertEvent{
		Symbol:        task.Symbol,
		ChangePercent: task.ChangePercent,
		Price:         v.store.LatestPrice(task.Symbol),
		RSILong:       rsiLong,
		RSIShort:      rsiShort,
		DetectedAt:    time.Now(),
	}

	// 24h context is best effort; the alert goes out without it on failure.
	if err := v.limiter.Wait(ctx); err == nil {
		if stats, err := v.fetcher.FetchTicker(ctx, task.Symbol); err == nil {
			event.Stats = stats
		} else {
			log.Printf("[WARN] ticker stats for %s: %v", task.Symbol, err)
		}
	}

	v.cooldown.MarkAlerted(task.Symbol)
	atomic.AddInt64(&v.alerts, 1)
	log.Printf("[INFO] ALERT %s: %.2f%% move, RSI %s=%.1f %s=%.1f",
		task.Symbol, task.ChangePercent, v.cfg.LongInterval, rsiLong, v.cfg.ShortInterval, rsiShort)

	if !v.notifier.SendAlert(event) {
		log.Printf("[WARN] alert delivery failed for %s", task.Symbol)
	}
	if v.recorder != nil {
		if err := v.recorder.RecordAlert(event); err != nil {
			log.Printf("[WARN] record alert %s: %v", task.Symbol, err)
		}
	}
}

// fetchRSI fetches candles for one timeframe through the cache and computes
// the latest RSI. ok is false when data is missing or insufficient.
func (v *Verifier) fetchRSI(ctx context.Context, symbol, interval string) (float64, bool) {
	bars, err := v.cache.Get(ctx, symbol, interval)
	if err != nil {
		atomic.AddInt64(&v.failures, 1)
		if ctx.Err() == nil {
			log.Printf("[WARN] no %s data for %s: %v", interval, symbol, err)
		}
		return 0, false
	}
	closes := model.Closes(bars)
	if len(closes) < v.cfg.MinCandles || len(closes) < v.cfg.RSIPeriod+1 {
		return 0, false
	}
	return calculator.LastRSI(closes, v.cfg.RSIPeriod), true
}

func (v *Verifier) isExtreme(rsi float64) bool {
	return rsi > v.cfg.Overbought || rsi < v.cfg.Oversold
}

func (v *Verifier) recordDuration(d time.Duration) {
	v.durMu.Lock()
	defer v.durMu.Unlock()
	v.durations = append(v.durations, d)
	if len(v.durations) > 10000 {
		v.durations = append(v.durations[:0], v.durations[5000:]...)
	}
}

// Stats returns a snapshot of the verification counters and timing.
func (v *Verifier) Stats() Stats {
	s := Stats{
		Enqueued: atomic.LoadInt64(&v.enqueued),
		Dropped:  atomic.LoadInt64(&v.dropped),
		Verified: atomic.LoadInt64(&v.verified),
		Alerts:   atomic.LoadInt64(&v.alerts),
		Failures: atomic.LoadInt64(&v.failures),
	}

	v.durMu.Lock()
	defer v.durMu.Unlock()
	if len(v.durations) == 0 {
		return s
	}
	sorted := append([]time.Duration(nil), v.durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	s.AvgDuration = total / time.Duration(len(sorted))
	s.P95Duration = sorted[len(sorted)*95/100]
	return s
}
