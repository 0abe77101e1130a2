package monitor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"PumpSentinel/internal/analyzer"
	"PumpSentinel/internal/buffer"
	"PumpSentinel/internal/config"
	"PumpSentinel/internal/model"
	"PumpSentinel/internal/notifier"
	"PumpSentinel/internal/recorder"
	"PumpSentinel/internal/stream"
	"PumpSentinel/internal/verifier"
)

// Monitor wires the tick stream, candidate filter, verification pool and
// periodic tasks together and owns their lifecycle.
type Monitor struct {
	cfg      *config.Config
	store    *buffer.Store
	filter   *analyzer.Filter
	cooldown *analyzer.CooldownTracker
	verifier *verifier.Verifier
	stream   *stream.Manager
	notifier *notifier.TelegramNotifier
	recorder recorder.Recorder
	cron     *cron.Cron
	symbols  []string

	startAt  time.Time
	ticks    int64
	stopOnce sync.Once
}

// New creates the monitor and its stream manager for the given symbol list.
func New(cfg *config.Config, symbols []string, store *buffer.Store, filter *analyzer.Filter,
	cooldown *analyzer.CooldownTracker, vrf *verifier.Verifier, tn *notifier.TelegramNotifier,
	rec recorder.Recorder) *Monitor {
	m := &Monitor{
		cfg:      cfg,
		store:    store,
		filter:   filter,
		cooldown: cooldown,
		verifier: vrf,
		notifier: tn,
		recorder: rec,
		cron:     cron.New(),
		symbols:  symbols,
	}
	m.stream = stream.NewManager(stream.Options{
		URL:           cfg.Mexc.WSURL,
		ChunkSize:     cfg.Stream.ChunkSize,
		ReconnectBase: time.Duration(cfg.Stream.ReconnectBaseSeconds) * time.Second,
		ReconnectMax:  time.Duration(cfg.Stream.ReconnectMaxSeconds) * time.Second,
		PingInterval:  time.Duration(cfg.Stream.PingIntervalSeconds) * time.Second,
		PingTimeout:   time.Duration(cfg.Stream.PingTimeoutSeconds) * time.Second,
	}, symbols, m.OnTick)
	return m
}

// OnTick is the hot path: every streamed price update lands here. It buffers
// the tick, evaluates the cheap price filter, and enqueues a verification
// task when the move clears the threshold.
func (m *Monitor) OnTick(tick model.Tick) {
	atomic.AddInt64(&m.ticks, 1)
	m.store.Append(tick)

	triggered, change := m.filter.Evaluate(tick.Symbol)
	if !triggered {
		return
	}
	m.verifier.Enqueue(model.VerificationTask{
		Symbol:        tick.Symbol,
		ChangePercent: change,
		EnqueuedAt:    time.Now(),
	})
}

// rescan sweeps every buffered symbol through the price filter. The stream
// path already checks on each tick; this catches symbols whose trigger tick
// arrived while their chunk connection was down.
func (m *Monitor) rescan() {
	enqueued := 0
	for _, symbol := range m.store.Symbols() {
		triggered, change := m.filter.Evaluate(symbol)
		if !triggered {
			continue
		}
		if m.verifier.Enqueue(model.VerificationTask{
			Symbol:        symbol,
			ChangePercent: change,
			EnqueuedAt:    time.Now(),
		}) {
			enqueued++
		}
	}
	if enqueued > 0 {
		log.Printf("[INFO] rescan enqueued %d candidates", enqueued)
	}
}

func (m *Monitor) logStats() {
	uptime := time.Since(m.startAt)
	ticks := atomic.LoadInt64(&m.ticks)
	rate := 0.0
	if uptime > 0 {
		rate = float64(ticks) / uptime.Seconds()
	}
	vs := m.verifier.Stats()
	sm := m.stream.Metrics()

	log.Printf("[INFO] stats: uptime=%.1fm ticks=%d (%.1f/s) enqueued=%d dropped=%d alerts=%d failures=%d "+
		"buffered=%d conns=%d reconnects=%d verify avg=%v p95=%v",
		uptime.Minutes(), ticks, rate, vs.Enqueued, vs.Dropped, vs.Alerts, vs.Failures,
		m.store.Len(), sm.Connections, sm.Reconnects, vs.AvgDuration.Round(time.Millisecond), vs.P95Duration.Round(time.Millisecond))
}

// Run starts all components and blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.startAt = time.Now()
	log.Printf("[INFO] monitoring %d pairs", len(m.symbols))

	if m.notifier != nil {
		if err := m.notifier.SendWithRetry(ctx, notifier.FormatStartup(m.cfg, len(m.symbols)), 3); err != nil {
			log.Printf("[WARN] startup notification: %v", err)
		}
	}

	rescanSpec := fmt.Sprintf("@every %ds", m.cfg.Monitor.RescanIntervalSeconds)
	if _, err := m.cron.AddFunc(rescanSpec, m.rescan); err != nil {
		return fmt.Errorf("register rescan task: %w", err)
	}
	statsSpec := fmt.Sprintf("@every %ds", m.cfg.Monitor.StatsIntervalSeconds)
	if _, err := m.cron.AddFunc(statsSpec, m.logStats); err != nil {
		return fmt.Errorf("register stats task: %w", err)
	}
	m.cron.Start()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.verifier.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		m.stream.Run(ctx)
	}()

	if m.notifier != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.notifier.StartPolling(ctx, m.HandleCommand)
		}()
	}

	<-ctx.Done()
	wg.Wait()
	m.Stop()
	return nil
}

// Stop shuts down the periodic tasks and sends the shutdown summary. Safe to
// call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		log.Println("[INFO] stopping monitor")
		m.cron.Stop()

		if m.notifier != nil {
			vs := m.verifier.Stats()
			sm := m.stream.Metrics()
			msg := notifier.FormatShutdown(time.Since(m.startAt),
				vs.Alerts, atomic.LoadInt64(&m.ticks), vs.Failures+sm.ParseErrors)
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := m.notifier.SendWithRetry(ctx, msg, 2); err != nil {
				log.Printf("[WARN] shutdown notification: %v", err)
			}
		}
		log.Println("[INFO] monitor stopped")
	})
}

// HandleCommand answers Telegram chat commands.
func (m *Monitor) HandleCommand(command string) string {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "/status":
		return m.statusReply()
	case "/stats":
		return m.statsReply()
	case "/history":
		return m.historyReply()
	case "/help":
		return "Commands:\n" +
			"/status — filters and uptime\n" +
			"/stats — tick and verification counters\n" +
			"/history — recent alerts\n" +
			"/help — this message"
	default:
		return ""
	}
}

func (m *Monitor) statusReply() string {
	var b strings.Builder
	b.WriteString("📡 <b>Status</b>\n\n")
	b.WriteString(fmt.Sprintf("Uptime: %.1fh\n", time.Since(m.startAt).Hours()))
	b.WriteString(fmt.Sprintf("Pairs monitored: %d\n", len(m.symbols)))
	b.WriteString(fmt.Sprintf("Pairs with live prices: %d\n", m.store.Len()))
	b.WriteString(fmt.Sprintf("Active cooldowns: %d\n\n", m.cooldown.AlertedCount()))
	b.WriteString(fmt.Sprintf("Threshold: ±%.1f%% / %d min\n", m.cfg.Filter.PriceChangeThreshold, m.cfg.Filter.PriceWindowMinutes))
	b.WriteString(fmt.Sprintf("RSI: &gt;%.0f or &lt;%.0f (%s → %s)",
		m.cfg.Filter.RSIOverbought, m.cfg.Filter.RSIOversold, m.cfg.Verify.LongInterval, m.cfg.Verify.ShortInterval))
	return b.String()
}

func (m *Monitor) statsReply() string {
	vs := m.verifier.Stats()
	sm := m.stream.Metrics()
	ticks := atomic.LoadInt64(&m.ticks)

	var b strings.Builder
	b.WriteString("📊 <b>Stats</b>\n\n")
	b.WriteString(fmt.Sprintf("Ticks: %d\n", ticks))
	b.WriteString(fmt.Sprintf("Candidates queued: %d (dropped %d)\n", vs.Enqueued, vs.Dropped))
	b.WriteString(fmt.Sprintf("Verified: %d\n", vs.Verified))
	b.WriteString(fmt.Sprintf("Alerts: %d\n", vs.Alerts))
	b.WriteString(fmt.Sprintf("Fetch failures: %d\n", vs.Failures))
	b.WriteString(fmt.Sprintf("Connections: %d (reconnects %d)\n", sm.Connections, sm.Reconnects))
	b.WriteString(fmt.Sprintf("Verify time: avg %v, p95 %v",
		vs.AvgDuration.Round(time.Millisecond), vs.P95Duration.Round(time.Millisecond)))
	return b.String()
}

func (m *Monitor) historyReply() string {
	if m.recorder == nil {
		return "History is not enabled."
	}
	rows, err := m.recorder.RecentAlerts(10)
	if err != nil {
		log.Printf("[ERROR] read alert history: %v", err)
		return "Failed to read alert history."
	}
	if len(rows) == 0 {
		return "No alerts recorded yet."
	}

	var b strings.Builder
	b.WriteString("🕐 <b>Recent alerts</b>\n\n")
	for _, row := range rows {
		ts := time.Unix(row.Timestamp, 0).Format("01-02 15:04")
		b.WriteString(fmt.Sprintf("%s  %s  %+.2f%%  (RSI %.0f/%.0f)\n",
			ts, row.Symbol, row.ChangePercent, row.RSILong, row.RSIShort))
	}
	return strings.TrimRight(b.String(), "\n")
}
