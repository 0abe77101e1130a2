package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"PumpSentinel/internal/analyzer"
	"PumpSentinel/internal/buffer"
	"PumpSentinel/internal/collector"
	"PumpSentinel/internal/config"
	"PumpSentinel/internal/monitor"
	"PumpSentinel/internal/notifier"
	"PumpSentinel/internal/ratelimit"
	"PumpSentinel/internal/recorder"
	"PumpSentinel/internal/verifier"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] PumpSentinel starting...")

	// A .env file is optional; environment variables win over YAML either way.
	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded .env")
	}

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	fetcher := collector.NewMexcFetcher(cfg.Mexc.BaseURL, time.Duration(cfg.Mexc.TimeoutSeconds)*time.Second)
	log.Printf("[INFO] data source: %s", fetcher.Name())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	symbols, err := collector.LoadSymbols(ctx, fetcher, cfg.Symbols.File, cfg.Symbols.Whitelist, cfg.Symbols.Blacklist)
	if err != nil {
		log.Fatalf("[FATAL] load symbols: %v", err)
	}
	if len(symbols) == 0 {
		log.Fatal("[FATAL] no symbols to monitor")
	}
	log.Printf("[INFO] loaded %d USDT pairs", len(symbols))

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, notifier.AlertFormatter{
		LongInterval:  cfg.Verify.LongInterval,
		ShortInterval: cfg.Verify.ShortInterval,
	})

	store := buffer.NewStore(cfg.BufferMaxAge())
	filter := analyzer.NewFilter(store, cfg.Filter.PriceChangeThreshold, cfg.PriceWindow())
	cooldown := analyzer.NewCooldownTracker(cfg.Cooldown())
	limiter := ratelimit.NewLimiter(cfg.Verify.RequestsPerSecond)
	cache := collector.NewCandleCache(fetcher, limiter, cfg.CacheTTL(), cfg.Verify.KlineLimit)

	vrf := verifier.New(verifier.Config{
		Workers:       cfg.Verify.WorkerCount,
		QueueSize:     cfg.Verify.QueueSize,
		RSIPeriod:     cfg.Filter.RSIPeriod,
		Overbought:    cfg.Filter.RSIOverbought,
		Oversold:      cfg.Filter.RSIOversold,
		MinCandles:    cfg.Filter.MinCandles,
		LongInterval:  cfg.Verify.LongInterval,
		ShortInterval: cfg.Verify.ShortInterval,
	}, cache, fetcher, limiter, cooldown, store, tn, rec)

	mon := monitor.New(cfg, symbols, store, filter, cooldown, vrf, tn, rec)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("[INFO] received %s, shutting down...", sig)
		cancel()
	}()

	log.Println("[INFO] PumpSentinel is running. Press Ctrl+C to stop.")
	if err := mon.Run(ctx); err != nil {
		log.Fatalf("[FATAL] monitor: %v", err)
	}
	log.Println("[INFO] PumpSentinel stopped")
}
