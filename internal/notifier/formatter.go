package notifier

import (
	"fmt"
	"strings"
	"time"

	"PumpSentinel/internal/config"
	"PumpSentinel/internal/model"
)

// AlertFormatter renders alert events into Telegram HTML messages. Interval
// labels come from configuration so the message matches whatever timeframes
// verification actually used.
type AlertFormatter struct {
	LongInterval  string
	ShortInterval string
}

// Format renders a confirmed alert.
func (f AlertFormatter) Format(event *model.AlertEvent) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("#%s  <b>%s</b>\n\n", event.Symbol, event.Symbol))

	marker := "🟩"
	if event.ChangePercent < 0 {
		marker = "🟥"
	}
	b.WriteString(fmt.Sprintf("%s <b>%+.2f%%</b>\n", marker, event.ChangePercent))

	if event.Stats != nil && event.Stats.OpenPrice > 0 {
		b.WriteString(fmt.Sprintf("%.6f → %.6f USDT\n\n", event.Stats.OpenPrice, event.Stats.LastPrice))
	} else if event.Price > 0 {
		b.WriteString(fmt.Sprintf("Price: %.6f USDT\n\n", event.Price))
	} else {
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("RSI %s: <b>%.2f</b>\n", f.LongInterval, event.RSILong))
	b.WriteString(fmt.Sprintf("RSI %s: <b>%.2f</b>\n", f.ShortInterval, event.RSIShort))

	if event.Stats != nil {
		b.WriteString(fmt.Sprintf("Volume 24h: <b>%.2fM</b>\n", event.Stats.QuoteVolume24h/1_000_000))
		b.WriteString(fmt.Sprintf("Change 24h: <b>%+.2f%%</b>", event.Stats.ChangePercent24h))
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatStartup renders the startup announcement with the active filters.
func FormatStartup(cfg *config.Config, symbolCount int) string {
	var b strings.Builder
	b.WriteString("✅ <b>PumpSentinel started</b>\n\n")
	b.WriteString(fmt.Sprintf("📊 Monitoring %d pairs\n", symbolCount))
	b.WriteString("🔍 Filters:\n")
	b.WriteString(fmt.Sprintf("  • Price: ±%.1f%% over %d min\n", cfg.Filter.PriceChangeThreshold, cfg.Filter.PriceWindowMinutes))
	b.WriteString(fmt.Sprintf("  • RSI %s: &gt;%.0f or &lt;%.0f (primary)\n", cfg.Verify.LongInterval, cfg.Filter.RSIOverbought, cfg.Filter.RSIOversold))
	b.WriteString(fmt.Sprintf("  • RSI %s: &gt;%.0f or &lt;%.0f (confirmation)\n", cfg.Verify.ShortInterval, cfg.Filter.RSIOverbought, cfg.Filter.RSIOversold))
	b.WriteString(fmt.Sprintf("  • Cooldown: %d sec\n\n", cfg.Verify.CooldownSeconds))
	b.WriteString(fmt.Sprintf("🌐 Source: WebSocket + REST (workers=%d)", cfg.Verify.WorkerCount))
	return b.String()
}

// FormatShutdown renders the shutdown summary.
func FormatShutdown(uptime time.Duration, alerts, ticks, errors int64) string {
	var b strings.Builder
	b.WriteString("🛑 <b>PumpSentinel stopped</b>\n\n")
	b.WriteString(fmt.Sprintf("⏱ Uptime: %.1fh\n", uptime.Hours()))
	b.WriteString(fmt.Sprintf("📊 Alerts sent: %d\n", alerts))
	b.WriteString(fmt.Sprintf("📈 Ticks processed: %d\n", ticks))
	b.WriteString(fmt.Sprintf("⚠️ Errors: %d", errors))
	return b.String()
}
