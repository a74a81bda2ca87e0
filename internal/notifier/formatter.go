package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"SignalScanner/internal/model"
	"SignalScanner/internal/strategy"
)

// maxNeutralListed caps the NEUTRAL symbol list in a report message.
const maxNeutralListed = 30

// FormatReport renders a scan report as a Telegram HTML message.
func FormatReport(r *model.Report) string {
	var b strings.Builder
	c := r.Counts()

	b.WriteString(fmt.Sprintf("📡 <b>SignalScanner</b> | %s | %s UTC\n",
		html.EscapeString(r.Timeframe), r.FinishedAt.UTC().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Universe: %d | 🟢 %d | 🔴 %d | ⚪ %d | ⏭ %d\n",
		r.Universe, c.Long, c.Short, c.Neutral, c.Skipped))
	if r.Partial {
		b.WriteString("⚠️ Partial report: scan was canceled\n")
	}

	writeGroup(&b, "🟢 <b>LONG</b>", r.Long)
	writeGroup(&b, "🔴 <b>SHORT</b>", r.Short)
	if c.Long == 0 && c.Short == 0 {
		b.WriteString("\nNo LONG or SHORT signals this pass.\n")
	}

	if len(r.Neutral) > 0 {
		names := make([]string, 0, len(r.Neutral))
		for i, res := range r.Neutral {
			if i == maxNeutralListed {
				names = append(names, fmt.Sprintf("+%d more", len(r.Neutral)-maxNeutralListed))
				break
			}
			names = append(names, html.EscapeString(res.Symbol))
		}
		b.WriteString(fmt.Sprintf("\n⚪ <b>NEUTRAL</b> (%d): %s\n", len(r.Neutral), strings.Join(names, ", ")))
	}

	if near := nearMisses(r.Neutral); len(near) > 0 {
		b.WriteString("\n🟡 <b>Near misses</b>\n")
		for _, line := range near {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if len(r.Skipped) > 0 {
		b.WriteString(fmt.Sprintf("\n⏭ Skipped: %s\n", skipSummary(r.Skipped)))
	}
	return b.String()
}

func writeGroup(b *strings.Builder, title string, results []model.ScanResult) {
	if len(results) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("\n%s (%d)\n", title, len(results)))
	for _, res := range results {
		b.WriteString(FormatResult(res))
		b.WriteString("\n")
	}
}

// FormatResult renders one classified instrument on a single line.
func FormatResult(res model.ScanResult) string {
	s := res.Snapshot
	return fmt.Sprintf("<b>%s</b> %s | range %s-%s | RSI %s | EMA %s/%s | MACD %s/%s | SAR %s",
		html.EscapeString(res.Symbol),
		price(res.Price),
		price(res.PriorLow), price(res.PriorHigh),
		value(s.RSI, 1),
		pricePtr(s.EMAShort), pricePtr(s.EMALong),
		value(s.MACD, 4), value(s.MACDSignal, 4),
		pricePtr(s.SAR),
	)
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "Available commands:\n" +
		"• /scan - run a scan now and post the report\n" +
		"• /help - show this message"
}

// nearMisses lists neutral instruments that satisfy all but one clause of a side.
func nearMisses(neutral []model.ScanResult) []string {
	var out []string
	for _, res := range neutral {
		d := strategy.Evaluate(res.Snapshot, res.Price)
		if len(d.Conditions) == 0 {
			continue
		}
		var missLong, missShort []string
		for _, c := range d.Conditions {
			if !c.Long {
				missLong = append(missLong, c.Name)
			}
			if !c.Short {
				missShort = append(missShort, c.Name)
			}
		}
		switch {
		case len(missLong) == 1:
			out = append(out, fmt.Sprintf("%s near LONG (missing %s)", html.EscapeString(res.Symbol), missLong[0]))
		case len(missShort) == 1:
			out = append(out, fmt.Sprintf("%s near SHORT (missing %s)", html.EscapeString(res.Symbol), missShort[0]))
		}
	}
	return out
}

func skipSummary(skipped []model.Skipped) string {
	byReason := make(map[model.SkipReason]int)
	for _, s := range skipped {
		byReason[s.Reason]++
	}
	reasons := make([]string, 0, len(byReason))
	for reason := range byReason {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	parts := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		parts = append(parts, fmt.Sprintf("%s %d", reason, byReason[model.SkipReason(reason)]))
	}
	return strings.Join(parts, ", ")
}

func price(v float64) string {
	return decimal.NewFromFloat(v).Round(8).String()
}

func pricePtr(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return decimal.NewFromFloat(*v).Round(6).String()
}

func value(v *float64, places int32) string {
	if v == nil {
		return "n/a"
	}
	return decimal.NewFromFloat(*v).StringFixed(places)
}
