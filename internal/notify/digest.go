// Package notify formats scan results into a digest and dispatches it to
// Telegram.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/Can0Ngu1/bot-web/internal/model"
)

const (
	// maxDetailed is how many records a digest renders in full; the rest
	// collapse into a single "...and N more" line.
	maxDetailed = 5

	// maxTitleRunes bounds rendered titles. Counted in runes — titles are
	// Vietnamese and byte-slicing would split a character.
	maxTitleRunes = 120

	timestampLayout = "15:04:05 - 02/01/2006"
)

// Digest builds the Telegram-markdown message for one cycle's new records.
// An empty batch produces the informational heartbeat line rather than
// nothing, so the channel shows the watcher is alive.
func Digest(records []model.BidRecord, now time.Time) string {
	if len(records) == 0 {
		return "ℹ️ No new bid announcements in this scan."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📢 *%d NEW BID ANNOUNCEMENT(S)*\n\n", len(records))

	detailed := records
	if len(detailed) > maxDetailed {
		detailed = detailed[:maxDetailed]
	}
	for i, r := range detailed {
		fmt.Fprintf(&b, "*%d. 🆔 %s*\n", i+1, r.Code)
		fmt.Fprintf(&b, "📦 *%s*\n", truncateTitle(r.Title))
		fmt.Fprintf(&b, "🏢 *Inviting party:* %s\n", r.Org)
		fmt.Fprintf(&b, "📅 *Posted:* %s\n", r.PostDate)
		fmt.Fprintf(&b, "⏰ *Closes:* %s\n", r.CloseDate)
		if r.Link != "" {
			fmt.Fprintf(&b, "🔗 [Details](%s)\n", r.Link)
		}
		b.WriteString("\n" + strings.Repeat("─", 40) + "\n\n")
	}

	if extra := len(records) - maxDetailed; extra > 0 {
		fmt.Fprintf(&b, "📋 _...and %d more_\n\n", extra)
	}

	fmt.Fprintf(&b, "🕐 _Updated at: %s_", now.Format(timestampLayout))
	return b.String()
}

// truncateTitle cuts titles longer than maxTitleRunes and appends the
// ellipsis marker. A title of exactly maxTitleRunes is left alone.
func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleRunes {
		return title
	}
	return string(runes[:maxTitleRunes]) + "..."
}
