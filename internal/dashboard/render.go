package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dustin/go-humanize"

	"github.com/NamanBalaji/lj/internal/job"
	"github.com/NamanBalaji/lj/internal/tui/styles"
)

const barWidth = 40

func newBar() progress.Model {
	return progress.New(
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
		progress.WithSolidFill(styles.BarColor),
	)
}

// Render lists downloads with their 1-based display positions.
func Render(downloads []*job.Download) string {
	if len(downloads) == 0 {
		return styles.Dim.Render("No downloads") + "\n"
	}

	bar := newBar()
	var b strings.Builder
	b.WriteString(styles.Bold.Render("Downloads:"))
	b.WriteString("\n\n")

	for i, dl := range downloads {
		fmt.Fprintf(&b, "%s %s %s\n",
			styles.Dim.Render(fmt.Sprintf("[%d]", i+1)),
			dl.Filename,
			styles.Dim.Render("("+sizeText(dl.TotalBytes)+")"))
		fmt.Fprintf(&b, "    %s %s\n", StatusText(dl), styles.Dim.Render("-> "+dl.TargetDir))

		if dl.Status.Kind == job.Downloading && dl.TotalBytes > 0 {
			fmt.Fprintf(&b, "    %s\n", bar.ViewAs(dl.Fraction()))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// StatusText is the one-line status of a download.
func StatusText(dl *job.Download) string {
	switch dl.Status.Kind {
	case job.Pending:
		return styles.StatusPending.Render("PENDING")
	case job.Downloading:
		return fmt.Sprintf("%s %d%% @ %s",
			styles.StatusDownloading.Render("DOWNLOADING"),
			int(dl.Fraction()*100),
			humanize.Bytes(uint64(dl.Speed))+"/s")
	case job.Completed:
		return styles.StatusCompleted.Render("COMPLETED")
	case job.Failed:
		return styles.StatusFailed.Render("FAILED") + " " + dl.Status.Reason
	case job.Cancelled:
		return styles.StatusCancelled.Render("CANCELLED")
	default:
		return dl.Status.String()
	}
}

func sizeText(n uint64) string {
	if n == 0 {
		return "unknown size"
	}
	return humanize.Bytes(n)
}

func actionsHelp() string {
	return styles.Bold.Render("Actions:") + "\n" +
		"  c<n>  - Cancel download #n\n" +
		"  r<n>  - Remove download #n\n" +
		"  l<n>  - Show events of download #n\n" +
		"  C     - Clear all completed/failed/cancelled\n" +
		"  q     - Quit\n\n"
}
