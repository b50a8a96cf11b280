package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/corey/ramdisk/internal/app"
	"github.com/corey/ramdisk/internal/ports"
	"github.com/opencontainers/go-digest"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// palette hands out color codes, or empty strings when color is off.
type palette bool

func (p palette) c(code string) string {
	if p {
		return code
	}
	return ""
}

// shortDigest trims a digest to algorithm plus 12 hex characters.
func shortDigest(d digest.Digest) string {
	if d == "" {
		return "-"
	}
	enc := d.Encoded()
	if len(enc) > 12 {
		enc = enc[:12]
	}
	return d.Algorithm().String() + ":" + enc
}

// formatResult renders one generation on a single line.
//
//	⚡ /abs/out.S │ 2 files │ 4 bytes │ sha256:0123456789ab │ 3ms
func formatResult(res *app.Result, color bool) string {
	p := palette(color)
	return fmt.Sprintf("%s⚡ %s%s │ %d files │ %d bytes │ %s │ %s",
		p.c(colorBold), res.Output, p.c(colorReset),
		res.Image.Count(), res.Image.TotalSize(),
		shortDigest(res.Digest), res.Elapsed.Round(time.Microsecond))
}

// formatBuild renders a stored build with its table rows.
func formatBuild(b *ports.Build, color bool) string {
	p := palette(color)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s⚡ build #%d%s  %s\n", p.c(colorBold), b.Seq, p.c(colorReset), b.Output)
	fmt.Fprintf(&sb, "  Root:       %s\n", b.Root)
	fmt.Fprintf(&sb, "  Generated:  %s\n", formatTime(b.GeneratedAt))
	fmt.Fprintf(&sb, "  Order:      %s\n", b.Order)
	fmt.Fprintf(&sb, "  Escape:     %s\n", b.Escape)
	fmt.Fprintf(&sb, "  Word:       %s\n", b.Word)
	fmt.Fprintf(&sb, "  Files:      %d (%d bytes)\n", b.FileCount, b.TotalSize)
	fmt.Fprintf(&sb, "  Digest:     %s\n", b.OutputDigest)
	for _, e := range b.Entries {
		fmt.Fprintf(&sb, "  %s[%d]%s %s%s%s  %d  %s%s%s\n",
			p.c(colorGray), e.Index, p.c(colorReset),
			p.c(colorCyan), e.Path, p.c(colorReset),
			e.Size,
			p.c(colorGray), shortDigest(e.Digest), p.c(colorReset))
	}
	return sb.String()
}

// formatHistory renders one line per build, newest first.
func formatHistory(output string, builds []*ports.Build, color bool) string {
	p := palette(color)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s⚡ %d builds%s │ %s\n", p.c(colorBold), len(builds), p.c(colorReset), output)
	for _, b := range builds {
		fmt.Fprintf(&sb, "  #%-4d %s  %d files  %d bytes  %s\n",
			b.Seq, formatTime(b.GeneratedAt), b.FileCount, b.TotalSize, shortDigest(b.OutputDigest))
	}
	return sb.String()
}

// formatDiff renders the change between two builds. prev may be nil.
func formatDiff(prev, next *ports.Build, d app.BuildDiff, color bool) string {
	p := palette(color)
	var sb strings.Builder

	from := "(none)"
	if prev != nil {
		from = fmt.Sprintf("#%d", prev.Seq)
	}
	if d.Empty() {
		fmt.Fprintf(&sb, "%s⚡ no changes%s │ %s → #%d\n", p.c(colorBold), p.c(colorReset), from, next.Seq)
		return sb.String()
	}

	fmt.Fprintf(&sb, "%s⚡ %d added, %d removed, %d changed, %d reindexed%s │ %s → #%d\n",
		p.c(colorBold), len(d.Added), len(d.Removed), len(d.Changed), len(d.Reindexed), p.c(colorReset),
		from, next.Seq)
	for _, path := range d.Added {
		fmt.Fprintf(&sb, "  %s+ %s%s\n", p.c(colorGreen), path, p.c(colorReset))
	}
	for _, path := range d.Removed {
		fmt.Fprintf(&sb, "  %s- %s%s\n", p.c(colorRed), path, p.c(colorReset))
	}
	for _, path := range d.Changed {
		fmt.Fprintf(&sb, "  %s~ %s%s\n", p.c(colorYellow), path, p.c(colorReset))
	}
	for _, path := range d.Reindexed {
		fmt.Fprintf(&sb, "  %s> %s%s\n", p.c(colorGray), path, p.c(colorReset))
	}
	return sb.String()
}

func formatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}
