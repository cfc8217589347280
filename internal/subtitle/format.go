package subtitle

import (
	"fmt"
	"strings"

	"github.com/web-transcriber/backend/internal/asr"
)

// TimestampSRT renders seconds as "HH:MM:SS,mmm". Milliseconds are
// truncated, not rounded.
func TimestampSRT(seconds float64) string {
	h, m, s, ms := splitTimestamp(seconds)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// TimestampVTT renders seconds as "HH:MM:SS.mmm".
func TimestampVTT(seconds float64) string {
	h, m, s, ms := splitTimestamp(seconds)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func splitTimestamp(seconds float64) (h, m, s, ms int) {
	total := int(seconds)
	ms = int((seconds - float64(total)) * 1000)
	h = total / 3600
	m = (total % 3600) / 60
	s = total % 60
	return h, m, s, ms
}

// NormalizeNewlines converts CRLF and lone CR to LF, then turns literal
// two-character "\n" escapes into real line feeds. Idempotent.
func NormalizeNewlines(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, `\n`, "\n")
	return text
}

// srtCaption collapses a caption body to one physical line; multi-line
// captions break strict SRT consumers.
func srtCaption(text string) string {
	var parts []string
	for _, line := range strings.Split(NormalizeNewlines(text), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

// ToSRT renders segments as a SubRip document.
func ToSRT(segments []asr.Segment) string {
	var sb strings.Builder
	for i, seg := range segments {
		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n", TimestampSRT(seg.Start), TimestampSRT(seg.End)))
		sb.WriteString(srtCaption(seg.Text))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// ToVTT renders segments as a WebVTT document. Normalized line breaks
// inside a caption are preserved.
func ToVTT(segments []asr.Segment) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for _, seg := range segments {
		sb.WriteString(fmt.Sprintf("%s --> %s\n", TimestampVTT(seg.Start), TimestampVTT(seg.End)))
		sb.WriteString(strings.TrimSpace(NormalizeNewlines(seg.Text)))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// ToText renders one trimmed, non-empty line per segment, joined by LF.
func ToText(segments []asr.Segment) string {
	var lines []string
	for _, seg := range segments {
		if line := strings.TrimSpace(NormalizeNewlines(seg.Text)); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
