package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/web-transcriber/backend/internal/asr"
)

func TestTimestampSRT(t *testing.T) {
	assert.Equal(t, "00:00:00,000", TimestampSRT(0.0))
	assert.Equal(t, "00:00:01,500", TimestampSRT(1.5))
	// Milliseconds are truncated, never rounded.
	assert.Equal(t, "01:01:01,234", TimestampSRT(3661.2349))
	assert.Equal(t, "00:00:00,999", TimestampSRT(0.9999))
}

func TestTimestampVTT(t *testing.T) {
	assert.Equal(t, "00:00:00.000", TimestampVTT(0.0))
	assert.Equal(t, "01:01:01.234", TimestampVTT(3661.2349))
}

func TestNormalizeNewlines(t *testing.T) {
	assert.Equal(t, "a\nb\nc", NormalizeNewlines("a\r\nb\rc"))
	assert.Equal(t, "a\nb", NormalizeNewlines(`a\nb`))
	assert.Equal(t, "", NormalizeNewlines(""))

	// Idempotent: a second pass changes nothing.
	for _, input := range []string{"a\r\nb\rc", `x\ny`, "plain", "mixed\r\nand\\nescaped"} {
		once := NormalizeNewlines(input)
		assert.Equal(t, once, NormalizeNewlines(once))
	}
}

func TestToSRT(t *testing.T) {
	segments := []asr.Segment{
		{Start: 0.0, End: 1.0, Text: "こんにちは"},
		{Start: 1.0, End: 2.5, Text: "世界"},
	}
	want := "1\n00:00:00,000 --> 00:00:01,000\nこんにちは\n\n" +
		"2\n00:00:01,000 --> 00:00:02,500\n世界\n\n"
	assert.Equal(t, want, ToSRT(segments))
}

func TestToSRTCollapsesCaptionLines(t *testing.T) {
	segments := []asr.Segment{{Start: 0, End: 1, Text: "line one\nline two"}}
	assert.Contains(t, ToSRT(segments), "line one line two\n")
}

func TestToVTT(t *testing.T) {
	segments := []asr.Segment{
		{Start: 0.0, End: 1.0, Text: "hello"},
		{Start: 1.0, End: 2.5, Text: "two\nlines"},
	}
	got := ToVTT(segments)
	assert.Equal(t, "WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nhello\n\n"+
		"00:00:01.000 --> 00:00:02.500\ntwo\nlines\n\n", got)
}

func TestToText(t *testing.T) {
	segments := []asr.Segment{
		{Start: 0.0, End: 1.0, Text: " こんにちは "},
		{Start: 1.0, End: 1.5, Text: "   "},
		{Start: 1.5, End: 2.5, Text: "世界"},
	}
	assert.Equal(t, "こんにちは\n世界", ToText(segments))
	assert.Equal(t, "", ToText(nil))
}
