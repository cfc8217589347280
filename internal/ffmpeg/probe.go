package ffmpeg

import (
	"encoding/json"
	"log"
	"os/exec"
	"strconv"
)

type probeResult struct {
	Format probeFormat `json:"format"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// Duration returns a media file's duration in seconds via ffprobe.
// Probe failure is non-fatal for callers, so any error maps to 0.
func Duration(path string) float64 {
	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		log.Printf("[ffprobe] could not probe %s: %v", path, err)
		return 0
	}

	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		log.Printf("[ffprobe] could not parse probe output for %s: %v", path, err)
		return 0
	}

	seconds, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return seconds
}
