package supervise

import (
	"os/exec"
	"strings"
	"sync"
)

// hwEncoderNames lists the known hardware H.264 encoders, in preference
// order.
var hwEncoderNames = []string{
	"h264_nvenc",
	"h264_qsv",
	"h264_vaapi",
	"h264_videotoolbox",
}

var (
	hwOnce    sync.Once
	hwEncoder string
)

// DetectHardwareEncoder probes the available encoders once per process
// and returns the first known hardware encoder name, or empty when none
// is available. Probe failure means no hardware path, never an error.
func DetectHardwareEncoder(ffmpegPath string) string {
	hwOnce.Do(func() {
		hwEncoder = probeEncoders(ffmpegPath)
	})
	return hwEncoder
}

// probeEncoders scans `ffmpeg -encoders` output for a known hardware
// encoder name.
func probeEncoders(ffmpegPath string) string {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	// #nosec G204 - ffmpegPath is set by the application, not user input
	out, err := exec.Command(ffmpegPath, "-hide_banner", "-encoders").Output()
	if err != nil {
		return ""
	}

	listing := string(out)
	for _, name := range hwEncoderNames {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return ""
}
