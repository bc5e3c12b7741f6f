package util

import (
	"fmt"
	"os"
	"os/exec"
)

// LocateFFmpeg finds the ffmpeg binary, preferring the FFMPEG environment
// variable over $PATH.
func LocateFFmpeg() (string, error) {
	if p := os.Getenv("FFMPEG"); p != "" {
		info, err := os.Stat(p)
		if err != nil {
			return "", fmt.Errorf("FFMPEG=%s: %w", p, err)
		}
		if info.IsDir() || info.Mode()&0111 == 0 {
			return "", fmt.Errorf("FFMPEG=%s is not executable", p)
		}
		return p, nil
	}
	return exec.LookPath("ffmpeg")
}
