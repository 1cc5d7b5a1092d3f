package media

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// PreviewGenerator renders a single-frame JPEG snapshot of a video or
// image asset for the operator grid. Snapshots land in outputDir keyed
// by a caller-chosen id.
type PreviewGenerator struct {
	ffmpegPath string
	outputDir  string
	logger     zerolog.Logger
}

func NewPreviewGenerator(outputDir string, logger zerolog.Logger) *PreviewGenerator {
	ffmpegPath := "ffmpeg"
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		ffmpegPath = path
	}

	os.MkdirAll(outputDir, 0755)

	return &PreviewGenerator{
		ffmpegPath: ffmpegPath,
		outputDir:  outputDir,
		logger:     logger,
	}
}

func (g *PreviewGenerator) IsAvailable() bool {
	_, err := exec.LookPath(g.ffmpegPath)
	return err == nil
}

// Generate writes a preview frame for the asset and returns its path.
// For videos the frame is taken a short way into the timeline so title
// cards and black lead-ins are skipped.
func (g *PreviewGenerator) Generate(assetPath, id string, duration time.Duration) (string, error) {
	outputPath := filepath.Join(g.outputDir, id+".jpg")

	if _, err := os.Stat(outputPath); err == nil {
		return outputPath, nil
	}

	seconds := int64(duration / time.Second)
	timestamp := int64(5)
	if seconds > 0 {
		tenPercent := seconds / 10
		if tenPercent > 0 && tenPercent < timestamp {
			timestamp = tenPercent
		}
		if timestamp > seconds {
			timestamp = seconds / 2
		}
	}

	args := []string{
		"-ss", fmt.Sprintf("%d", timestamp),
		"-i", assetPath,
		"-vframes", "1",
		"-vf", "scale=320:-1",
		"-q:v", "2",
		"-y",
		outputPath,
	}

	cmd := exec.Command(g.ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		g.logger.Debug().
			Err(err).
			Str("asset", assetPath).
			Str("output", string(output)).
			Msg("ffmpeg preview generation failed")
		return "", fmt.Errorf("ffmpeg failed: %w", err)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return "", fmt.Errorf("preview file not created")
	}

	g.logger.Debug().
		Str("asset", assetPath).
		Str("preview", outputPath).
		Msg("preview generated")

	return outputPath, nil
}
