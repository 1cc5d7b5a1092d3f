package media

import (
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Metadata struct {
	Duration      time.Duration
	Width         int
	Height        int
	VideoCodec    string
	AudioCodec    string
	AudioChannels int
	Bitrate       int64
}

// Prober extracts media metadata via ffprobe. The playback layer uses it
// to learn asset durations; everything else is informational.
type Prober struct {
	ffprobePath string
	logger      zerolog.Logger
}

func NewProber(logger zerolog.Logger) *Prober {
	ffprobePath := "ffprobe"
	if path, err := exec.LookPath("ffprobe"); err == nil {
		ffprobePath = path
	}

	return &Prober{
		ffprobePath: ffprobePath,
		logger:      logger,
	}
}

func (p *Prober) IsAvailable() bool {
	_, err := exec.LookPath(p.ffprobePath)
	return err == nil
}

func (p *Prober) Probe(filePath string) (*Metadata, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	}

	cmd := exec.Command(p.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		p.logger.Debug().Err(err).Str("file", filePath).Msg("ffprobe failed")
		return nil, err
	}

	return p.parseOutput(output)
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Channels  int    `json:"channels"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
}

func (p *Prober) parseOutput(output []byte) (*Metadata, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, err
	}

	meta := &Metadata{}

	if probe.Format.Duration != "" {
		if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			meta.Duration = time.Duration(dur * float64(time.Second))
		}
	}

	if probe.Format.BitRate != "" {
		if br, err := strconv.ParseInt(probe.Format.BitRate, 10, 64); err == nil {
			meta.Bitrate = br
		}
	}

	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			if meta.VideoCodec == "" {
				meta.VideoCodec = strings.ToUpper(stream.CodecName)
				meta.Width = stream.Width
				meta.Height = stream.Height
			}
		case "audio":
			if meta.AudioCodec == "" {
				meta.AudioCodec = strings.ToUpper(stream.CodecName)
				meta.AudioChannels = stream.Channels
			}
		}
	}

	return meta, nil
}
