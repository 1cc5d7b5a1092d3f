package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Playback PlaybackConfig `yaml:"playback"`
	Outputs  OutputsConfig  `yaml:"outputs"`
	Database DatabaseConfig `yaml:"database"`
	Previews PreviewsConfig `yaml:"previews"`
	Layout   []LayoutEntry  `yaml:"layout"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type PlaybackConfig struct {
	Transition         string        `yaml:"transition"`          // instant | fade | slide | zoom
	TransitionDuration time.Duration `yaml:"transition_duration"` // per half, scaled into step delays
	AutoAdvance        bool          `yaml:"auto_advance"`
	AutoAdvanceDelay   time.Duration `yaml:"auto_advance_delay"`
	ResumeCapacity     int           `yaml:"resume_capacity"`
}

type OutputsConfig struct {
	Secondary        bool          `yaml:"secondary"`
	Stretch          string        `yaml:"stretch"` // uniform | fill
	DriftThreshold   time.Duration `yaml:"drift_threshold"`
	DriftMinInterval time.Duration `yaml:"drift_min_interval"`
	DriftTick        time.Duration `yaml:"drift_tick"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type PreviewsConfig struct {
	OutputDir     string `yaml:"output_dir"`
	CacheCapacity int    `yaml:"cache_capacity"`
}

// LayoutEntry assigns one media file (or inline text) to a slot at
// startup.
type LayoutEntry struct {
	Column int    `yaml:"column"`
	Row    int    `yaml:"row"`
	Path   string `yaml:"path"`
	Text   string `yaml:"text"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         6541,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 0,
		},
		Playback: PlaybackConfig{
			Transition:         "instant",
			TransitionDuration: time.Second,
			AutoAdvance:        false,
			AutoAdvanceDelay:   500 * time.Millisecond,
			ResumeCapacity:     1024,
		},
		Outputs: OutputsConfig{
			Secondary:        true,
			Stretch:          "uniform",
			DriftThreshold:   250 * time.Millisecond,
			DriftMinInterval: 2 * time.Second,
			DriftTick:        time.Second,
		},
		Database: DatabaseConfig{
			Path: "data/cuegrid.db",
		},
		Previews: PreviewsConfig{
			OutputDir:     "data/previews",
			CacheCapacity: 256,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
