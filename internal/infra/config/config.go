package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"port" yaml:"port"`

	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	YTDLP    YTDLPConfig    `mapstructure:"ytdlp" yaml:"ytdlp"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Client   ClientConfig   `mapstructure:"client" yaml:"client"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

type DownloadConfig struct {
	// Dir is where finished files land. Served back at /downloads.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

type YTDLPConfig struct {
	BinaryPath string `mapstructure:"binary_path" yaml:"binary_path"`
	// InfoTimeout bounds metadata lookups, not downloads.
	InfoTimeout time.Duration `mapstructure:"info_timeout" yaml:"info_timeout"`
}

type CacheConfig struct {
	SQLitePath string        `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	TTL        time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type ClientConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
}

type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
	}

	v := viper.New()

	// Set Defaults
	v.SetDefault("port", "8000")
	v.SetDefault("download.dir", defaultDownloadDir())
	v.SetDefault("ytdlp.binary_path", "yt-dlp")
	v.SetDefault("ytdlp.info_timeout", "60s")
	v.SetDefault("cache.sqlite_path", "vidgrab.db")
	v.SetDefault("cache.ttl", "15m")
	v.SetDefault("client.max_attempts", 3)
	v.SetDefault("client.base_delay", "1s")
	v.SetDefault("log.path", "vidgrab.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", true)

	// The config file is optional; defaults alone make a working server.
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Support Environment Variables
	v.SetEnvPrefix("VIDGRAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port == "" {
		c.Port = "8000"
	}

	if c.Download.Dir == "" {
		c.Download.Dir = defaultDownloadDir()
	}

	if c.YTDLP.BinaryPath == "" {
		c.YTDLP.BinaryPath = "yt-dlp"
	}

	if c.Client.MaxAttempts <= 0 {
		c.Client.MaxAttempts = 3
	}

	if c.Client.BaseDelay <= 0 {
		c.Client.BaseDelay = time.Second
	}

	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 15 * time.Minute
	}

	return nil
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./downloads"
	}
	return filepath.Join(home, "Downloads", "vidgrab")
}
