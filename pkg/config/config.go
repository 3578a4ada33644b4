package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// MANGA2EPUB_INGEST_PORT.
const EnvPrefix = "MANGA2EPUB"

type Config struct {
	Ingest IngestConfig `mapstructure:"ingest"`
	Pack   PackConfig   `mapstructure:"pack"`
	Bridge BridgeConfig `mapstructure:"bridge"`
}

type IngestConfig struct {
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	BaseDir string `mapstructure:"base_dir"`
}

type PackConfig struct {
	RootDir      string `mapstructure:"root_dir"`
	OutputDir    string `mapstructure:"output_dir"`
	Title        string `mapstructure:"title"`
	DefaultTitle string `mapstructure:"default_title"`
	Author       string `mapstructure:"author"`
	Language     string `mapstructure:"language"`
	Description  string `mapstructure:"description"`
	Recursive    bool   `mapstructure:"recursive"`
}

type BridgeConfig struct {
	ServerURL         string        `mapstructure:"server_url"`
	ImagePattern      string        `mapstructure:"image_pattern"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Attempts          uint          `mapstructure:"attempts"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxChapters       int           `mapstructure:"max_chapters"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Ingest: IngestConfig{
			Host:    "127.0.0.1",
			Port:    "5000",
			BaseDir: "./Downloaded_Raw_Chapters",
		},
		Pack: PackConfig{
			RootDir:      "./Downloaded_Manga",
			OutputDir:    "./EPUB_Output",
			Title:        "Gachiakuta_Full",
			DefaultTitle: "Untitled_Manga",
			Author:       "Manga2EPUB",
			Language:     "en",
		},
		Bridge: BridgeConfig{
			ServerURL:         "http://127.0.0.1:5000",
			ImagePattern:      "storage",
			RequestsPerSecond: 2,
			Attempts:          2,
			RetryDelay:        3 * time.Second,
			Timeout:           30 * time.Second,
		},
	}
}

// Load reads .env, the optional config file and MANGA2EPUB_* variables on
// top of the defaults. An empty cfgFile searches for manga2epub.yaml.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("manga2epub")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.manga2epub")
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("ingest.host", d.Ingest.Host)
	v.SetDefault("ingest.port", d.Ingest.Port)
	v.SetDefault("ingest.base_dir", d.Ingest.BaseDir)

	v.SetDefault("pack.root_dir", d.Pack.RootDir)
	v.SetDefault("pack.output_dir", d.Pack.OutputDir)
	v.SetDefault("pack.title", d.Pack.Title)
	v.SetDefault("pack.default_title", d.Pack.DefaultTitle)
	v.SetDefault("pack.author", d.Pack.Author)
	v.SetDefault("pack.language", d.Pack.Language)
	v.SetDefault("pack.description", d.Pack.Description)
	v.SetDefault("pack.recursive", d.Pack.Recursive)

	v.SetDefault("bridge.server_url", d.Bridge.ServerURL)
	v.SetDefault("bridge.image_pattern", d.Bridge.ImagePattern)
	v.SetDefault("bridge.requests_per_second", d.Bridge.RequestsPerSecond)
	v.SetDefault("bridge.attempts", d.Bridge.Attempts)
	v.SetDefault("bridge.retry_delay", d.Bridge.RetryDelay)
	v.SetDefault("bridge.timeout", d.Bridge.Timeout)
	v.SetDefault("bridge.max_chapters", d.Bridge.MaxChapters)
}
