package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig `yaml:"server"`
	Tunnel  TunnelConfig `yaml:"tunnel"`
	Store   StoreConfig  `yaml:"store"`
	Logging LogConfig    `yaml:"logging"`
}

// ServerConfig contains settings for the HTTP listener
type ServerConfig struct {
	ListenAddr        string `yaml:"listen_addr"`
	ReadHeaderTimeout int    `yaml:"read_header_timeout"` // in seconds
	WriteTimeout      int    `yaml:"write_timeout"`       // in seconds
	IdleTimeout       int    `yaml:"idle_timeout"`        // in seconds
	BodyTimeout       int    `yaml:"body_timeout"`        // in seconds, 0 disables
	MaxBodyBytes      int64  `yaml:"max_body_bytes"`      // 0 disables
}

// TunnelConfig contains settings for the multiplexed tunnel endpoint
type TunnelConfig struct {
	Enabled                bool   `yaml:"enabled"`
	KeepAliveInterval      int    `yaml:"keep_alive_interval"`      // in seconds
	ConnectionWriteTimeout int    `yaml:"connection_write_timeout"` // in seconds
	XorKey                 string `yaml:"xor_key"`
}

// StoreConfig contains settings for the record store
type StoreConfig struct {
	SnapshotPath string `yaml:"snapshot_path"` // empty keeps data in memory only
}

// LogConfig contains settings for logging
type LogConfig struct {
	LogToFile   bool   `yaml:"log_to_file"`
	LogFilePath string `yaml:"log_file_path"`
	MaxSize     int    `yaml:"max_size"`    // maximum size in megabytes
	MaxBackups  int    `yaml:"max_backups"` // maximum number of old log files to retain
	MaxAge      int    `yaml:"max_age"`     // maximum number of days to retain old log files
	Compress    bool   `yaml:"compress"`    // compress rotated log files
}

// LoadDefault returns a configuration with default values
func LoadDefault() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:        "127.0.0.1:3333",
			ReadHeaderTimeout: 10,
			WriteTimeout:      30,
			IdleTimeout:       120,
			BodyTimeout:       10,
			MaxBodyBytes:      1 << 20,
		},
		Tunnel: TunnelConfig{
			Enabled:                false,
			KeepAliveInterval:      30,
			ConnectionWriteTimeout: 10,
		},
		Logging: LogConfig{
			LogToFile:   false,
			LogFilePath: "tasks-server.log",
			MaxSize:     10,
			MaxBackups:  3,
			MaxAge:      28,
			Compress:    true,
		},
	}
}

// Load reads configuration from a file and merges it with default values
func Load(configPath string) (*Config, error) {
	cfg := LoadDefault()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Merge server configuration
	if fileCfg.Server.ListenAddr != "" {
		cfg.Server.ListenAddr = fileCfg.Server.ListenAddr
	}
	if fileCfg.Server.ReadHeaderTimeout > 0 {
		cfg.Server.ReadHeaderTimeout = fileCfg.Server.ReadHeaderTimeout
	}
	if fileCfg.Server.WriteTimeout > 0 {
		cfg.Server.WriteTimeout = fileCfg.Server.WriteTimeout
	}
	if fileCfg.Server.IdleTimeout > 0 {
		cfg.Server.IdleTimeout = fileCfg.Server.IdleTimeout
	}
	if fileCfg.Server.BodyTimeout > 0 {
		cfg.Server.BodyTimeout = fileCfg.Server.BodyTimeout
	}
	if fileCfg.Server.MaxBodyBytes > 0 {
		cfg.Server.MaxBodyBytes = fileCfg.Server.MaxBodyBytes
	}

	// Merge tunnel configuration
	if fileCfg.Tunnel.Enabled {
		cfg.Tunnel.Enabled = true
	}
	if fileCfg.Tunnel.KeepAliveInterval > 0 {
		cfg.Tunnel.KeepAliveInterval = fileCfg.Tunnel.KeepAliveInterval
	}
	if fileCfg.Tunnel.ConnectionWriteTimeout > 0 {
		cfg.Tunnel.ConnectionWriteTimeout = fileCfg.Tunnel.ConnectionWriteTimeout
	}
	if fileCfg.Tunnel.XorKey != "" {
		cfg.Tunnel.XorKey = fileCfg.Tunnel.XorKey
	}

	// Merge store configuration
	if fileCfg.Store.SnapshotPath != "" {
		cfg.Store.SnapshotPath = fileCfg.Store.SnapshotPath
	}

	// Merge logging configuration
	if fileCfg.Logging.LogToFile {
		cfg.Logging.LogToFile = true
	}
	if fileCfg.Logging.LogFilePath != "" {
		cfg.Logging.LogFilePath = fileCfg.Logging.LogFilePath
	}
	if fileCfg.Logging.MaxSize > 0 {
		cfg.Logging.MaxSize = fileCfg.Logging.MaxSize
	}
	if fileCfg.Logging.MaxBackups > 0 {
		cfg.Logging.MaxBackups = fileCfg.Logging.MaxBackups
	}
	if fileCfg.Logging.MaxAge > 0 {
		cfg.Logging.MaxAge = fileCfg.Logging.MaxAge
	}
	if fileCfg.Logging.Compress {
		cfg.Logging.Compress = true
	}

	ApplyEnv(cfg)
	return cfg, nil
}

// LoadOrDefault attempts to load configuration from a file
// If the file doesn't exist or can't be parsed, it returns default configuration
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", configPath, err)
		fmt.Fprintf(os.Stderr, "Using default configuration\n")
		cfg = LoadDefault()
		ApplyEnv(cfg)
	}
	return cfg
}

// ApplyEnv lets TASKS_LISTEN_ADDR override the listen address
func ApplyEnv(cfg *Config) {
	if addr := os.Getenv("TASKS_LISTEN_ADDR"); addr != "" {
		cfg.Server.ListenAddr = addr
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func (s ServerConfig) ReadHeaderTimeoutDuration() time.Duration { return seconds(s.ReadHeaderTimeout) }
func (s ServerConfig) WriteTimeoutDuration() time.Duration      { return seconds(s.WriteTimeout) }
func (s ServerConfig) IdleTimeoutDuration() time.Duration       { return seconds(s.IdleTimeout) }
func (s ServerConfig) BodyTimeoutDuration() time.Duration       { return seconds(s.BodyTimeout) }

func (t TunnelConfig) KeepAliveDuration() time.Duration    { return seconds(t.KeepAliveInterval) }
func (t TunnelConfig) WriteTimeoutDuration() time.Duration { return seconds(t.ConnectionWriteTimeout) }
