package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"kvload/internal/command"
	"kvload/internal/fragment"
	"kvload/internal/harness"
	"kvload/internal/logger"

	"gopkg.in/yaml.v3"
)

// Error は設定の不正を表す
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *Error {
	return &Error{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Config は解決済みの実行設定
type Config struct {
	Host       string
	Port       int
	Workers    int
	Iterations int
	Keys       command.KeySpace
	LogDir     string
	Backoff    time.Duration
	Rate       float64
	Seed       int64

	FragmentDelay time.Duration
	Probes        []fragment.Plan

	MonitorAddr string
	LogLevel    string
}

// Default はデフォルト設定を返す
func Default() Config {
	return Config{
		Host:          "127.0.0.1",
		Port:          12345,
		Workers:       10,
		Iterations:    10000,
		Keys:          command.DefaultKeySpace(),
		LogDir:        "./logs",
		Backoff:       1 * time.Second,
		FragmentDelay: 100 * time.Millisecond,
		Probes:        fragment.DefaultPlans(),
		LogLevel:      "info",
	}
}

// Addr は host:port を返す
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate は設定を検証する
func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return invalid("target.host", "must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return invalid("target.port", "must be between 1 and 65535, got %d", c.Port)
	}
	if c.Workers < 1 {
		return invalid("load.workers", "must be at least 1, got %d", c.Workers)
	}
	if c.Iterations < 1 {
		return invalid("load.iterations", "must be at least 1, got %d", c.Iterations)
	}
	if err := c.Keys.Validate(); err != nil {
		return invalid("load.keys", "%v", err)
	}
	if c.LogDir == "" {
		return invalid("load.log_dir", "must not be empty")
	}
	if c.Backoff < 0 {
		return invalid("load.backoff", "must not be negative")
	}
	if c.Rate < 0 {
		return invalid("load.rate", "must not be negative")
	}
	if c.FragmentDelay < 0 {
		return invalid("fragment.delay", "must not be negative")
	}
	for i, p := range c.Probes {
		if err := p.Validate(); err != nil {
			return invalid("fragment.probes", "probe %d: %v", i, err)
		}
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return invalid("log.level", "%v", err)
	}
	return nil
}

// HarnessConfig はharness.Configに変換する
func (c Config) HarnessConfig() harness.Config {
	return harness.Config{
		Workers:    c.Workers,
		Addr:       c.Addr(),
		Iterations: c.Iterations,
		Keys:       c.Keys,
		Backoff:    c.Backoff,
		Rate:       c.Rate,
		Seed:       c.Seed,
	}
}

// FragmentConfig はfragment.Configに変換する
func (c Config) FragmentConfig() fragment.Config {
	return fragment.Config{
		Addr:  c.Addr(),
		Delay: c.FragmentDelay,
	}
}

// FileConfig は設定ファイルの構造
type FileConfig struct {
	Preset   string         `yaml:"preset" json:"preset"`
	Target   TargetConfig   `yaml:"target" json:"target"`
	Load     LoadConfig     `yaml:"load" json:"load"`
	Fragment FragmentConfig `yaml:"fragment" json:"fragment"`
	Monitor  MonitorConfig  `yaml:"monitor" json:"monitor"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

// TargetConfig は接続先設定
type TargetConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// LoadConfig は負荷生成設定
type LoadConfig struct {
	Workers    int      `yaml:"workers" json:"workers"`
	Iterations int      `yaml:"iterations" json:"iterations"`
	Keys       []string `yaml:"keys" json:"keys"`
	LogDir     string   `yaml:"log_dir" json:"log_dir"`
	Backoff    string   `yaml:"backoff" json:"backoff"`
	Rate       float64  `yaml:"rate" json:"rate"`
	Seed       int64    `yaml:"seed" json:"seed"`
}

// FragmentConfig は断片化プローブ設定
type FragmentConfig struct {
	Delay  string     `yaml:"delay" json:"delay"`
	Probes [][]string `yaml:"probes" json:"probes"`
}

// MonitorConfig は監視サーバー設定
type MonitorConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// LogConfig はログ設定
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// LoadFile は設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// Apply はファイルで指定された値だけを c に上書きする
func (f *FileConfig) Apply(c *Config) error {
	if f.Target.Host != "" {
		c.Host = f.Target.Host
	}
	if f.Target.Port != 0 {
		c.Port = f.Target.Port
	}

	l := f.Load
	if l.Workers != 0 {
		c.Workers = l.Workers
	}
	if l.Iterations != 0 {
		c.Iterations = l.Iterations
	}
	if l.Keys != nil {
		c.Keys = command.KeySpace(l.Keys)
	}
	if l.LogDir != "" {
		c.LogDir = l.LogDir
	}
	if l.Backoff != "" {
		d, err := time.ParseDuration(l.Backoff)
		if err != nil {
			return invalid("load.backoff", "%v", err)
		}
		c.Backoff = d
	}
	if l.Rate != 0 {
		c.Rate = l.Rate
	}
	if l.Seed != 0 {
		c.Seed = l.Seed
	}

	if f.Fragment.Delay != "" {
		d, err := time.ParseDuration(f.Fragment.Delay)
		if err != nil {
			return invalid("fragment.delay", "%v", err)
		}
		c.FragmentDelay = d
	}
	if f.Fragment.Probes != nil {
		c.Probes = make([]fragment.Plan, 0, len(f.Fragment.Probes))
		for _, frags := range f.Fragment.Probes {
			c.Probes = append(c.Probes, fragment.NewPlan(frags...))
		}
	}

	if f.Monitor.Addr != "" {
		c.MonitorAddr = f.Monitor.Addr
	}
	if f.Log.Level != "" {
		c.LogLevel = f.Log.Level
	}
	return nil
}

// Resolve はプリセットと設定ファイルから設定を組み立てる
//
// 優先順位はデフォルト < プリセット < ファイル。ファイル内の preset は引数より弱い。
func Resolve(presetName, path string) (Config, error) {
	var file *FileConfig
	if path != "" {
		f, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		file = f
		if presetName == "" {
			presetName = f.Preset
		}
	}

	cfg := Default()
	if presetName != "" {
		p, ok := GetPreset(presetName)
		if !ok {
			return cfg, invalid("preset", "unknown preset %q (available: %v)", presetName, ListPresets())
		}
		cfg = p
	}

	if file != nil {
		if err := file.Apply(&cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}
