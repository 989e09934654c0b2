// Package config 负责服务配置：YAML 文件 + 环境变量覆盖。
//
// 优先级（后者覆盖前者）：内置默认值 < YAML 文件 < 环境变量。
// 环境变量统一以 STRESSKIT_ 为前缀，读取错误累积后一次性返回。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/stresskit/pkg/rules"
)

// 历史留痕后端。
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config 是服务的全部运行时配置。
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Model   ModelConfig   `yaml:"model"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
	Rules   RulesConfig   `yaml:"rules"`
}

// ServerConfig 是 HTTP 服务配置。
type ServerConfig struct {
	Addr                   string   `yaml:"addr"`
	ReadTimeoutSeconds     int      `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int      `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`
	CORSOrigins            []string `yaml:"cors_origins"`
}

func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// ModelConfig 是模型制品配置。URL 非空时启动前先确保本地文件存在。
type ModelConfig struct {
	Path                   string `yaml:"path"`
	URL                    string `yaml:"url"`
	DownloadTimeoutSeconds int    `yaml:"download_timeout_seconds"`
}

func (c ModelConfig) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutSeconds) * time.Second
}

// HistoryConfig 是预测留痕存储配置。
type HistoryConfig struct {
	Backend   string `yaml:"backend"`
	Capacity  int    `yaml:"capacity"`
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
}

// LoggingConfig 是日志配置，env 取 development / production。
type LoggingConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// RulesConfig 是边界校验配置。
// Extra 中的自定义规则在内置区间规则之后求值，编译失败在启动期报错。
type RulesConfig struct {
	Enabled bool         `yaml:"enabled"`
	Extra   []rules.Rule `yaml:"extra"`
}

// Default 返回内置默认配置。
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                   ":8000",
			ReadTimeoutSeconds:     10,
			WriteTimeoutSeconds:    30,
			ShutdownTimeoutSeconds: 10,
		},
		Model: ModelConfig{
			Path:                   "models/financial_stress_bundle.json",
			DownloadTimeoutSeconds: 300,
		},
		History: HistoryConfig{
			Backend:  BackendMemory,
			Capacity: 1000,
		},
		Logging: LoggingConfig{
			Env:   "production",
			Level: "info",
		},
		Rules: RulesConfig{
			Enabled: true,
		},
	}
}

// Load 读取配置：path 为空时只用默认值与环境变量。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv 以环境变量覆盖配置；.env 文件存在时先装载。
func (c *Config) applyEnv() error {
	_ = godotenv.Load()

	ldr := &envLoader{}

	c.Server.Addr = ldr.getString("STRESSKIT_ADDR", c.Server.Addr)
	c.Server.ReadTimeoutSeconds = ldr.getInt("STRESSKIT_READ_TIMEOUT_SECONDS", c.Server.ReadTimeoutSeconds)
	c.Server.WriteTimeoutSeconds = ldr.getInt("STRESSKIT_WRITE_TIMEOUT_SECONDS", c.Server.WriteTimeoutSeconds)
	c.Server.ShutdownTimeoutSeconds = ldr.getInt("STRESSKIT_SHUTDOWN_TIMEOUT_SECONDS", c.Server.ShutdownTimeoutSeconds)
	if origins := ldr.getStringSlice("STRESSKIT_CORS_ORIGINS"); origins != nil {
		c.Server.CORSOrigins = origins
	}

	c.Model.Path = ldr.getString("STRESSKIT_MODEL_PATH", c.Model.Path)
	c.Model.URL = ldr.getString("STRESSKIT_MODEL_URL", c.Model.URL)
	c.Model.DownloadTimeoutSeconds = ldr.getInt("STRESSKIT_DOWNLOAD_TIMEOUT_SECONDS", c.Model.DownloadTimeoutSeconds)

	c.History.Backend = ldr.getString("STRESSKIT_HISTORY_BACKEND", c.History.Backend)
	c.History.Capacity = ldr.getInt("STRESSKIT_HISTORY_CAPACITY", c.History.Capacity)
	c.History.RedisAddr = ldr.getString("STRESSKIT_REDIS_ADDR", c.History.RedisAddr)
	c.History.RedisDB = ldr.getInt("STRESSKIT_REDIS_DB", c.History.RedisDB)

	c.Logging.Env = ldr.getString("STRESSKIT_LOG_ENV", c.Logging.Env)
	c.Logging.Level = ldr.getString("STRESSKIT_LOG_LEVEL", c.Logging.Level)

	c.Rules.Enabled = ldr.getBool("STRESSKIT_RULES_ENABLED", c.Rules.Enabled)

	return ldr.validate()
}

// Validate 检查配置的结构性约束。
func (c *Config) Validate() error {
	var errs []string
	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if c.Model.Path == "" {
		errs = append(errs, "model.path is required")
	}
	switch c.History.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.History.RedisAddr == "" {
			errs = append(errs, "history.redis_addr is required for the redis backend")
		}
	default:
		// 扩展后端通过 RegisterHistoryBackend 注册后即为合法取值
		if _, ok := lookupHistoryBuilder(c.History.Backend); !ok {
			errs = append(errs, fmt.Sprintf("history.backend %q is not supported", c.History.Backend))
		}
	}
	if c.History.Capacity < 0 {
		errs = append(errs, "history.capacity must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// envLoader 读取环境变量并累积错误，一次性报告所有问题。
type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config env overlay failed: %s", strings.Join(l.errs, "; "))
}

func (l *envLoader) getString(key, def string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	val = strings.TrimSpace(val)
	if val == "" {
		return def
	}
	return val
}

func (l *envLoader) getInt(key string, def int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	val = strings.TrimSpace(val)
	if val == "" {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s must be a valid integer", key))
		return def
	}
	return i
}

func (l *envLoader) getBool(key string, def bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	val = strings.TrimSpace(val)
	if val == "" {
		return def
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s must be a valid boolean", key))
		return def
	}
	return parsed
}

// getStringSlice 解析逗号分隔列表；变量缺失时返回 nil 表示不覆盖。
func (l *envLoader) getStringSlice(key string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
