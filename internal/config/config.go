// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找，并允许通过 .env 与 CHAT_ 前缀环境变量覆盖
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"chat_core_server/pkg/constants"
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName     string `toml:"appName"`     // 应用名称，用于日志标识等
	Host        string `toml:"host"`        // 服务器监听地址，如 "0.0.0.0"
	Port        int    `toml:"port"`        // 服务器监听端口，如 8000
	Mode        string `toml:"mode"`        // 运行模式："dev" 或 "release"
	SSLRedirect bool   `toml:"sslRedirect"` // 是否将 HTTP 请求重定向到 HTTPS
}

// DBConfig 消息库配置
type DBConfig struct {
	Driver        string `toml:"driver"`        // "sqlite"（默认）或 "mysql"
	DSN           string `toml:"dsn"`           // sqlite 为文件路径，mysql 为完整 DSN
	LegacyLogPath string `toml:"legacyLogPath"` // 旧版 JSON Lines 聊天日志，仅在空库时导入一次
}

// RedisConfig Redis 连接配置（最近消息缓存，可选）
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Host     string `toml:"host"`     // Redis 服务器地址
	Port     int    `toml:"port"`     // Redis 端口，默认 6379
	Password string `toml:"password"` // Redis 密码，无密码留空
	Db       int    `toml:"db"`       // Redis 数据库编号，默认 0
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`    // 日志文件存储目录
	FileName   string `toml:"fileName"`   // 日志文件名
	MaxSize    int    `toml:"maxSize"`    // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"` // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`     // 保留旧日志文件的最大天数
	Level      string `toml:"level"`      // 日志级别：debug, info, warn, error
}

// KafkaConfig 消息导出配置，新消息写入 Kafka 供外部系统消费（可选）
type KafkaConfig struct {
	Enabled   bool   `toml:"enabled"`
	HostPort  string `toml:"hostPort"`  // Kafka 服务器地址，如 "localhost:9092"
	ChatTopic string `toml:"chatTopic"` // 聊天消息主题
	Timeout   int    `toml:"timeout"`   // 写超时（秒）
}

// JWTConfig WebSocket ticket 签名配置
type JWTConfig struct {
	Secret       string `toml:"secret"`       // 签名密钥，建议 32 字符以上
	TicketExpiry int    `toml:"ticketExpiry"` // ticket 有效期（秒）
}

// ChatConfig 在线状态与推送会话参数
type ChatConfig struct {
	LivenessTimeout int `toml:"livenessTimeout"` // 在线判定超时（秒），默认 300
	PingInterval    int `toml:"pingInterval"`    // 保活探测周期（秒），默认 30
	StatusInterval  int `toml:"statusInterval"`  // 在线状态定期广播周期（秒），默认 60
	HistoryWindow   int `toml:"historyWindow"`   // 连接建立时下发的最近消息条数，默认 100
}

// RateLimitConfig 发消息限流配置，RPS <= 0 表示不限流
type RateLimitConfig struct {
	RPS   float64 `toml:"rps"`
	Burst int     `toml:"burst"`
}

// Participant 一个参与者（bot 或人类操作员）及其 token
type Participant struct {
	Name  string `toml:"name"`
	Token string `toml:"token"`
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig      `toml:"mainConfig"`
	DBConfig        `toml:"dbConfig"`
	RedisConfig     `toml:"redisConfig"`
	LogConfig       `toml:"logConfig"`
	KafkaConfig     `toml:"kafkaConfig"`
	JWTConfig       `toml:"jwtConfig"`
	ChatConfig      `toml:"chatConfig"`
	RateLimitConfig `toml:"rateLimitConfig"`
	Participants    []Participant `toml:"participants"`
}

// envOverlay CHAT_ 前缀的环境变量覆盖项
// CHAT_PARTICIPANTS 格式为 "Alice:token1,Bob:token2"，设置后整体替换配置文件中的参与者列表
type envOverlay struct {
	Participants map[string]string `envconfig:"PARTICIPANTS"`
	JWTSecret    string            `envconfig:"JWT_SECRET"`
	DBDriver     string            `envconfig:"DB_DRIVER"`
	DBDSN        string            `envconfig:"DB_DSN"`
	Port         int               `envconfig:"PORT"`
	LogLevel     string            `envconfig:"LOG_LEVEL"`
}

// 候选配置文件路径（优先加载本地配置）
var defaultPaths = []string{
	"configs/config_local.toml",
	"configs/config.toml",
	"../../configs/config_local.toml",
	"../../configs/config.toml",
}

// config 全局配置单例，延迟加载
var (
	config     *Config
	configErr  error
	configOnce sync.Once
)

// LoadConfig 按顺序尝试候选路径，使用第一个存在的配置文件
// 文件存在但解析失败时直接返回错误，不会退回下一个候选路径
// 随后加载 .env 并应用环境变量覆盖，最后补齐默认值
func LoadConfig(paths ...string) (*Config, error) {
	if len(paths) == 0 {
		paths = defaultPaths
	}
	cfg := new(Config)
	loaded := false
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		loaded = true
		break
	}

	// .env 不存在时忽略
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if !loaded && len(cfg.Participants) == 0 {
		return cfg, fmt.Errorf("could not find configuration file in any of the search paths")
	}
	return cfg, nil
}

// GetConfig 获取全局配置实例（单例模式）
// 首次调用时加载配置，加载错误原样返回，调用方决定是否退出
func GetConfig() (*Config, error) {
	configOnce.Do(func() {
		config, configErr = LoadConfig()
	})
	return config, configErr
}

func (c *Config) applyEnv() error {
	var env envOverlay
	if err := envconfig.Process("chat", &env); err != nil {
		return fmt.Errorf("parse CHAT_ environment: %w", err)
	}
	if len(env.Participants) > 0 {
		names := make([]string, 0, len(env.Participants))
		for name := range env.Participants {
			names = append(names, name)
		}
		sort.Strings(names)
		c.Participants = c.Participants[:0]
		for _, name := range names {
			c.Participants = append(c.Participants, Participant{Name: name, Token: env.Participants[name]})
		}
	}
	if env.JWTSecret != "" {
		c.JWTConfig.Secret = env.JWTSecret
	}
	if env.DBDriver != "" {
		c.DBConfig.Driver = env.DBDriver
	}
	if env.DBDSN != "" {
		c.DBConfig.DSN = env.DBDSN
	}
	if env.Port != 0 {
		c.MainConfig.Port = env.Port
	}
	if env.LogLevel != "" {
		c.LogConfig.Level = env.LogLevel
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.AppName == "" {
		c.AppName = "chat_core_server"
	}
	if c.MainConfig.Host == "" {
		c.MainConfig.Host = "0.0.0.0"
	}
	if c.MainConfig.Port == 0 {
		c.MainConfig.Port = 8000
	}
	if c.Mode == "" {
		c.Mode = "release"
	}
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
	if c.DSN == "" && c.Driver == "sqlite" {
		c.DSN = "data/chat.db"
	}
	if c.LogPath == "" {
		c.LogPath = "logs"
	}
	if c.FileName == "" {
		c.FileName = filepath.Join(c.LogPath, "chat.log")
	}
	if c.MaxSize == 0 {
		c.MaxSize = 100
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 5
	}
	if c.MaxAge == 0 {
		c.MaxAge = 30
	}
	if c.Level == "" {
		c.Level = "info"
	}
	if c.KafkaConfig.Timeout == 0 {
		c.KafkaConfig.Timeout = 5
	}
	if c.TicketExpiry == 0 {
		c.TicketExpiry = int(constants.TICKET_EXPIRY / time.Second)
	}
	if c.LivenessTimeout == 0 {
		c.LivenessTimeout = int(constants.LIVENESS_TIMEOUT / time.Second)
	}
	if c.PingInterval == 0 {
		c.PingInterval = int(constants.PING_INTERVAL / time.Second)
	}
	if c.StatusInterval == 0 {
		c.StatusInterval = int(constants.STATUS_INTERVAL / time.Second)
	}
	if c.HistoryWindow == 0 {
		c.HistoryWindow = constants.WELCOME_HISTORY_LEN
	}
}

// Liveness 返回在线判定超时
func (c ChatConfig) Liveness() time.Duration {
	return time.Duration(c.LivenessTimeout) * time.Second
}

// Ping 返回保活探测周期
func (c ChatConfig) Ping() time.Duration {
	return time.Duration(c.PingInterval) * time.Second
}

// Status 返回在线状态定期广播周期
func (c ChatConfig) Status() time.Duration {
	return time.Duration(c.StatusInterval) * time.Second
}
