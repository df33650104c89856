package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config 人力推荐服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig

	// 人力推荐服务特定配置
	Staffing struct {
		// 设施 ID（当前先支持单个设施，多设施通过多实例部署）
		FacilityID string

		// 分区 ID（可选；非空时护理分析与人力测算只覆盖该分区的住户）
		SectionID string

		// 排班运行的触发方式
		// 选项：polling（轮询）、events（事件驱动，由上游发布排班请求事件）
		TriggerMode string // "polling" 或 "events"

		// 轮询模式配置
		Polling struct {
			Interval int // 轮询间隔（秒），默认 3600 秒
		}

		// Redis Streams 配置（用于接收排班请求事件）
		EventStream   string // 事件流名称，如 "staffing:events"
		ConsumerGroup string // 消费者组名称，如 "staffing-engine-group"
		ConsumerName  string // 消费者名称，如 "staffing-engine-1"
		BatchSize     int    // 批量处理大小，默认 10

		// 运行完成通知流（空字符串表示不发布通知）
		ResultStream string

		// 结果缓存 TTL（秒），默认 3600 秒
		CacheTTL int

		// 是否把生成的排班写回数据库（false 时只缓存推荐结果）
		ApplySchedule bool

		// 引擎参数覆盖：一名员工一个班次可承担的护理小时数。
		// 0 表示使用引擎默认值（8）。
		HoursPerStaff float64
	}

	// 指标暴露地址（空字符串表示不启动指标服务）
	Metrics struct {
		Addr string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（默认值）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "carewise")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// 人力推荐服务配置
	cfg.Staffing.FacilityID = getEnv("FACILITY_ID", "")
	cfg.Staffing.SectionID = getEnv("STAFFING_SECTION_ID", "")
	cfg.Staffing.TriggerMode = getEnv("STAFFING_TRIGGER_MODE", "polling")
	cfg.Staffing.Polling.Interval = getEnvInt("STAFFING_POLLING_INTERVAL", 3600)
	cfg.Staffing.EventStream = getEnv("STAFFING_EVENT_STREAM", "staffing:events")
	cfg.Staffing.ConsumerGroup = getEnv("STAFFING_CONSUMER_GROUP", "staffing-engine-group")
	cfg.Staffing.ConsumerName = getEnv("STAFFING_CONSUMER_NAME", "staffing-engine-1")
	cfg.Staffing.BatchSize = getEnvInt("STAFFING_BATCH_SIZE", 10)
	cfg.Staffing.ResultStream = getEnv("STAFFING_RESULT_STREAM", "")
	cfg.Staffing.CacheTTL = getEnvInt("STAFFING_CACHE_TTL", 3600)
	cfg.Staffing.ApplySchedule = getEnv("STAFFING_APPLY_SCHEDULE", "false") == "true"
	cfg.Staffing.HoursPerStaff = getEnvFloat("STAFFING_HOURS_PER_STAFF", 0)

	cfg.Metrics.Addr = getEnv("METRICS_ADDR", ":9090")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil && v >= 0 {
			return v
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil && v >= 0 {
			return v
		}
	}
	return defaultValue
}
