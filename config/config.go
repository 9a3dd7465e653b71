package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Progression ProgressionConfig `mapstructure:"progression"`
	Security    SecurityConfig    `mapstructure:"security"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Debug    bool   `mapstructure:"debug"`
	AdminKey string `mapstructure:"admin_key"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // memory | sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
}

type CatalogConfig struct {
	// DataDir holds optional JSON catalog overrides (items.json, traits.json,
	// bosses.json, challenges.json, quests.json). Empty = compiled defaults.
	DataDir string `mapstructure:"data_dir"`
}

type ProgressionConfig struct {
	DailyQuestCount  int           `mapstructure:"daily_quest_count"`
	WeeklyQuestCount int           `mapstructure:"weekly_quest_count"`
	MaxPartySize     int           `mapstructure:"max_party_size"`
	WorkoutXPPerRep  int           `mapstructure:"workout_xp_per_rep"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
	RetryAttempts    int           `mapstructure:"retry_attempts"`
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTTTLH        time.Duration `mapstructure:"jwt_ttl_h"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	// AdminAllowedIPs lists IPs permitted to call admin endpoints.
	// An empty slice allows loopback only.
	AdminAllowedIPs []string `mapstructure:"admin_allowed_ips"`
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/fitforge.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("progression.daily_quest_count", 3)
	v.SetDefault("progression.weekly_quest_count", 2)
	v.SetDefault("progression.max_party_size", 5)
	v.SetDefault("progression.workout_xp_per_rep", 2)
	v.SetDefault("progression.sweep_interval", "5m")
	v.SetDefault("progression.retry_attempts", 3)
	v.SetDefault("security.jwt_ttl_h", "72h")
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
