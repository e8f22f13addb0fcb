package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "PORTAL"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Etcd    EtcdConfig    `mapstructure:"etcd"`
	Redis   RedisConfig   `mapstructure:"redis"`
	MySQL   MySQLConfig   `mapstructure:"mysql"`
	MongoDB MongoDBConfig `mapstructure:"mongodb"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Log     LogConfig     `mapstructure:"log"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Order   OrderConfig   `mapstructure:"order"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Seed    SeedConfig    `mapstructure:"seed"`
}

// ServerConfig is the gRPC order service listener.
type ServerConfig struct {
	Name string `mapstructure:"name"`
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Prefix      string        `mapstructure:"prefix"`
	LeaseTTL    int64         `mapstructure:"lease_ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type MongoDBConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type GatewayConfig struct {
	Name string `mapstructure:"name"`
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Encoding    string   `mapstructure:"encoding"`
	OutputPaths []string `mapstructure:"output_paths"`
}

type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	CookieName   string        `mapstructure:"cookie_name"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

type OrderConfig struct {
	NumberPrefix      string `mapstructure:"number_prefix"`
	NumberWidth       int    `mapstructure:"number_width"`
	MaxNumberAttempts int    `mapstructure:"max_number_attempts"`
}

type CacheConfig struct {
	OrderTTL   time.Duration `mapstructure:"order_ttl"`
	CatalogTTL time.Duration `mapstructure:"catalog_ttl"`
}

type SeedConfig struct {
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminName     string `mapstructure:"admin_name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "order-service")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 50052)

	v.SetDefault("etcd.dial_timeout", 5*time.Second)
	v.SetDefault("etcd.prefix", "/portal/services/")
	v.SetDefault("etcd.lease_ttl", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("mysql.host", "localhost")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.database", "portal")
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.max_open_conns", 50)

	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "portal")
	v.SetDefault("mongodb.collection", "audit_logs")

	v.SetDefault("gateway.name", "gateway")
	v.SetDefault("gateway.host", "0.0.0.0")
	v.SetDefault("gateway.port", 8080)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.output_paths", []string{"stdout"})

	// Registered so that PORTAL_AUTH_JWT_SECRET is seen by Unmarshal.
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 365*24*time.Hour)
	v.SetDefault("auth.cookie_name", "portal_session")
	v.SetDefault("auth.cookie_secure", true)

	v.SetDefault("order.number_prefix", "CMD")
	v.SetDefault("order.number_width", 3)
	v.SetDefault("order.max_number_attempts", 5)

	v.SetDefault("cache.order_ttl", 10*time.Minute)
	v.SetDefault("cache.catalog_ttl", 5*time.Minute)

	v.SetDefault("seed.admin_username", "admin")
	v.SetDefault("seed.admin_name", "Administrateur")
	v.SetDefault("seed.admin_email", "")
	v.SetDefault("seed.admin_password", "")
}

// Load reads the YAML file at configPath. Every key can be overridden from the
// environment, e.g. PORTAL_AUTH_JWT_SECRET for auth.jwt_secret.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (or %s_AUTH_JWT_SECRET)", envPrefix)
	}
	if c.Order.NumberWidth < 1 {
		return fmt.Errorf("order.number_width must be positive, got %d", c.Order.NumberWidth)
	}
	if c.Order.MaxNumberAttempts < 1 {
		return fmt.Errorf("order.max_number_attempts must be positive, got %d", c.Order.MaxNumberAttempts)
	}
	return nil
}

func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *GatewayConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
