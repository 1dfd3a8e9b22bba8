package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	globalConfig Config
	once         sync.Once
)

// Config 扁平化配置结构体
type Config struct {
	// 服务器配置
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port"`
	ServerDomain       string        `mapstructure:"server_domain"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`

	// 数据库配置
	DBType            string `mapstructure:"db_type"`
	DBHost            string `mapstructure:"db_host"`
	DBPort            int    `mapstructure:"db_port"`
	DBUsername        string `mapstructure:"db_username"`
	DBPassword        string `mapstructure:"db_password"`
	DBName            string `mapstructure:"db_name"`
	DBFilePath        string `mapstructure:"db_file_path"`
	DBMaxOpenConns    int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime int    `mapstructure:"db_conn_max_lifetime"`

	// 存储配置
	StorageType      string `mapstructure:"storage_type"`
	StorageLocalPath string `mapstructure:"storage_local_path"`

	MinioEndpoint        string `mapstructure:"minio_endpoint"`
	MinioAccessKeyID     string `mapstructure:"minio_access_key_id"`
	MinioSecretAccessKey string `mapstructure:"minio_secret_access_key"`
	MinioUseSSL          bool   `mapstructure:"minio_use_ssl"`
	MinioBucketName      string `mapstructure:"minio_bucket_name"`
	MinioPublicURL       string `mapstructure:"minio_public_url"`

	WebDAVURL      string        `mapstructure:"webdav_url"`
	WebDAVUsername string        `mapstructure:"webdav_username"`
	WebDAVPassword string        `mapstructure:"webdav_password"`
	WebDAVRootPath string        `mapstructure:"webdav_root_path"`
	WebDAVTimeout  time.Duration `mapstructure:"webdav_timeout"`

	// 缓存配置
	CacheType          string        `mapstructure:"cache_type"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	CacheMaxCostMB     int64         `mapstructure:"cache_max_cost_mb"`
	CacheRedisAddr     string        `mapstructure:"cache_redis_addr"`
	CacheRedisPassword string        `mapstructure:"cache_redis_password"`
	CacheRedisDB       int           `mapstructure:"cache_redis_db"`

	// 图片处理配置
	ImageProcessor  string `mapstructure:"image_processor"`
	VariantMdWidth  int    `mapstructure:"variant_md_width"`
	VariantMdHeight int    `mapstructure:"variant_md_height"`
	VariantSmWidth  int    `mapstructure:"variant_sm_width"`
	VariantSmHeight int    `mapstructure:"variant_sm_height"`
	JPEGQuality     int    `mapstructure:"jpeg_quality"`

	// 远程抓取配置
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	FetchMaxSizeMB int           `mapstructure:"fetch_max_size_mb"`
	FetchRPS       float64       `mapstructure:"fetch_rps"`
	FetchBurst     int           `mapstructure:"fetch_burst"`

	// 上传配置
	UploadMaxSizeMB int `mapstructure:"upload_max_size_mb"`

	// JWT 配置
	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTExpiresIn time.Duration `mapstructure:"jwt_expires_in"`

	// 限流配置
	RateLimitApiRPS     float64       `mapstructure:"rate_limit_api_rps"`
	RateLimitApiBurst   int           `mapstructure:"rate_limit_api_burst"`
	RateLimitFileRPS    float64       `mapstructure:"rate_limit_file_rps"`
	RateLimitFileBurst  int           `mapstructure:"rate_limit_file_burst"`
	RateLimitExpireTime time.Duration `mapstructure:"rate_limit_expire_time"`
}

// InitConfig Initialize configuration
func InitConfig() {
	once.Do(func() {
		loadConfig()
	})
}

func Get() *Config {
	return &globalConfig
}

// loadConfig Core configuration loading
func loadConfig() {
	setDefaults()

	configFile := viper.GetString("config_file_path")
	if configFile == "" {
		configFile = ".env"
	}
	viper.SetConfigFile(configFile)
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Info: %s not found, using defaults and environment variables\n", configFile)
	} else {
		fmt.Fprintf(os.Stderr, "Info: Loaded configuration from %s\n", configFile)
	}

	viper.AutomaticEnv()
	for _, key := range viper.AllKeys() {
		_ = viper.BindEnv(key)
	}

	if err := viper.Unmarshal(&globalConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: Unable to unmarshal config, %v\n", err)
		os.Exit(1)
	}
}

// setDefaults 设置默认值
func setDefaults() {
	for key, value := range Defaults() {
		viper.SetDefault(key, value)
	}
}

// Defaults 返回全部默认配置项
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"server_host":          "127.0.0.1",
		"server_port":          8080,
		"server_domain":        "",
		"server_read_timeout":  "15s",
		"server_write_timeout": "30s",
		"server_idle_timeout":  "120s",

		"db_type":              "sqlite",
		"db_host":              "localhost",
		"db_port":              5432,
		"db_username":          "postgres",
		"db_password":          "",
		"db_name":              "imagebank",
		"db_file_path":         "./data/imagebank.db",
		"db_max_open_conns":    100,
		"db_max_idle_conns":    25,
		"db_conn_max_lifetime": 3600,

		"storage_type":       "local",
		"storage_local_path": "./data/images",
		"minio_use_ssl":      false,
		"minio_bucket_name":  "imagebank",
		"webdav_root_path":   "/imagebank",
		"webdav_timeout":     "30s",

		"cache_type":           "memory",
		"cache_ttl":            "1h",
		"cache_max_cost_mb":    64,
		"cache_redis_addr":     "localhost:6379",
		"cache_redis_password": "",
		"cache_redis_db":       0,

		"image_processor":   "native",
		"variant_md_width":  350,
		"variant_md_height": 350,
		"variant_sm_width":  150,
		"variant_sm_height": 150,
		"jpeg_quality":      90,

		"fetch_timeout":     "30s",
		"fetch_max_size_mb": 50,
		"fetch_rps":         5.0,
		"fetch_burst":       10,

		"upload_max_size_mb": 50,

		"jwt_secret":     "",
		"jwt_expires_in": "720h",

		"rate_limit_api_rps":     30.0,
		"rate_limit_api_burst":   60,
		"rate_limit_file_rps":    100.0,
		"rate_limit_file_burst":  200,
		"rate_limit_expire_time": "10m",
	}
}

// Addr 返回监听地址，格式为 "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// BaseURL 返回基础 URL，用于生成文件链接
func (c *Config) BaseURL() string {
	if c.ServerDomain != "" {
		return c.ServerDomain
	}
	host := c.ServerHost
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.ServerPort)
}

// FetchMaxBytes 远程抓取允许的最大字节数
func (c *Config) FetchMaxBytes() int64 {
	if c.FetchMaxSizeMB <= 0 {
		return 50 << 20
	}
	return int64(c.FetchMaxSizeMB) << 20
}

// UploadMaxBytes 单次上传允许的最大字节数
func (c *Config) UploadMaxBytes() int64 {
	if c.UploadMaxSizeMB <= 0 {
		return 50 << 20
	}
	return int64(c.UploadMaxSizeMB) << 20
}
