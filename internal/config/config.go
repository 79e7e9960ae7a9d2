package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env              string              `yaml:"env" env:"ENV" env-default:"local"`
	DSN              string              `yaml:"dsn" env:"DSN" env-required:"true"`
	TokenSecret      string              `yaml:"token_secret" env:"TOKEN_SECRET" env-required:"true"`
	AccessTokenTTL   time.Duration       `yaml:"access_token_ttl" env-default:"15m"`
	RefreshTokenTTL  time.Duration       `yaml:"refresh_token_ttl" env-default:"168h"`
	SessionSecret    string              `yaml:"session_secret" env:"SESSION_SECRET" env-required:"true"`
	PlaceholderImage string              `yaml:"placeholder_image" env-default:"/images/gallery-placeholder.svg"`
	HTTP             HTTPConfig          `yaml:"http"`
	ObjectStorage    ObjectStorageConfig `yaml:"object_storage"`
	Staging          StagingConfig       `yaml:"staging"`
	Redis            RedisConf           `yaml:"redis"`
	Sweeper          SweeperConfig       `yaml:"sweeper"`
	Admin            AdminConfig         `yaml:"admin"`
}

type HTTPConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"2m"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
	BodyLimit       string        `yaml:"body_limit" env-default:"100M"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:","`
}

type ObjectStorageConfig struct {
	Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT" env-required:"true"`
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"S3_BUCKET" env-default:"church"`
	PublicURL string `yaml:"public_url" env:"S3_PUBLIC_URL"`
	UseSSL    bool   `yaml:"use_ssl" env:"S3_USE_SSL"`
}

// StagingConfig файлы, выбранные в форме галереи до сохранения
type StagingConfig struct {
	BaseDir     string        `yaml:"base_dir" env-default:"./staging"`
	BaseURL     string        `yaml:"base_url" env-default:"/api/v1/previews"`
	SessionTTL  time.Duration `yaml:"session_ttl" env-default:"2h"`
	MaxFileSize int64         `yaml:"max_file_size" env-default:"20971520"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redispassword" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db"`
}

type SweeperConfig struct {
	Enabled       bool          `yaml:"enabled" env-default:"true"`
	Schedule      string        `yaml:"schedule" env-default:"@every 6h"`
	GracePeriod   time.Duration `yaml:"grace_period" env-default:"24h"`
	PreviewMaxAge time.Duration `yaml:"preview_max_age" env-default:"24h"`
	DryRun        bool          `yaml:"dry_run"`
}

// AdminConfig учетная запись, создаваемая при первом запуске
type AdminConfig struct {
	Name     string `yaml:"name" env-default:"Administrator"`
	Email    string `yaml:"email" env:"ADMIN_EMAIL"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
