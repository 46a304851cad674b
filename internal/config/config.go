package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Port string `mapstructure:"port"`
		Env  string `mapstructure:"env"`
	} `mapstructure:"app"`
	Store struct {
		Path        string        `mapstructure:"path"`
		Name        string        `mapstructure:"name"`
		Version     int           `mapstructure:"version"`
		OpenTimeout time.Duration `mapstructure:"open_timeout"`
	} `mapstructure:"store"`
	Trash struct {
		Retention     time.Duration `mapstructure:"retention"`
		PurgeInterval time.Duration `mapstructure:"purge_interval"`
	} `mapstructure:"trash"`
	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenLifespan time.Duration `mapstructure:"token_lifespan"`
	} `mapstructure:"auth"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		Channel  string `mapstructure:"channel"`
	} `mapstructure:"redis"`
	Backup struct {
		Provider string `mapstructure:"provider"`
		Folder   string `mapstructure:"folder"`
	} `mapstructure:"backup"`
	Cloudinary struct {
		CloudName string `mapstructure:"cloud_name"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
	} `mapstructure:"cloudinary"`
	MinIO struct {
		Endpoint  string `mapstructure:"endpoint"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		Bucket    string `mapstructure:"bucket"`
		UseSSL    bool   `mapstructure:"use_ssl"`
	} `mapstructure:"minio"`
	Jaeger struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"jaeger"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("store.path", "pictures.db")
	v.SetDefault("store.name", "PicturesMediaDB")
	v.SetDefault("store.version", 2)
	v.SetDefault("store.open_timeout", 5*time.Second)
	v.SetDefault("trash.retention", 30*24*time.Hour)
	v.SetDefault("trash.purge_interval", time.Hour)
	v.SetDefault("auth.token_lifespan", 30*time.Minute)
	v.SetDefault("kafka.topic", "media.events")
	v.SetDefault("redis.channel", "pictures:changes")
	v.SetDefault("backup.folder", "backups/library")
	v.SetDefault("minio.bucket", "pictures-backups")
}

// LoadConfig reads .env, then config.yaml from the given directories (default "."),
// then the environment. Missing files are not an error.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	if err := godotenv.Load(); err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	v := viper.New()
	setDefaults(v)

	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read env only. Error: %v", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.port", "APP_PORT")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("store.path", "STORE_PATH")
	v.BindEnv("store.name", "DB_NAME")
	v.BindEnv("store.version", "DB_VERSION")
	v.BindEnv("trash.purge_interval", "TRASH_PURGE_INTERVAL")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.token_lifespan", "TOKEN_LIFESPAN")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("backup.provider", "BACKUP_PROVIDER")

	v.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	v.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	v.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")

	v.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	v.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("minio.bucket", "MINIO_BUCKET")
	v.BindEnv("minio.use_ssl", "MINIO_USE_SSL")

	v.BindEnv("jaeger.otlp_endpoint", "OTLP_ENDPOINT")

	err = v.Unmarshal(&cfg)
	return
}
