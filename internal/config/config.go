package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv    string
	HTTPPort  string
	MongoURI  string
	MongoDB   string
	RedisAddr string
	JWTSecret string
	UploadDir string

	WSReadBufferSize  int
	WSWriteBufferSize int
	WSSendBufferSize  int

	// Public base URL clients use for the WebSocket endpoint, e.g.
	// ws://localhost:8080. Empty means derive from the request host.
	WSBaseURL string
}

// Load reads configuration from the environment (.env if present).
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		HTTPPort:          getEnv("PORT", "8080"),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:           getEnv("MONGO_DB", "watchtogether"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:         getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
		UploadDir:         getEnv("UPLOAD_DIR", "static/videos"),
		WSReadBufferSize:  getEnvInt("WS_READ_BUFFER_SIZE", 1024),
		WSWriteBufferSize: getEnvInt("WS_WRITE_BUFFER_SIZE", 1024),
		WSSendBufferSize:  getEnvInt("WS_SEND_BUFFER_SIZE", 256),
		WSBaseURL:         getEnv("WS_BASE_URL", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
