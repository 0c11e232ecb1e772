package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SSLMode    string

	RedisAddr     string
	RedisPassword string
	AlarmCacheTTL time.Duration

	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string

	ServerPort string
	JWTSecret  string
	JWTTTL     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "gridscope"),
		SSLMode:    getEnv("SSL_MODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		AlarmCacheTTL: parseMinutes(getEnv("ALARM_CACHE_TTL_MINUTES", "5")),

		InfluxURL:    getEnv("INFLUX_URL", ""),
		InfluxToken:  getEnv("INFLUX_TOKEN", ""),
		InfluxOrg:    getEnv("INFLUX_ORG", "gridscope"),
		InfluxBucket: getEnv("INFLUX_BUCKET", "measurements"),

		ServerPort: getEnv("SERVER_PORT", ":8081"),
		JWTSecret:  getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-this-in-production"),
		JWTTTL:     parseHours(getEnv("JWT_TTL_HOURS", "24")),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseHours(hoursStr string) time.Duration {
	hours, err := strconv.Atoi(hoursStr)
	if err != nil {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

func parseMinutes(minutesStr string) time.Duration {
	minutes, err := strconv.Atoi(minutesStr)
	if err != nil {
		minutes = 5
	}
	return time.Duration(minutes) * time.Minute
}
