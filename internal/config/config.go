package config

import "os"

type Config struct {
	HTTPAddr      string
	MySQLDSN      string
	RedisAddr     string
	RedisPoolSize int
}

func Load() Config {
	return Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		MySQLDSN:      getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/storefront?parseTime=true"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPoolSize: 100,
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
