package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv          string
	HTTPAddr        string
	MetricsAddr     string
	MySQLDSN        string
	RedisAddr       string
	RedisDB         int
	RedisPass       string
	CacheTTL        time.Duration
	SignalChannel   string
	Location        *time.Location
	SiteBaseURL     string
	SitecheckPages  []string
	Workers         int
	ClientRPS       int
	SubmitRPS       int
	AutoApprove     bool
	ShutdownTimeout time.Duration
}

// Load reads the environment, after an optional .env in the working directory.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env present but unreadable; using process environment")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:          env("APP_ENV", "prod"),
		HTTPAddr:        env("HTTP_ADDR", ":8080"),
		MetricsAddr:     env("METRICS_ADDR", ""),
		MySQLDSN:        env("MYSQL_DSN", "root:root@tcp(localhost:3306)/kemdeholo?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:       env("REDIS_ADDR", "localhost:6379"),
		RedisPass:       env("REDIS_PASSWORD", ""),
		RedisDB:         atoi("REDIS_DB", 0),
		CacheTTL:        time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		SignalChannel:   env("SIGNAL_CHANNEL", "refreshAdminData"),
		SiteBaseURL:     strings.TrimRight(env("SITE_BASE_URL", "http://localhost:8080"), "/"),
		SitecheckPages:  splitList(env("SITECHECK_PAGES", "index.html,chambres.html,contact.html,blog.html,temoignages.html")),
		Workers:         atoi("SITECHECK_WORKERS", 4),
		ClientRPS:       atoi("CLIENT_RPS", 10),
		SubmitRPS:       atoi("SUBMIT_RPS", 2),
		AutoApprove:     env("TESTIMONIALS_AUTO_APPROVE", "false") == "true",
		ShutdownTimeout: time.Duration(atoi("SHUTDOWN_TIMEOUT_SECONDS", 15)) * time.Second,
	}

	tz := env("SITE_TIMEZONE", "Africa/Ouagadougou")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn().Err(err).Str("tz", tz).Msg("unknown SITE_TIMEZONE, falling back to UTC")
		loc = time.UTC
	}
	c.Location = loc
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
