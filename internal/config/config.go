package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config gathers everything the process reads from the environment.
// Workflow tunables (reminder window, sweep schedule) live here so they
// are configuration, not literals buried in the engine.
type Config struct {
	Port  string
	DBDSN string

	// AdminEmails are the addresses allowed to register with the ADMIN
	// role. The first entry is also the admin notification target.
	AdminEmails []string

	// SweepCron is the schedule of the daily expiry sweep.
	SweepCron string
	// ReminderWindow is how far ahead the sweep looks for near-expiry
	// lots worth reminding donors about.
	ReminderWindow time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	CORSOrigins []string
}

// Load reads configs/.env if present and resolves all settings with
// development defaults.
func Load() Config {
	_ = godotenv.Load("configs/.env")

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		SweepCron:      getEnv("SWEEP_CRON", "0 9 * * *"),
		ReminderWindow: time.Duration(getEnvInt("REMINDER_WINDOW_DAYS", 7)) * 24 * time.Hour,
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnvInt("SMTP_PORT", 587),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:       getEnv("SMTP_FROM", "noreply@medshare.local"),
	}

	cfg.DBDSN = "postgres://" + getEnv("DB_USER", "postgres") +
		":" + getEnv("DB_PASSWORD", "postgres") +
		"@" + getEnv("DB_HOST", "localhost") +
		":" + getEnv("DB_PORT", "5432") +
		"/" + getEnv("DB_NAME", "medshare") +
		"?sslmode=" + getEnv("DB_SSLMODE", "disable")

	for _, e := range strings.Split(getEnv("ADMIN_EMAILS", ""), ",") {
		if e = strings.TrimSpace(e); e != "" {
			cfg.AdminEmails = append(cfg.AdminEmails, e)
		}
	}

	origins := getEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	return cfg
}

// AdminNotifyEmail is the address workflow notifications are copied to.
func (c Config) AdminNotifyEmail() string {
	if len(c.AdminEmails) > 0 {
		return c.AdminEmails[0]
	}
	return ""
}

// SMTPEnabled reports whether outbound mail is configured at all.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
