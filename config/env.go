package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig is the process configuration read from the environment.
type AppConfig struct {
	Port      string
	DBURL     string
	JWTSecret string

	LogLevel string
	LogFile  string
	LogJSON  bool

	CORSOrigins []string

	// PublicURL is the externally visible base URL, used to verify signed
	// provider callbacks behind a proxy.
	PublicURL       string
	TwilioAuthToken string

	Clinic ClinicInfo

	ReminderSchedule  string
	ReminderWorkers   int
	ReminderBatchSize int
}

// ClinicInfo feeds the clinic placeholders of reminder templates.
type ClinicInfo struct {
	Name     string
	Address  string
	Phone    string
	Location *time.Location
}

// Load reads .env (if present) and the process environment.
// The returned bool reports whether a .env file was found.
func Load() (AppConfig, bool) {
	found := godotenv.Load() == nil

	cfg := AppConfig{
		Port:      getEnv("PORT", "8080"),
		DBURL:     os.Getenv("DB_URL"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),
		LogJSON:  getBool("LOG_JSON", false),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		PublicURL:       os.Getenv("PUBLIC_URL"),
		TwilioAuthToken: os.Getenv("TWILIO_AUTH_TOKEN"),

		Clinic: ClinicInfo{
			Name:     os.Getenv("CLINIC_NAME"),
			Address:  os.Getenv("CLINIC_ADDRESS"),
			Phone:    os.Getenv("CLINIC_PHONE"),
			Location: loadLocation(os.Getenv("CLINIC_TIMEZONE")),
		},

		ReminderSchedule:  getEnv("REMINDER_SCHEDULE", "@every 5m"),
		ReminderWorkers:   getInt("REMINDER_WORKERS", 1),
		ReminderBatchSize: getInt("REMINDER_BATCH_SIZE", 100),
	}
	return cfg, found
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func loadLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}
