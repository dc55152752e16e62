// config.go - Handles configuration for the project

package config // Declares the package name

import ( // Import required packages
	"os"      // For reading environment variables
	"strconv" // For numeric env values
	"time"    // For token lifetime

	"github.com/joho/godotenv" // Optional .env file for local development
)

type Config struct { // Config struct holds all configuration values
	Port        string        // HTTP listen port
	Env         string        // development | production
	DBPath      string        // Path to the SQLite database file
	MQTTBroker  string        // Address of the MQTT broker (empty disables event publishing)
	MQTTClient  string        // MQTT client id
	JWTSecret   string        // Secret key for JWT signing, immutable after Load
	JWTExpiry   time.Duration // Lifetime of issued tokens
	LoginPerMin int           // Login attempts allowed per minute per client IP

	CreateAdmin   bool   // Seed a default admin when none exists
	AdminName     string // Seeded admin display name
	AdminEmail    string // Seeded admin email
	AdminPassword string // Seeded admin password (plain, hashed at seed time)
}

// Load reads config from environment variables or uses defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load() // Missing .env is fine

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("APP_ENV", "development"),
		DBPath:      getEnv("DB_PATH", "data.db"),
		MQTTBroker:  getEnv("MQTT_BROKER", ""),
		MQTTClient:  getEnv("MQTT_CLIENT_ID", "go-ratings-backend"),
		JWTSecret:   getEnv("JWT_SECRET", "supersecret"),
		JWTExpiry:   getDuration("JWT_EXPIRES_IN", 7*24*time.Hour),
		LoginPerMin: getInt("LOGIN_RATE_PER_MIN", 20),

		CreateAdmin:   getBool("CREATE_ADMIN", false),
		AdminName:     getEnv("ADMIN_NAME", "Super Administrator Account"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@mail.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}
}

// IsProduction reports whether the process runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string { // Helper to get env var or fallback
	if value := os.Getenv(key); value != "" { // If env var is set, use it
		return value
	}
	return fallback // Otherwise, use fallback value
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

// getDuration accepts Go durations ("168h") and day suffixes ("7d").
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if n := len(raw); n > 1 && raw[n-1] == 'd' {
		days, err := strconv.Atoi(raw[:n-1])
		if err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour
		}
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
