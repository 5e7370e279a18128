package main

import (
	"os"
	"strings"
)

// Config holds all service settings, read from the environment.
type Config struct {
	MongoURI     string
	MongoDB      string
	Port         string
	JWTSecret    string
	ArtifactsDir string

	// LedgerMode selects the anchor implementation: "simulated" or "remote".
	LedgerMode string
	LedgerURL  string

	AutoAnchor     bool
	AllowedOrigins []string
	Env            string
	CodeCommit     string
}

func mustConfig() Config {
	return Config{
		MongoURI:     getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      getenv("MONGO_DB", "carbonacre"),
		Port:         getenv("PORT", "8080"),
		JWTSecret:    getenv("JWT_SECRET", "change_me"),
		ArtifactsDir: getenv("ARTIFACTS_DIR", "./artifacts"),
		LedgerMode:   getenv("LEDGER_MODE", "simulated"),
		LedgerURL:    getenv("LEDGER_URL", "http://127.0.0.1:9000"),
		AutoAnchor:   strings.ToLower(getenv("AUTO_ANCHOR", "false")) == "true",
		AllowedOrigins: strings.Split(
			getenv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"), ","),
		Env:        getenv("APP_ENV", "dev"),
		CodeCommit: getenv("CODE_COMMIT", "unknown"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
