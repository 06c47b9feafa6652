package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type APIConfig struct {
	Addr        string
	DataDir     string
	CatalogPath string
	CompanyCost int64
}

type WorkerConfig struct {
	DataDir      string
	ArchiveDir   string
	ArchiveEvery time.Duration
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() APIConfig {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("HUSTLE_API_ADDR", ":8080")
	}

	return APIConfig{
		Addr:        addr,
		DataDir:     envDefault("HUSTLE_DATA_DIR", "data"),
		CatalogPath: strings.TrimSpace(os.Getenv("HUSTLE_CATALOG_PATH")),
		CompanyCost: envInt64Default("HUSTLE_COMPANY_COST", 100_000),
	}
}

func LoadWorkerFromEnv() WorkerConfig {
	dataDir := envDefault("HUSTLE_DATA_DIR", "data")
	return WorkerConfig{
		DataDir:      dataDir,
		ArchiveDir:   envDefault("HUSTLE_ARCHIVE_DIR", dataDir+"/archives"),
		ArchiveEvery: envDurationDefault("HUSTLE_ARCHIVE_EVERY", 6*time.Hour),
	}
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("HSL_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt64Default(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
