package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lcalzada-xor/softapd/internal/core/domain"
)

// Config holds all daemon configuration.
type Config struct {
	Addr                  string
	DBPath                string
	CountryCode           string
	MockMode              bool
	Debug                 bool
	Mode                  domain.TargetMode
	Requestor             string
	PcapDir               string
	ShutdownTimeoutMillis int64
	BridgedIdleMillis     int64
	MaxClients            int
	Bands                 []domain.Band
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() *Config {
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.Addr = getEnv("SOFTAPD_ADDR", "127.0.0.1:8090")
	cfg.DBPath = getEnv("SOFTAPD_DB", getDefaultDBPath())
	cfg.CountryCode = getEnv("SOFTAPD_COUNTRY", "")
	cfg.MockMode = getEnvBool("SOFTAPD_MOCK", false)
	cfg.PcapDir = getEnv("SOFTAPD_PCAP_DIR", "")
	cfg.ShutdownTimeoutMillis = getEnvInt64("SOFTAPD_SHUTDOWN_MS", 600000)
	cfg.BridgedIdleMillis = getEnvInt64("SOFTAPD_BRIDGED_IDLE_MS", 300000)
	modeStr := getEnv("SOFTAPD_MODE", "tethered")
	bandStr := getEnv("SOFTAPD_BANDS", "2g")

	// Command Line Flags (Override Env)
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Ops HTTP server address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database")
	flag.StringVar(&cfg.CountryCode, "country", cfg.CountryCode, "Regulatory country code (ISO 3166-1 alpha-2)")
	flag.BoolVar(&cfg.MockMode, "mock", cfg.MockMode, "Run against the mock driver (no AP hardware needed)")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose per-event logging")
	flag.StringVar(&modeStr, "mode", modeStr, "Target mode: tethered or local-only")
	flag.StringVar(&cfg.Requestor, "requestor", "softapd", "Requestor name reported to the driver")
	flag.StringVar(&cfg.PcapDir, "pcap-dir", cfg.PcapDir, "Directory for AP packet captures (empty to disable)")
	flag.Int64Var(&cfg.ShutdownTimeoutMillis, "shutdown-ms", cfg.ShutdownTimeoutMillis, "Default auto-shutdown timeout in milliseconds")
	flag.Int64Var(&cfg.BridgedIdleMillis, "bridged-idle-ms", cfg.BridgedIdleMillis, "Default bridged idle-instance timeout in milliseconds")
	flag.IntVar(&cfg.MaxClients, "max-clients", 0, "User client limit (0 uses the hardware cap)")
	flag.StringVar(&bandStr, "bands", bandStr, "Requested bands, comma separated (2g,5g,6g)")

	flag.Parse()

	cfg.Mode = parseMode(modeStr)
	cfg.Bands = parseBands(bandStr)

	return cfg
}

func parseMode(s string) domain.TargetMode {
	if strings.EqualFold(strings.TrimSpace(s), "local-only") {
		return domain.ModeLocalOnly
	}
	return domain.ModeTethered
}

func parseBands(s string) []domain.Band {
	var bands []domain.Band
	for _, p := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "2g", "2.4g", "2.4ghz":
			bands = append(bands, domain.Band2GHz)
		case "5g", "5ghz":
			bands = append(bands, domain.Band5GHz)
		case "6g", "6ghz":
			bands = append(bands, domain.Band6GHz)
		case "":
		default:
			log.Printf("Warning: unknown band %q ignored", p)
		}
	}
	if len(bands) == 0 {
		bands = append(bands, domain.Band2GHz)
	}
	return bands
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getDefaultDBPath returns the default database path in user's home directory.
// Creates the directory if it doesn't exist.
func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return "softapd.db"
	}

	dir := filepath.Join(home, ".softapd")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Warning: Could not create .softapd directory, using current dir: %v", err)
		return "softapd.db"
	}

	return filepath.Join(dir, "softapd.db")
}
