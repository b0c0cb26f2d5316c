package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays Config fields from environment variables. Unset or
// unparsable values leave the current value untouched.
//
// Recognized variables:
//
//	HTTP_ADDR          bind address
//	DATABASE_URL       PostgreSQL DSN
//	OTP_LENGTH         code length, digits
//	OTP_TTL_SECONDS    code time-to-live, seconds
//	ARGON_TIME_COST    argon2id iterations
//	ARGON_MEMORY_KIB   argon2id memory, KiB
//	ARGON_PARALLELISM  argon2id lanes
//	SMTP_URL           mail gateway base URL
//	SMTP_TIMEOUT       mail request timeout, seconds
//	SMTP_MAX_RETRIES   mail attempt budget
func parseEnv(cfg *Config) {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v, ok := envInt("OTP_LENGTH"); ok {
		cfg.OTPLength = v
	}
	if v, ok := envInt("OTP_TTL_SECONDS"); ok {
		cfg.OTPTTL = time.Duration(v) * time.Second
	}
	if v, ok := envInt("ARGON_TIME_COST"); ok {
		cfg.HashTimeCost = uint32(v)
	}
	if v, ok := envInt("ARGON_MEMORY_KIB"); ok {
		cfg.HashMemoryKiB = uint32(v)
	}
	if v, ok := envInt("ARGON_PARALLELISM"); ok {
		cfg.HashParallelism = uint8(v)
	}
	if v := os.Getenv("SMTP_URL"); v != "" {
		cfg.MailBaseURL = v
	}
	if v, ok := envInt("SMTP_TIMEOUT"); ok {
		cfg.MailTimeout = time.Duration(v) * time.Second
	}
	if v, ok := envInt("SMTP_MAX_RETRIES"); ok {
		cfg.MailMaxRetries = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
