package config

import (
	"flag"
	"os"
	"time"

	"github.com/dkorchagin/activation/internal/flagx"
)

// parseFlags overlays selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-l int      OTP length, digits
//	-t int      OTP time-to-live, seconds
//	-m string   mail gateway base URL
//	-r int      mail attempt budget
//
// os.Args is pre-filtered with flagx.FilterArgs so unrelated flags do
// not break parsing.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-l", "-t", "-m", "-r"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "address and port to run server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	otpLength := fs.Int("l", cfg.OTPLength, "otp length (digits)")
	otpTTL := fs.Int("t", int(cfg.OTPTTL.Seconds()), "otp time-to-live (seconds)")
	fs.StringVar(&cfg.MailBaseURL, "m", cfg.MailBaseURL, "mail gateway base URL")
	fs.IntVar(&cfg.MailMaxRetries, "r", cfg.MailMaxRetries, "mail attempt budget")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OTPLength = *otpLength
	cfg.OTPTTL = time.Duration(*otpTTL) * time.Second
}
