// Package logger configures the global zerolog instance shared by the CLI
// and the proxy.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the logging options exposed as flags.
type Config struct {
	Level  string `long:"level" env:"LEVEL" description:"Log level (trace, debug, info, warn, error)" default:"info"`
	Format string `long:"format" env:"FORMAT" description:"Log format (console or json)" default:"console"`
	Output string `long:"output" env:"OUTPUT" description:"Log output (stdout, stderr or file path)" default:"stderr"`
}

// Setup applies the configuration to the global logger: level, destination
// and format. Unknown levels fall back to info, unopenable files to stderr.
func Setup(cfg Config) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	writer, writerErr := openWriter(cfg.Output)

	if cfg.Format == "json" {
		log.Logger = zerolog.New(writer).With().Timestamp().Logger()
	} else {
		console := zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}
		if f, ok := writer.(*os.File); ok {
			if os.Getenv("NO_COLOR") != "" || !isTerminal(f) {
				console.NoColor = true
			}
		}
		log.Logger = log.Output(console)
	}

	if writerErr != nil {
		log.Warn().Err(writerErr).Str("path", cfg.Output).Msg("Cannot open log file, using stderr")
	}
}

func openWriter(output string) (io.Writer, error) {
	switch output {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return os.Stderr, err
		}
		return file, nil
	}
}

// isTerminal reports whether the file is a character device.
func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}

	return (stat.Mode() & os.ModeCharDevice) != 0
}
