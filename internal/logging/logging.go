// Package logging builds the slog handlers used by the ruvy CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Output formats accepted by NewHandler.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Levels accepted by the setup functions. "trace" is debug plus the caller of each log line.
var Levels = []string{"trace", "debug", "info", "warn", "error"}

// NewHandler returns a handler for the given format, or an error if the format or level is unknown.
func NewHandler(format, logLevel string, writer io.Writer) (slog.Handler, error) {
	if !validLevel(logLevel) {
		return nil, fmt.Errorf("invalid log level %q: must be one of %s", logLevel, strings.Join(Levels, ", "))
	}
	switch strings.ToLower(format) {
	case FormatText, "":
		return SetupHandlerText(logLevel, writer), nil
	case FormatJSON:
		return SetupHandlerJSON(logLevel, writer), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: must be %s or %s", format, FormatText, FormatJSON)
	}
}

func validLevel(logLevel string) bool {
	switch strings.ToLower(logLevel) {
	case "", "warning":
		return true
	}
	for _, l := range Levels {
		if strings.EqualFold(l, logLevel) {
			return true
		}
	}
	return false
}

// SetupHandlerText configures a colored text handler. A nil writer means os.Stderr.
func SetupHandlerText(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stderr
	}

	reportCaller := false
	reportTimestamp := false
	lvl := log.InfoLevel
	switch strings.ToLower(logLevel) {
	case "trace":
		reportCaller = true
		reportTimestamp = true
		lvl = log.DebugLevel
	case "debug":
		reportTimestamp = true
		lvl = log.DebugLevel
	case "warn", "warning":
		lvl = log.WarnLevel
	case "error":
		lvl = log.ErrorLevel
	}

	logger := log.NewWithOptions(writer, log.Options{
		ReportTimestamp: reportTimestamp,
		ReportCaller:    reportCaller,
		Level:           lvl,
		Prefix:          "ruvy",
	})
	logger.SetStyles(styles())
	return logger
}

// styles shortens the level labels to four letters, so messages line up.
func styles() *log.Styles {
	s := log.DefaultStyles()
	label := func(level log.Level, text string, color lipgloss.Color) {
		s.Levels[level] = lipgloss.NewStyle().SetString(text).Bold(true).MaxWidth(4).Foreground(color)
	}
	label(log.DebugLevel, "DEBU", lipgloss.Color("63"))
	label(log.InfoLevel, "INFO", lipgloss.Color("86"))
	label(log.WarnLevel, "WARN", lipgloss.Color("192"))
	label(log.ErrorLevel, "ERRO", lipgloss.Color("204"))
	s.Prefix = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	return s
}

// SetupHandlerJSON configures a JSON handler. A nil writer means os.Stderr, leaving stdout to the program.
func SetupHandlerJSON(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stderr
	}

	reportCaller := false
	var level slog.Level

	switch strings.ToLower(logLevel) {
	case "trace":
		reportCaller = true
		level = slog.LevelDebug
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level:     level,
		AddSource: reportCaller,
	})
}
