// Package console prints test progress with a colored severity marker per line.
package console

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

const markerField = "marker"

// Markers understood by the formatter.
const (
	MarkerInfo      = "INFO"
	MarkerSuccess   = "SUCCESS"
	MarkerWarning   = "WARNING"
	MarkerError     = "ERROR"
	MarkerSetup     = "SETUP"
	MarkerTeardown  = "TEARDOWN"
	MarkerAuth      = "AUTH"
	MarkerTestStart = "TEST START"
	MarkerTestEnd   = "TEST END"
	MarkerFailure   = "FAILURE"
)

// Line prefixes other tools look for in captured test output.
const (
	// ScreenshotSaved precedes the path of a failure screenshot.
	ScreenshotSaved = "[" + MarkerFailure + "] Screenshot saved: "
	// Deselected starts the skip message of a test filtered out by category.
	Deselected = "[DESELECTED]"
)

var markerColors = map[string]*color.Color{
	MarkerInfo:      color.New(color.FgCyan),
	MarkerSuccess:   color.New(color.FgGreen),
	MarkerWarning:   color.New(color.FgYellow),
	MarkerError:     color.New(color.FgRed),
	MarkerSetup:     color.New(color.FgCyan),
	MarkerTeardown:  color.New(color.FgCyan),
	MarkerAuth:      color.New(color.FgCyan),
	MarkerTestStart: color.New(color.FgYellow),
	MarkerTestEnd:   color.New(color.FgYellow),
	MarkerFailure:   color.New(color.FgRed),
}

// Logger is a thin leveled logger. The zero value is not usable; use New.
type Logger struct {
	log *logrus.Logger
}

// New returns a Logger writing to out. Colors follow fatih/color's TTY detection.
func New(out io.Writer) *Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&MarkerFormatter{})
	return &Logger{log: l}
}

// Stdout is New(os.Stdout).
func Stdout() *Logger {
	return New(os.Stdout)
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(io.Discard)
}

// Logrus exposes the underlying logger, e.g. to attach hooks.
func (l *Logger) Logrus() *logrus.Logger {
	return l.log
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log.WithField(markerField, MarkerInfo).Infof(format, args...)
}

func (l *Logger) Success(format string, args ...interface{}) {
	l.log.WithField(markerField, MarkerSuccess).Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log.WithField(markerField, MarkerWarning).Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log.WithField(markerField, MarkerError).Errorf(format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log.WithField(markerField, "DEBUG").Debugf(format, args...)
}

// Tagged logs at info level under an explicit marker such as MarkerSetup.
func (l *Logger) Tagged(marker string, format string, args ...interface{}) {
	entry := l.log.WithField(markerField, marker)
	switch marker {
	case MarkerError, MarkerFailure:
		entry.Errorf(format, args...)
	default:
		entry.Infof(format, args...)
	}
}

// Rule prints a horizontal separator line.
func (l *Logger) Rule() {
	l.log.WithField(markerField, "").Info(strings.Repeat("=", 80))
}

// MarkerFormatter renders "[MARKER] message". Without a marker field the
// level name is used.
type MarkerFormatter struct {
	DisableColors bool
}

// Format implements logrus.Formatter.
func (f *MarkerFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	marker, ok := entry.Data[markerField].(string)
	if !ok {
		marker = levelMarker(entry.Level)
	}

	var b bytes.Buffer
	if marker == "" {
		b.WriteString(entry.Message)
		b.WriteByte('\n')
		return b.Bytes(), nil
	}

	line := fmt.Sprintf("[%s] %s", marker, entry.Message)
	if c, found := markerColors[marker]; found && !f.DisableColors {
		line = c.Sprint(line)
	}
	b.WriteString(line)
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func levelMarker(level logrus.Level) string {
	switch level {
	case logrus.WarnLevel:
		return MarkerWarning
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return MarkerError
	case logrus.DebugLevel, logrus.TraceLevel:
		return "DEBUG"
	default:
		return MarkerInfo
	}
}
