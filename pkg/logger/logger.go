// Package logger prints leveled, colored log rows to the console.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type color string

// Level logging level, smaller is more severe
type Level int

const (
	reset  color = "\033[0m"
	cyan   color = "\033[36m"
	blue   color = "\033[34m"
	yellow color = "\033[33m"
	red    color = "\033[31m"
	gray   color = "\033[90m"
)

const (
	LevelErr     Level = 1
	LevelWarn    Level = 2
	LevelInfo    Level = 3
	LevelVerbose Level = 4
	LevelDebug   Level = 5
)

var levelNames = map[string]Level{
	"err":     LevelErr,
	"error":   LevelErr,
	"warn":    LevelWarn,
	"info":    LevelInfo,
	"verbose": LevelVerbose,
	"debug":   LevelDebug,
}

var colorMap = map[Level]color{
	LevelErr:     red,
	LevelWarn:    yellow,
	LevelInfo:    cyan,
	LevelVerbose: gray,
	LevelDebug:   blue,
}

var (
	mu       sync.Mutex
	maxLevel           = LevelInfo
	out      io.Writer = os.Stderr
	colored            = true
)

// ParseLevel converts a level name like "warn" to Level
func ParseLevel(name string) (Level, error) {
	lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown log level: %q", name)
	}
	return lvl, nil
}

// SetMaxLevel rows above level are dropped
func SetMaxLevel(level Level) {
	mu.Lock()
	maxLevel = level
	mu.Unlock()
}

// SetOutput redirects log rows to w. Colors are only emitted for os.Stderr
// and os.Stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	colored = w == os.Stderr || w == os.Stdout
	mu.Unlock()
}

func Error(format string, args ...interface{}) {
	logRow(LevelErr, format, args...)
}

func Warn(format string, args ...interface{}) {
	logRow(LevelWarn, format, args...)
}

func Info(format string, args ...interface{}) {
	logRow(LevelInfo, format, args...)
}

func Verbose(format string, args ...interface{}) {
	logRow(LevelVerbose, format, args...)
}

func Debug(format string, args ...interface{}) {
	logRow(LevelDebug, format, args...)
}

func logRow(level Level, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if level > maxLevel {
		return
	}

	var b strings.Builder
	if colored {
		b.WriteString(string(colorMap[level]))
	}
	b.WriteString(timeString())
	fmt.Fprintf(&b, format, args...)
	if colored {
		b.WriteString(string(reset))
	}
	b.WriteString("\n")
	io.WriteString(out, b.String())
}

func timeString() string {
	hour, min, sec := time.Now().Clock()
	return fmt.Sprintf("%02d:%02d:%02d  ", hour, min, sec)
}
