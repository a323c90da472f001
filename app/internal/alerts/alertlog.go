package alerts

import (
	"fmt"
	"io"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"statuswatch/app/internal/models"
)

// AlertLog appends one line per dispatch attempt:
//
//	2025-03-01 12:04:00 UTC | site | down | Sent
type AlertLog struct {
	mu sync.Mutex
	w  io.Writer
}

// NewAlertLog opens a size-rotated alert log at path.
func NewAlertLog(path string) *AlertLog {
	return &AlertLog{w: &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // MB
		MaxBackups: 3,
		MaxAge:     90, // days
	}}
}

// NewAlertLogWriter writes alert lines to w.
func NewAlertLogWriter(w io.Writer) *AlertLog {
	return &AlertLog{w: w}
}

// FormatLine renders a single alert log line without the trailing newline.
func FormatLine(t time.Time, site string, status models.Status, sent bool) string {
	result := "Failed"
	if sent {
		result = "Sent"
	}
	return fmt.Sprintf("%s UTC | %s | %s | %s", t.UTC().Format("2006-01-02 15:04:05"), site, status, result)
}

func (l *AlertLog) Write(t time.Time, site string, status models.Status, sent bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := io.WriteString(l.w, FormatLine(t, site, status, sent)+"\n")
	return err
}

// Close releases the underlying file, if any.
func (l *AlertLog) Close() error {
	if c, ok := l.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
