package database

import (
	"time"

	"statuswatch/app/internal/models"
)

// LogLevel constants
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// LogCategory constants
const (
	LogCategoryCheck    = "check"
	LogCategoryAlert    = "alert"
	LogCategoryStorage  = "storage"
	LogCategorySystem   = "system"
	LogCategorySchedule = "schedule"
)

// DefaultKeepLogs is how many entries PruneLogs keeps after each cycle.
const DefaultKeepLogs = 10000

const timestampLayout = "2006-01-02 15:04:05"

// InsertLog adds a new log entry stamped with the current UTC time
func (db *DB) InsertLog(level, category, site, message, details string) error {
	_, err := db.conn.Exec(`INSERT INTO system_logs (timestamp, level, category, site, message, details)
		VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(timestampLayout), level, category, site, message, details)
	return err
}

// GetLogs retrieves logs, newest first, with optional filtering
func (db *DB) GetLogs(limit int, level, category, site string, offset int) ([]models.LogEntry, error) {
	query := `SELECT id, timestamp, level, category, COALESCE(site, ''), message, COALESCE(details, '')
		FROM system_logs WHERE 1=1`
	args := []any{}

	if level != "" {
		query += " AND level = ?"
		args = append(args, level)
	}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	if site != "" {
		query += " AND site = ?"
		args = append(args, site)
	}

	query += " ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.LogEntry{}
	for rows.Next() {
		var e models.LogEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Level, &e.Category, &e.Site, &e.Message, &e.Details); err != nil {
			return nil, err
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}

// GetLogStats returns counts per level
func (db *DB) GetLogStats() (*models.LogStats, error) {
	var stats models.LogStats
	err := db.conn.QueryRow(`SELECT
		COUNT(*),
		COALESCE(SUM(level = 'error'), 0),
		COALESCE(SUM(level = 'warn'), 0),
		COALESCE(SUM(level = 'info'), 0),
		COALESCE(SUM(level = 'debug'), 0)
		FROM system_logs`).Scan(&stats.TotalLogs, &stats.ErrorCount, &stats.WarnCount, &stats.InfoCount, &stats.DebugCount)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// PruneLogs keeps only the newest keepCount entries
func (db *DB) PruneLogs(keepCount int) error {
	_, err := db.conn.Exec(`DELETE FROM system_logs WHERE id NOT IN (
		SELECT id FROM system_logs ORDER BY timestamp DESC, id DESC LIMIT ?
	)`, keepCount)
	return err
}
