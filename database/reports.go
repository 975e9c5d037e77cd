// microboard/database/reports.go
package database

import (
	"fmt"
	"net"

	"microboard/models"
	"microboard/utils"
)

// CreateReport appends a moderation report for a post. Reports are
// write-once: nothing in the store updates or deletes them. The report type
// is validated against the configured set by the caller before it gets here.
func (ds *DatabaseService) CreateReport(ip net.IP, boardID string, postID int64, reportType string) (int64, error) {
	res, err := ds.DB.Exec("INSERT INTO reports (ip, timestamp, board_id, post_id, type) VALUES (?, ?, ?, ?, ?)",
		[]byte(ip), utils.GetSQLTime(), boardID, postID, reportType)
	if err != nil {
		return 0, fmt.Errorf("db error inserting report: %w", err)
	}
	return res.LastInsertId()
}

// ListReports returns the most recent reports for the moderation view.
func (ds *DatabaseService) ListReports(limit int) ([]models.Report, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit %d: %w", limit, ErrValidation)
	}
	rows, err := ds.DB.Query("SELECT id, ip, timestamp, board_id, post_id, type FROM reports ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("db error listing reports: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListReports", "error", err)
		}
	}()

	var reports []models.Report
	for rows.Next() {
		var r models.Report
		var ip []byte
		if err := rows.Scan(&r.ID, &ip, &r.Timestamp, &r.BoardID, &r.PostID, &r.Type); err != nil {
			ds.logger.Error("Failed to scan report row", "error", err)
			continue
		}
		r.IP = ip
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}
