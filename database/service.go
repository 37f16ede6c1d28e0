package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/apex/log"

	"civicwatch/models"
)

var (
	// ErrReportNotFound is returned when a report id does not exist
	ErrReportNotFound = errors.New("report not found")
	// ErrReportClosed is returned when closing a report that is already closed
	ErrReportClosed = errors.New("report is already closed")
)

// UnknownCityLabel buckets legacy rows whose city value is empty.
// The write path rejects an empty city, so this only shows up for
// data imported from before that check existed.
const UnknownCityLabel = "Unknown City"

// ReportService provides access to the reports table
type ReportService struct {
	db *sql.DB
}

func NewReportService(db *sql.DB) *ReportService {
	return &ReportService{db: db}
}

const reportColumns = `id, title, description, reporter_name, severity,
		COALESCE(image_url, ''), city, latitude, longitude, status,
		COALESCE(resolution_image_url, ''), COALESCE(resolution_notes, ''),
		created_at, updated_at`

// InsertReport stores a new report and returns it with its assigned id
func (s *ReportService) InsertReport(ctx context.Context, req *models.CreateReportRequest) (*models.Report, error) {
	reporter := req.ReporterName
	if reporter == "" {
		reporter = "Anonymous User"
	}

	result, err := s.db.ExecContext(ctx, `INSERT
		INTO reports (title, description, reporter_name, severity, image_url, city, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		req.Title, req.Description, reporter, req.Severity, req.ImageURL, req.City, req.Latitude, req.Longitude)
	if err != nil {
		log.Errorf("Failed to insert report: %v", err)
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted report id: %w", err)
	}

	return s.GetReportByID(ctx, id)
}

// GetAllReports returns every report, newest first
func (s *ReportService) GetAllReports(ctx context.Context) ([]models.Report, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+reportColumns+`
		FROM reports
		ORDER BY created_at DESC`)
	if err != nil {
		log.Errorf("Could not retrieve reports: %v", err)
		return nil, err
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// GetReportByID returns one report or ErrReportNotFound
func (s *ReportService) GetReportByID(ctx context.Context, id int64) (*models.Report, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reportColumns+`
		FROM reports
		WHERE id = ?`, id)

	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CloseReport marks an active report as closed with proof of resolution.
// Closing is terminal: a closed report never goes back to active.
func (s *ReportService) CloseReport(ctx context.Context, id int64, proofURL, notes string) (*models.Report, error) {
	if proofURL == "" {
		return nil, fmt.Errorf("resolution image is required to close a report")
	}

	result, err := s.db.ExecContext(ctx, `UPDATE reports
		SET status = ?, resolution_image_url = ?, resolution_notes = ?
		WHERE id = ? AND status = ?`,
		models.StatusClosed, proofURL, notes, id, models.StatusActive)
	if err != nil {
		log.Errorf("Failed to close report %d: %v", id, err)
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Either the report doesn't exist or it was already closed.
		existing, err := s.GetReportByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing.Status == models.StatusClosed {
			return nil, ErrReportClosed
		}
		return nil, fmt.Errorf("failed to close report %d", id)
	}

	return s.GetReportByID(ctx, id)
}

// GetCityAggregates groups reports by city and returns the top cities by
// total report count. Ties are broken by city name ascending so snapshots
// are reproducible. An empty reports table yields an empty slice.
func (s *ReportService) GetCityAggregates(ctx context.Context, limit int) ([]models.CityAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		IF(city = '', ?, city) AS city_name,
		COUNT(*) AS total,
		SUM(IF(status = 'Active', 1, 0)) AS active,
		SUM(IF(status = 'Closed', 1, 0)) AS closed
		FROM reports
		GROUP BY city_name
		ORDER BY total DESC, city_name ASC
		LIMIT ?`, UnknownCityLabel, limit)
	if err != nil {
		log.Errorf("Could not aggregate reports by city: %v", err)
		return nil, err
	}
	defer rows.Close()

	aggregates := []models.CityAggregate{}
	for rows.Next() {
		var a models.CityAggregate
		if err := rows.Scan(&a.City, &a.Total, &a.Active, &a.Closed); err != nil {
			return nil, err
		}
		aggregates = append(aggregates, a)
	}
	return aggregates, rows.Err()
}

// GetKPIs computes the public dashboard counters in a single read
func (s *ReportService) GetKPIs(ctx context.Context) (*models.KPIResponse, error) {
	row := s.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(IF(status = 'Active', 1, 0)), 0),
		COALESCE(SUM(IF(severity IN ('Severe', 'Critical'), 1, 0)), 0),
		COUNT(DISTINCT reporter_name)
		FROM reports`)

	kpis := &models.KPIResponse{}
	if err := row.Scan(&kpis.Total, &kpis.Open, &kpis.Severe, &kpis.Users); err != nil {
		log.Errorf("Could not compute KPIs: %v", err)
		return nil, err
	}
	return kpis, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	r := &models.Report{}
	err := row.Scan(&r.ID, &r.Title, &r.Description, &r.ReporterName, &r.Severity,
		&r.ImageURL, &r.City, &r.Latitude, &r.Longitude, &r.Status,
		&r.ResolutionImageURL, &r.ResolutionNotes, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}
