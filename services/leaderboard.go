package services

import (
	"context"
	"encoding/json"

	"civicwatch/database"
	"civicwatch/models"
)

const (
	// DefaultLimit is used when the caller doesn't ask for a row count.
	// It is also the fixed limit for every broadcast frame.
	DefaultLimit = 25
	// MaxLimit is the hard cap on leaderboard rows per snapshot
	MaxLimit = 500
)

// LeaderboardService computes ranked per-city snapshots over the report
// store. It holds no state of its own; every snapshot is recomputed from
// a single consistent read.
type LeaderboardService struct {
	reports *database.ReportService
}

func NewLeaderboardService(reports *database.ReportService) *LeaderboardService {
	return &LeaderboardService{reports: reports}
}

// ClampLimit forces a requested row count into [1, MaxLimit].
// Non-positive values fall back to DefaultLimit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// ComputeLeaderboard returns the top cities by total report count,
// sorted descending, at most limit rows
func (s *LeaderboardService) ComputeLeaderboard(ctx context.Context, limit int) ([]models.CityAggregate, error) {
	return s.reports.GetCityAggregates(ctx, ClampLimit(limit))
}

// Snapshot computes one default-limit leaderboard and marshals it in the
// wire shape shared by the REST endpoint and every stream frame
func (s *LeaderboardService) Snapshot(ctx context.Context) ([]byte, error) {
	aggregates, err := s.ComputeLeaderboard(ctx, DefaultLimit)
	if err != nil {
		return nil, err
	}
	return json.Marshal(models.LeaderboardResponse{Data: aggregates})
}
