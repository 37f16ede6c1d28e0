package models

import "time"

// Report statuses. A report only ever moves Active -> Closed.
const (
	StatusActive = "Active"
	StatusClosed = "Closed"
)

// Severity levels accepted on report creation
var Severities = []string{"Low", "Medium", "High", "Severe", "Critical"}

// ValidSeverity reports whether s is one of the accepted severity levels
func ValidSeverity(s string) bool {
	for _, v := range Severities {
		if v == s {
			return true
		}
	}
	return false
}

// Report represents a citizen-submitted issue report
type Report struct {
	ID                 int64     `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	ReporterName       string    `json:"reporter_name"`
	Severity           string    `json:"severity"`
	ImageURL           string    `json:"image_url,omitempty"`
	City               string    `json:"city"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	Status             string    `json:"status"`
	ResolutionImageURL string    `json:"resolution_image_url,omitempty"`
	ResolutionNotes    string    `json:"resolution_notes,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CreateReportRequest represents the request to submit a new report
type CreateReportRequest struct {
	Title        string  `json:"title" binding:"required"`
	Description  string  `json:"description" binding:"required"`
	ReporterName string  `json:"reporter_name"`
	Severity     string  `json:"severity" binding:"required"`
	ImageURL     string  `json:"image_url"`
	City         string  `json:"city" binding:"required"`
	Latitude     float64 `json:"latitude" binding:"required"`
	Longitude    float64 `json:"longitude" binding:"required"`
}

// CloseReportRequest carries the proof of closure from an official
type CloseReportRequest struct {
	ResolutionImageURL string `json:"resolution_image_url"`
	ResolutionNotes    string `json:"resolution_notes"`
}

// CityAggregate is the per-city rollup of report counts by status.
// Total is always Active + Closed.
type CityAggregate struct {
	City   string `json:"city"`
	Total  int    `json:"total"`
	Active int    `json:"active"`
	Closed int    `json:"closed"`
}

// LeaderboardResponse wraps one complete leaderboard snapshot.
// The same shape is used for the REST endpoint and for every
// frame pushed over the stream.
type LeaderboardResponse struct {
	Data []CityAggregate `json:"data"`
}

// KPIResponse represents the public dashboard counters
type KPIResponse struct {
	Total  int `json:"total"`
	Open   int `json:"open"`
	Severe int `json:"severe"`
	Users  int `json:"users"`
}

// User represents an account that can log in
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest represents the authentication request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents the authentication response
type TokenResponse struct {
	Token string `json:"token"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	Timestamp        string `json:"timestamp"`
	ConnectedClients int    `json:"connected_clients"`
	LastBroadcastSeq int    `json:"last_broadcast_seq"`
}
