package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	geojson "github.com/paulmach/go.geojson"

	"civicwatch/broadcast"
	"civicwatch/database"
	"civicwatch/models"
)

// ReportHandler serves the report CRUD endpoints
type ReportHandler struct {
	reports *database.ReportService
	hub     *broadcast.Hub
}

func NewReportHandler(reports *database.ReportService, hub *broadcast.Hub) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		hub:     hub,
	}
}

// CreateReport handles POST /api/reports
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req models.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	if !models.ValidSeverity(req.Severity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid severity"})
		return
	}

	report, err := h.reports.InsertReport(c.Request.Context(), &req)
	if err != nil {
		log.Errorf("Create report failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create report"})
		return
	}

	// Fan out without blocking the response. A failed broadcast never
	// fails the request that triggered it.
	go h.broadcastAsync()

	c.JSON(http.StatusCreated, gin.H{
		"message":   "report created successfully",
		"report_id": report.ID,
	})
}

// ListReports handles GET /api/reports, newest first
func (h *ReportHandler) ListReports(c *gin.Context) {
	reports, err := h.reports.GetAllReports(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reports"})
		return
	}
	c.JSON(http.StatusOK, reports)
}

// GetReport handles GET /api/reports/:id
func (h *ReportHandler) GetReport(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	report, err := h.reports.GetReportByID(c.Request.Context(), id)
	if err == database.ErrReportNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch report"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// CloseReport handles PATCH /api/reports/:id/close (government/admin only)
func (h *ReportHandler) CloseReport(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	var req models.CloseReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
		return
	}
	if req.ResolutionImageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "resolution image is required"})
		return
	}

	report, err := h.reports.CloseReport(c.Request.Context(), id, req.ResolutionImageURL, req.ResolutionNotes)
	if err == database.ErrReportNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	if err == database.ErrReportClosed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "report is already closed"})
		return
	}
	if err != nil {
		log.Errorf("Close report %d failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to close report"})
		return
	}

	go h.broadcastAsync()

	c.JSON(http.StatusOK, gin.H{
		"message": "report closed successfully",
		"report":  report,
	})
}

// KPIs handles GET /api/reports/kpis
func (h *ReportHandler) KPIs(c *gin.Context) {
	kpis, err := h.reports.GetKPIs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute KPIs"})
		return
	}
	c.JSON(http.StatusOK, kpis)
}

// GeoJSON handles GET /api/reports/geojson for the map page
func (h *ReportHandler) GeoJSON(c *gin.Context) {
	reports, err := h.reports.GetAllReports(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reports"})
		return
	}

	fc := geojson.NewFeatureCollection()
	for _, r := range reports {
		feature := geojson.NewPointFeature([]float64{r.Longitude, r.Latitude})
		feature.SetProperty("id", r.ID)
		feature.SetProperty("title", r.Title)
		feature.SetProperty("severity", r.Severity)
		feature.SetProperty("status", r.Status)
		feature.SetProperty("city", r.City)
		fc.AddFeature(feature)
	}

	c.JSON(http.StatusOK, fc)
}

func (h *ReportHandler) broadcastAsync() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.hub.Broadcast(ctx); err != nil {
		log.Warnf("Broadcast after report mutation failed: %v", err)
	}
}
