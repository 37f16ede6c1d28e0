package handlers

import (
	"database/sql/driver"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicwatch/broadcast"
	"civicwatch/database"
	"civicwatch/models"
)

var reportColumnNames = []string{
	"id", "title", "description", "reporter_name", "severity",
	"image_url", "city", "latitude", "longitude", "status",
	"resolution_image_url", "resolution_notes", "created_at", "updated_at",
}

func reportRow(id int64, city, status string) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id, "Pothole", "Deep pothole on main road", "Asha", "High",
		"", city, 18.52, 73.85, status,
		"", "", now, now,
	}
}

func newReportRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reports := database.NewReportService(db)
	hub := broadcast.NewHub(&stubSource{payload: `{"data":[]}`})
	handler := NewReportHandler(reports, hub)

	r := gin.New()
	r.POST("/api/reports", handler.CreateReport)
	r.GET("/api/reports", handler.ListReports)
	r.GET("/api/reports/kpis", handler.KPIs)
	r.GET("/api/reports/geojson", handler.GeoJSON)
	r.GET("/api/reports/:id", handler.GetReport)
	r.PATCH("/api/reports/:id/close", handler.CloseReport)
	return r, mock
}

func TestCreateReportValidation(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{
			name: "Missing city",
			body: `{"title":"Pothole","description":"bad","severity":"High","latitude":18.52,"longitude":73.85}`,
		},
		{
			name: "Missing title",
			body: `{"description":"bad","severity":"High","city":"Pune","latitude":18.52,"longitude":73.85}`,
		},
		{
			name: "Invalid severity",
			body: `{"title":"Pothole","description":"bad","severity":"Apocalyptic","city":"Pune","latitude":18.52,"longitude":73.85}`,
		},
	}

	for _, tc := range testCases {
		r, _ := newReportRouter(t)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, tc.name)
	}
}

func TestCreateReport(t *testing.T) {
	r, mock := newReportRouter(t)

	mock.ExpectExec("INSERT INTO reports (.+) VALUES (.+)").
		WithArgs("Pothole", "Deep pothole on main road", "Asha", "High", "", "Pune", 18.52, 73.85).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT (.+) FROM reports WHERE id = (.+)").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(reportColumnNames).AddRow(reportRow(7, "Pune", models.StatusActive)...))

	body := `{"title":"Pothole","description":"Deep pothole on main road","reporter_name":"Asha","severity":"High","city":"Pune","latitude":18.52,"longitude":73.85}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"report_id":7`)
}

func TestGetReportNotFound(t *testing.T) {
	r, mock := newReportRouter(t)

	mock.ExpectQuery("SELECT (.+) FROM reports WHERE id = (.+)").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(reportColumnNames))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/reports/99", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCloseReportRequiresProof(t *testing.T) {
	r, _ := newReportRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/reports/3/close", strings.NewReader(`{"resolution_notes":"done"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "resolution image is required")
}

func TestCloseReportAlreadyClosed(t *testing.T) {
	r, mock := newReportRouter(t)

	mock.ExpectExec("UPDATE reports SET status = (.+) WHERE id = (.+) AND status = (.+)").
		WithArgs(models.StatusClosed, "https://img.example/proof.jpg", "", int64(3), models.StatusActive).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM reports WHERE id = (.+)").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(reportColumnNames).AddRow(reportRow(3, "Pune", models.StatusClosed)...))

	w := httptest.NewRecorder()
	body := `{"resolution_image_url":"https://img.example/proof.jpg"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/reports/3/close", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already closed")
}

func TestCloseReportSuccess(t *testing.T) {
	r, mock := newReportRouter(t)

	mock.ExpectExec("UPDATE reports SET status = (.+) WHERE id = (.+) AND status = (.+)").
		WithArgs(models.StatusClosed, "https://img.example/proof.jpg", "fixed", int64(3), models.StatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM reports WHERE id = (.+)").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(reportColumnNames).AddRow(reportRow(3, "Pune", models.StatusClosed)...))

	w := httptest.NewRecorder()
	body := `{"resolution_image_url":"https://img.example/proof.jpg","resolution_notes":"fixed"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/reports/3/close", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"Closed"`)
}

func TestGeoJSONExport(t *testing.T) {
	r, mock := newReportRouter(t)

	mock.ExpectQuery("SELECT (.+) FROM reports ORDER BY created_at DESC").
		WillReturnRows(sqlmock.NewRows(reportColumnNames).AddRow(reportRow(1, "Pune", models.StatusActive)...))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/reports/geojson", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"FeatureCollection"`)
	assert.Contains(t, w.Body.String(), `"Point"`)
}

func TestKPIs(t *testing.T) {
	r, mock := newReportRouter(t)

	mock.ExpectQuery("SELECT COUNT(.+) FROM reports").
		WillReturnRows(sqlmock.NewRows([]string{"total", "open", "severe", "users"}).AddRow(3, 2, 1, 2))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/reports/kpis", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":3,"open":2,"severe":1,"users":2}`, w.Body.String())
}
