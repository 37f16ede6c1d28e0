// Package client implements the viewer side of the live leaderboard:
// it consumes the stream endpoint when it can, falls back to polling
// when it can't, and annotates each snapshot with the viewer's own city.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"

	"civicwatch/models"
	"civicwatch/services"
)

// DefaultPollInterval matches the reference 10s polling fallback
const DefaultPollInterval = 10 * time.Second

// Row is one rendered leaderboard entry. Highlight marks the viewer's
// own city; it never changes which rows are fetched, only how they show.
type Row struct {
	models.CityAggregate
	Highlight bool `json:"highlight"`
}

// Renderer receives every reconciled snapshot. An empty rows slice means
// "no entries yet"; RenderError replaces the table with a failure notice.
type Renderer interface {
	RenderRows(rows []Row)
	RenderError(message string)
}

// Options configures a Reconciler
type Options struct {
	BaseURL      string
	Limit        int
	PollInterval time.Duration
	ViewerCity   func() string
	HTTPClient   *http.Client
}

// Reconciler drives the leaderboard view. At any instant exactly one of
// the two transport modes is active: the streaming channel, or the
// polling timer it degrades to when streaming fails.
type Reconciler struct {
	baseURL      string
	limit        int
	pollInterval time.Duration
	viewerCity   func() string
	httpClient   *http.Client
	renderer     Renderer
}

func New(opts Options, renderer Renderer) *Reconciler {
	r := &Reconciler{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		limit:        opts.Limit,
		pollInterval: opts.PollInterval,
		viewerCity:   opts.ViewerCity,
		httpClient:   opts.HTTPClient,
		renderer:     renderer,
	}
	if r.limit <= 0 {
		r.limit = services.DefaultLimit
	}
	if r.pollInterval <= 0 {
		r.pollInterval = DefaultPollInterval
	}
	if r.httpClient == nil {
		r.httpClient = http.DefaultClient
	}
	return r
}

// Run blocks until ctx is cancelled. It starts in streaming mode and
// drops to polling on any channel-level error; the degradation is never
// surfaced as a fatal error to the viewer.
func (r *Reconciler) Run(ctx context.Context) {
	if err := r.stream(ctx); err != nil {
		log.Warnf("Streaming channel failed, falling back to polling: %v", err)
		r.poll(ctx)
	}
}

// stream consumes the SSE endpoint. It returns nil when ctx is done and
// an error when the channel itself breaks, which triggers the fallback.
func (r *Reconciler) stream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/leaderboard/stream", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream returned HTTP %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var payload []byte
	for scanner.Scan() {
		line := scanner.Text()
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			payload = append(payload, data...)
			continue
		}
		if line == "" && len(payload) > 0 {
			r.renderSnapshot(payload)
			payload = nil
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	// Server closed the stream; treat like any other channel error.
	return fmt.Errorf("stream ended unexpectedly")
}

// poll fetches one snapshot immediately, then on a fixed interval until
// ctx is cancelled
func (r *Reconciler) poll(ctx context.Context) {
	r.fetchOnce(ctx)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.fetchOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reconciler) fetchOnce(ctx context.Context) {
	url := fmt.Sprintf("%s/api/leaderboard?limit=%d", r.baseURL, r.limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		r.renderer.RenderError("failed to load leaderboard")
		return
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			r.renderer.RenderError("failed to load leaderboard")
		}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.renderer.RenderError("failed to load leaderboard")
		return
	}

	var snapshot models.LeaderboardResponse
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		r.renderer.RenderError("failed to load leaderboard")
		return
	}

	r.renderer.RenderRows(r.annotate(snapshot.Data))
}

// renderSnapshot parses one stream frame. A malformed payload becomes a
// visible error row, never a crash.
func (r *Reconciler) renderSnapshot(payload []byte) {
	var snapshot models.LeaderboardResponse
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		log.Warnf("Invalid stream payload: %v", err)
		r.renderer.RenderError("invalid leaderboard data")
		return
	}
	r.renderer.RenderRows(r.annotate(snapshot.Data))
}

// annotate flags rows whose city matches the viewer's own city,
// case-insensitively. The original case is preserved for display.
func (r *Reconciler) annotate(aggregates []models.CityAggregate) []Row {
	city := ""
	if r.viewerCity != nil {
		city = r.viewerCity()
	}

	rows := make([]Row, 0, len(aggregates))
	for _, a := range aggregates {
		rows = append(rows, Row{
			CityAggregate: a,
			Highlight:     city != "" && strings.EqualFold(a.City, city),
		})
	}
	return rows
}
