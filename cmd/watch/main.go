// Dev/test client: follows the live leaderboard from a terminal,
// highlighting the configured city.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/apex/log"

	"civicwatch/client"
)

var (
	serviceURL   = flag.String("service_url", "http://127.0.0.1:8080", "Base URL of the civicwatch service")
	city         = flag.String("city", "", "Viewer city to highlight")
	limit        = flag.Int("limit", 25, "Number of leaderboard rows to request when polling")
	pollInterval = flag.Duration("poll_interval", 10*time.Second, "Polling interval used when streaming is unavailable")
)

type consoleRenderer struct{}

func (consoleRenderer) RenderRows(rows []client.Row) {
	if len(rows) == 0 {
		fmt.Println("No entries yet")
		return
	}
	fmt.Printf("%-4s %-24s %7s %7s %7s\n", "#", "CITY", "TOTAL", "ACTIVE", "CLOSED")
	for i, row := range rows {
		marker := " "
		if row.Highlight {
			marker = "*"
		}
		fmt.Printf("%-4d %-24s %7d %7d %7d %s\n", i+1, row.City, row.Total, row.Active, row.Closed, marker)
	}
	fmt.Println()
}

func (consoleRenderer) RenderError(message string) {
	fmt.Printf("!! %s\n", message)
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reconciler := client.New(client.Options{
		BaseURL:      *serviceURL,
		Limit:        *limit,
		PollInterval: *pollInterval,
		ViewerCity:   func() string { return *city },
	}, consoleRenderer{})

	log.Infof("Watching leaderboard at %s", *serviceURL)
	reconciler.Run(ctx)
}
