// The kiosk loads the scraped dataset once and cycles fixed-size windows
// of projects on a timer. It is the display half of the system; it never
// talks to the source site.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/openfab-lab/showcase-scraper/config"
	"github.com/openfab-lab/showcase-scraper/dataset"
	"github.com/openfab-lab/showcase-scraper/display"
	"github.com/openfab-lab/showcase-scraper/models"
)

func main() {
	defaults, err := config.Load(os.Getenv("SHOWCASE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if value, ok := config.EnvString("SHOWCASE_DATASET"); ok {
		defaults.DatasetSource = value
	}

	source := flag.String("dataset", defaults.DatasetSource, "Dataset location: file path or http(s) URL")
	intervalSec := flag.Int("interval", int(defaults.CycleInterval/time.Second), "Seconds between window advances")
	windowSize := flag.Int("window", defaults.WindowSize, "Number of projects shown at once")
	verbose := flag.Bool("v", defaults.Verbose, "Enable verbose logging")
	flag.Parse()

	level := &slog.LevelVar{}
	if *verbose {
		level.Set(slog.LevelDebug)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ds, err := dataset.Load(*source)
	if err != nil {
		// The dataset-load failure is the kiosk's error panel.
		fmt.Fprintf(os.Stderr, "\n  Could not load the project dataset.\n  %v\n\n", err)
		os.Exit(1)
	}

	cycler, err := display.NewCycler(ds, *windowSize, time.Duration(*intervalSec)*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n  Nothing to display.\n  %v\n\n", err)
		os.Exit(1)
	}
	cycler.OnAdvance = func(window []models.ProjectRecord) {
		render(window, cycler.Cursor(), ds.TotalProjects)
	}

	slog.Info("kiosk started",
		slog.String("source", *source),
		slog.Int("projects", ds.TotalProjects),
		slog.Int("window", *windowSize),
		slog.String("updated", ds.LastUpdated),
	)

	render(cycler.Window(), cycler.Cursor(), ds.TotalProjects)
	cycler.Start()

	go readKeys(cycler)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	cycler.Stop()
	fmt.Println()
}

// readKeys maps n/p/q lines on stdin onto manual window jumps. A manual
// jump restarts the cycle timer so the next automatic advance is a full
// interval away.
func readKeys(cycler *display.Cycler) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "n", "next":
			cycler.Next()
		case "p", "prev":
			cycler.PrevWindow()
		case "q", "quit":
			cycler.Stop()
			os.Exit(0)
		}
	}
}

func render(window []models.ProjectRecord, cursor, total int) {
	fmt.Print("\033[H\033[2J")
	fmt.Printf("Student Project Showcase — %d projects, showing from #%d\n", total, cursor+1)
	fmt.Println(strings.Repeat("=", 72))
	for _, record := range window {
		title := record.Title
		if record.Author != "" {
			title = fmt.Sprintf("%s — %s", title, record.Author)
		}
		fmt.Printf("  %-48s %s\n", truncate(title, 48), strings.Join(record.Tags, ", "))
	}
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println("n: next window   p: previous window   q: quit")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
