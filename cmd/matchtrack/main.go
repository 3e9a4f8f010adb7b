// matchtrack runs the match analysis pipeline over a recorded detection
// dump and writes the full result as JSON. With -db the run is also
// persisted to a sqlite results database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/matchvision/pitchtrack/internal/config"
	"github.com/matchvision/pitchtrack/internal/pitch/analysis"
	"github.com/matchvision/pitchtrack/internal/pitch/detect"
	sqlitestore "github.com/matchvision/pitchtrack/internal/pitch/storage/sqlite"
	"github.com/matchvision/pitchtrack/internal/units"
	"github.com/matchvision/pitchtrack/internal/version"
)

func main() {
	input := flag.String("input", "", "Detection dump file (JSON lines)")
	configPath := flag.String("config", "", "Analysis config JSON (defaults applied when empty)")
	homography := flag.String("homography", "", "Homography matrix as 9 comma-separated values, row major")
	corners := flag.String("corners", "", "Pitch corner pixels as 8 comma-separated values: TL,TR,BR,BL x,y pairs")
	fieldLength := flag.Float64("field-length", 105, "Field length in meters (used with -corners)")
	fieldWidth := flag.Float64("field-width", 68, "Field width in meters (used with -corners)")
	clipsArg := flag.String("clips", "", "Clip ranges in seconds, e.g. 0-30,120-150 (empty analyzes the full video)")
	out := flag.String("out", "", "Output JSON path (stdout when empty)")
	dbPath := flag.String("db", "", "Optional sqlite database to persist the run")
	speedUnits := flag.String("speed-units", units.MPS, "Display units for the run summary: mps, kph or mph")
	quiet := flag.Bool("quiet", false, "Suppress progress output")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("matchtrack %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if !units.IsValid(*speedUnits) {
		fmt.Fprintf(os.Stderr, "matchtrack: unknown -speed-units %q (valid: %s)\n",
			*speedUnits, strings.Join(units.ValidUnits, ", "))
		os.Exit(2)
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "matchtrack: -input is required")
		flag.Usage()
		os.Exit(2)
	}

	dump, err := detect.OpenDumpFile(*input)
	if err != nil {
		log.Fatalf("[CLI] %v", err)
	}

	cfg := config.DefaultAnalysisConfig()
	if *configPath != "" {
		cfg, err = config.LoadAnalysisConfig(*configPath)
		if err != nil {
			log.Fatalf("[CLI] %v", err)
		}
	}

	hg, err := buildHomography(*homography, *corners, *fieldLength, *fieldWidth)
	if err != nil {
		log.Fatalf("[CLI] %v", err)
	}

	clips, err := parseClipArg(*clipsArg)
	if err != nil {
		log.Fatalf("[CLI] %v", err)
	}

	opts := analysis.Options{
		Config:     cfg,
		Source:     dump,
		Detector:   dump,
		Homography: hg,
	}
	if !*quiet {
		opts.Progress = func(current, total int, message string) {
			log.Printf("[CLI] %d/%d %s", current, total, message)
		}
	}

	analyzer, err := analysis.New(opts)
	if err != nil {
		log.Fatalf("[CLI] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := analyzer.Analyze(ctx, clips)

	if *dbPath != "" {
		store, err := sqlitestore.Open(*dbPath)
		if err != nil {
			log.Fatalf("[CLI] %v", err)
		}
		runID, err := store.InsertResult("", result)
		store.Close()
		if err != nil {
			log.Fatalf("[CLI] persist result: %v", err)
		}
		log.Printf("[CLI] run persisted as %s", runID)
	}

	if err := writeResult(*out, result); err != nil {
		log.Fatalf("[CLI] %v", err)
	}
	if !*quiet {
		printSummary(result, *speedUnits)
	}

	if !result.Success {
		log.Printf("[CLI] analysis failed (%s): %s", result.ErrorType, result.Error)
		os.Exit(1)
	}
}

// printSummary writes a short per-player digest to stderr with speeds
// in the requested display units.
func printSummary(result *analysis.Result, speedUnits string) {
	if len(result.Stats) == 0 {
		return
	}
	ids := make([]int, 0, len(result.Stats))
	for id := range result.Stats {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	suffix := units.Suffix(speedUnits)
	fmt.Fprintf(os.Stderr, "players tracked: %d, passes: %d, pressing events: %d\n",
		len(result.Stats), len(result.Passes), len(result.PressingEvents))
	for _, id := range ids {
		st := result.Stats[id]
		fmt.Fprintf(os.Stderr, "  player %d (team %s): %.1f m covered, max %.1f %s, avg %.1f %s, %d sprints\n",
			id, st.Team, st.TotalDistance,
			units.ConvertSpeed(st.MaxSpeed, speedUnits), suffix,
			units.ConvertSpeed(st.AvgSpeed, speedUnits), suffix,
			st.Sprints)
	}
}

func writeResult(path string, result *analysis.Result) error {
	var w *os.File
	if path == "" {
		w = os.Stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
