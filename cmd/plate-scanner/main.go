package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/christmasair/plate-scanner/config"
	"github.com/christmasair/plate-scanner/internal/equipment"
	"github.com/christmasair/plate-scanner/internal/pipeline"
	"github.com/christmasair/plate-scanner/internal/report"
	"github.com/christmasair/plate-scanner/internal/servicetitan"
	"github.com/christmasair/plate-scanner/internal/storage"
	"github.com/christmasair/plate-scanner/internal/vision"
	"github.com/christmasair/plate-scanner/internal/warranty"
)

const logFileName = "plate-scanner.log"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	config.LoadEnvFile()

	jobID := flag.Int64("job", 0, "ServiceTitan job id to attach results to")
	push := flag.Bool("push", false, "push equipment records to ServiceTitan")
	concurrency := flag.Int("concurrency", pipeline.DefaultConcurrency, "parallel photo workers")
	headful := flag.Bool("headful", false, "run warranty lookups in a visible browser")
	minDelay := flag.Duration("min-delay", warranty.DefaultMinDelay, "per-host floor between warranty site requests")
	noCache := flag.Bool("no-cache", false, "skip the warranty lookup cache")
	outDir := flag.String("out", "", "also write each report to a .txt file in this directory")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <photo-or-dir>...\n\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	setupLogging()

	if os.Getenv("GEMINI_API_KEY") == "" {
		log.Fatal().Msg("GEMINI_API_KEY is not set")
	}
	if *push {
		for _, name := range []string{"SERVICETITAN_TENANT_ID", "SERVICETITAN_CLIENT_ID", "SERVICETITAN_CLIENT_SECRET", "SERVICETITAN_APP_KEY"} {
			if os.Getenv(name) == "" {
				log.Fatal().Msgf("%s is not set", name)
			}
		}
		if *jobID == 0 {
			log.Fatal().Msg("-push requires -job")
		}
	}

	photos, err := collectPhotos(flag.Args())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to collect photos")
	}
	if len(photos) == 0 {
		log.Fatal().Msg("no photos found in the given paths")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer, err := vision.NewGeminiAnalyzer(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize vision analyzer")
	}

	store := openStore()
	if store != nil {
		defer store.Close()
	}

	driver := warranty.NewDriver(warranty.Opts{MinDelay: *minDelay, Headful: *headful})
	log.Info().Dur("minDelay", driver.MinDelay()).Msg("warranty lookups rate limited per host")

	opts := pipeline.Opts{
		Analyzer:   analyzer,
		Lookup:     driver,
		Thresholds: report.DefaultThresholds(),
	}
	if store != nil && !*noCache {
		opts.Cache = store
	}
	pipe := pipeline.New(opts)

	start := time.Now()
	results := pipe.ProcessBatch(ctx, photos, *concurrency)
	log.Info().Int("photos", len(photos)).Dur("elapsed", time.Since(start)).Msg("batch complete")

	ok := printAndJournal(results, store, *jobID, *outDir)

	if *push {
		if err := pushToServiceTitan(ctx, results, *jobID, store); err != nil {
			log.Fatal().Err(err).Msg("failed to push results to ServiceTitan")
		}
	}

	if !ok {
		os.Exit(1)
	}
}

func setupLogging() {
	// JOURNAL_STREAM is set by systemd; journald handles persistence there.
	if _, underSystemd := os.LookupEnv("JOURNAL_STREAM"); underSystemd {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return
	}

	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		log.Warn().Err(err).Msg("failed to open log file, logging to stderr only")
		return
	}

	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}
	fileWriter := zerolog.ConsoleWriter{Out: logFile, NoColor: true}
	log.Logger = log.Output(io.MultiWriter(consoleWriter, fileWriter))
}

var photoExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// collectPhotos expands the given files and directories into pipeline
// inputs. Directories are scanned one level deep for image files.
func collectPhotos(paths []string) ([]pipeline.Photo, error) {
	var photos []pipeline.Photo

	addFile := func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		photos = append(photos, pipeline.Photo{Path: path, Data: data})
		return nil
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if err := addFile(path); err != nil {
				return nil, err
			}
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !photoExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
				continue
			}
			if err := addFile(filepath.Join(path, entry.Name())); err != nil {
				return nil, err
			}
		}
	}

	return photos, nil
}

// openStore opens the scan journal / lookup cache. Failure is non-fatal;
// the scanner works without persistence.
func openStore() *storage.Store {
	dataDir, err := config.DataDir()
	if err != nil {
		log.Warn().Err(err).Msg("no data dir, running without journal or cache")
		return nil
	}

	passphrase := os.Getenv("SCANNER_TOKEN_KEY")
	if passphrase == "" {
		passphrase = config.AppName
	}

	store, err := storage.NewStore(filepath.Join(dataDir, "scans.db"), storage.DeriveKey(passphrase))
	if err != nil {
		log.Warn().Err(err).Msg("failed to open store, running without journal or cache")
		return nil
	}
	return store
}

// printAndJournal writes each report to stdout (and outDir when set) and
// records it in the scan journal. Returns false when any photo failed
// outright.
func printAndJournal(results []pipeline.BatchResult, store *storage.Store, jobID int64, outDir string) bool {
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			log.Warn().Err(err).Str("dir", outDir).Msg("failed to create output dir")
			outDir = ""
		}
	}

	ok := true
	for _, r := range results {
		fmt.Printf("=== %s ===\n", r.Photo.Path)
		if r.Err != nil {
			fmt.Printf("processing failed: %v\n\n", r.Err)
			ok = false
			continue
		}
		fmt.Println(r.Result.Output.Report)

		if outDir != "" {
			base := strings.TrimSuffix(filepath.Base(r.Photo.Path), filepath.Ext(r.Photo.Path))
			outPath := filepath.Join(outDir, base+".txt")
			if err := os.WriteFile(outPath, []byte(r.Result.Output.Report), 0644); err != nil {
				log.Warn().Err(err).Str("path", outPath).Msg("failed to write report file")
			}
		}

		if store == nil {
			continue
		}
		_, err := store.RecordScan(&storage.ScanEntry{
			PhotoPath:    r.Photo.Path,
			JobID:        jobID,
			Serial:       r.Result.Record.Serial,
			Manufacturer: r.Result.Record.Manufacturer,
			LookupStatus: r.Result.Record.Warranty.Status,
			Record:       *r.Result.Record,
			Report:       r.Result.Output.Report,
		})
		if err != nil {
			log.Warn().Err(err).Str("photo", r.Photo.Path).Msg("failed to journal scan")
		}
	}
	return ok
}

// pushToServiceTitan upserts equipment records on the job's location,
// attaches the plate photos, and appends a scan section to the job summary.
func pushToServiceTitan(ctx context.Context, results []pipeline.BatchResult, jobID int64, store *storage.Store) error {
	opts := servicetitan.ClientOpts{
		TenantID:     os.Getenv("SERVICETITAN_TENANT_ID"),
		ClientID:     os.Getenv("SERVICETITAN_CLIENT_ID"),
		ClientSecret: os.Getenv("SERVICETITAN_CLIENT_SECRET"),
		AppKey:       os.Getenv("SERVICETITAN_APP_KEY"),
	}
	if store != nil {
		opts.TokenStore = store
	}
	client := servicetitan.NewClient(opts)

	job, err := client.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to fetch job %d: %w", jobID, err)
	}

	var summaryLines []string
	now := time.Now()

	for _, r := range results {
		if r.Err != nil || r.Result.NotPlate {
			continue
		}

		payload := r.Result.Output.Payload
		payload.LocationID = job.LocationID

		eq, err := client.CreateOrUpdateEquipment(ctx, payload)
		if err != nil {
			log.Error().Err(err).Str("photo", r.Photo.Path).Msg("failed to upsert equipment")
			continue
		}

		if err := client.UploadAttachment(ctx, eq.ID, filepath.Base(r.Photo.Path), r.Photo.Data); err != nil {
			log.Warn().Err(err).Int64("equipmentId", eq.ID).Msg("failed to attach plate photo")
		}

		summaryLines = append(summaryLines, report.SummaryLine(r.Result.Record, now))
		logPush(r.Result.Record, eq.ID)
	}

	if len(summaryLines) == 0 {
		log.Info().Msg("nothing to push")
		return nil
	}

	return client.UpdateJobSummary(ctx, jobID, strings.Join(summaryLines, "\n"))
}

func logPush(rec *equipment.Record, equipmentID int64) {
	log.Info().
		Int64("equipmentId", equipmentID).
		Str("manufacturer", rec.Manufacturer).
		Str("serial", rec.Serial).
		Msg("pushed equipment record")
}
