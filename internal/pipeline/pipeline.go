// Package pipeline runs the full plate-to-report flow: OCR the photo,
// resolve the brand, look up the warranty, assemble the report and the
// ServiceTitan payload.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/christmasair/plate-scanner/internal/equipment"
	"github.com/christmasair/plate-scanner/internal/report"
	"github.com/christmasair/plate-scanner/internal/vision"
	"github.com/christmasair/plate-scanner/internal/warranty"
)

// Lookuper performs a warranty lookup against a manufacturer site.
// *warranty.Driver is the real implementation.
type Lookuper interface {
	Lookup(ctx context.Context, site warranty.Site, serial, model string) equipment.Warranty
}

// Cache stores lookup results between runs. *storage.Store is the real
// implementation; nil disables caching.
type Cache interface {
	GetCachedWarranty(brand, serial string) (*equipment.Warranty, error)
	PutCachedWarranty(brand, serial string, w equipment.Warranty) error
}

type Opts struct {
	Analyzer   vision.Analyzer
	Lookup     Lookuper
	Cache      Cache
	Thresholds report.Thresholds
	// Now supplies the clock for age math and alerting. Defaults to
	// time.Now; tests pin it.
	Now func() time.Time
}

type Pipeline struct {
	analyzer  vision.Analyzer
	lookup    Lookuper
	cache     Cache
	assembler *report.Assembler
	now       func() time.Time
}

func New(opts Opts) *Pipeline {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		analyzer:  opts.Analyzer,
		lookup:    opts.Lookup,
		cache:     opts.Cache,
		assembler: report.NewAssembler(opts.Thresholds),
		now:       now,
	}
}

// Result is the outcome of processing one photo.
type Result struct {
	PhotoPath string
	// NotPlate is set when the vision model decided the photo is not an
	// equipment data plate. Record and Output are still populated so the
	// caller has something to show.
	NotPlate bool
	Record   *equipment.Record
	Output   report.Output
	Usage    vision.Usage
}

// Process runs one photo through the pipeline. Lookup failures become a
// status on the record, not an error; an error is returned only when the
// OCR call itself fails.
func (p *Pipeline) Process(ctx context.Context, photoPath string, photo []byte) (*Result, error) {
	res, err := p.analyzer.AnalyzePlate(ctx, photo)
	if err != nil {
		return nil, err
	}

	rec := &equipment.Record{}
	result := &Result{PhotoPath: photoPath, Record: rec, Usage: res.Usage}

	if !res.Reading.IsDataPlate {
		log.Info().Str("photo", photoPath).Msg("photo is not a data plate")
		result.NotPlate = true
		rec.Warranty = equipment.Warranty{Status: equipment.StatusInsufficientData}
		result.Output = p.assembler.Assemble(rec, p.now())
		return result, nil
	}

	vision.PopulateRecord(rec, res.Reading)
	rec.Warranty = p.lookupWarranty(ctx, rec)
	rec.ResolveInstallDate()
	result.Output = p.assembler.Assemble(rec, p.now())

	log.Info().
		Str("photo", photoPath).
		Str("manufacturer", rec.Manufacturer).
		Str("serial", rec.Serial).
		Str("lookupStatus", string(rec.Warranty.Status)).
		Int("alerts", len(result.Output.Alerts)).
		Msg("processed plate photo")

	return result, nil
}

func (p *Pipeline) lookupWarranty(ctx context.Context, rec *equipment.Record) equipment.Warranty {
	if !rec.CanLookup() {
		return equipment.Warranty{Status: equipment.StatusInsufficientData}
	}

	brand, ok := equipment.ResolveBrand(rec.Manufacturer)
	if !ok {
		return equipment.Warranty{Status: equipment.StatusUnsupportedBrand}
	}

	site, ok := warranty.SiteFor(brand)
	if !ok {
		return equipment.Warranty{Status: equipment.StatusUnsupportedBrand}
	}

	if p.cache != nil {
		cached, err := p.cache.GetCachedWarranty(brand, rec.Serial)
		if err != nil {
			log.Warn().Err(err).Msg("warranty cache read failed")
		} else if cached != nil {
			log.Debug().Str("brand", brand).Str("serial", rec.Serial).Msg("warranty cache hit")
			return *cached
		}
	}

	w := p.lookup.Lookup(ctx, site, rec.Serial, rec.Model)

	if p.cache != nil {
		if err := p.cache.PutCachedWarranty(brand, rec.Serial, w); err != nil {
			log.Warn().Err(err).Msg("warranty cache write failed")
		}
	}

	return w
}

// Photo is one batch input.
type Photo struct {
	Path string
	Data []byte
}

// BatchResult pairs a photo with its outcome. Err is set when OCR failed
// for that photo; the rest of the batch is unaffected.
type BatchResult struct {
	Photo  Photo
	Result *Result
	Err    error
}

// DefaultConcurrency caps parallel OCR calls. Warranty lookups are further
// serialized per host by the driver's rate limiter, so a higher value here
// mostly overlaps vision API latency.
const DefaultConcurrency = 3

// ProcessBatch processes photos concurrently, preserving input order in the
// returned slice. A failing photo never aborts the batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, photos []Photo, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]BatchResult, len(photos))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, photo := range photos {
		g.Go(func() error {
			res, err := p.Process(ctx, photo.Path, photo.Data)
			if err != nil {
				log.Error().Err(err).Str("photo", photo.Path).Msg("photo processing failed")
			}
			results[i] = BatchResult{Photo: photo, Result: res, Err: err}
			return nil
		})
	}

	// Goroutines never return errors, so Wait only synchronizes.
	_ = g.Wait()

	return results
}
