// Package pipeline wires configuration, parsing and enrichment into the
// contact list every tool starts from.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KI7MT/ki7mt-adif-lab/internal/adif"
	"github.com/KI7MT/ki7mt-adif-lab/internal/analysis"
	"github.com/KI7MT/ki7mt-adif-lab/internal/common"
	"github.com/KI7MT/ki7mt-adif-lab/internal/cty"
)

// Result is an enriched log.
type Result struct {
	Engine   *analysis.Engine
	Contacts []analysis.Contact
	Parse    adif.ParseStats
}

// Run loads the optional country table, builds the engine, parses the ADIF
// file and enriches every record. An ADIF file without records is not an
// error; it yields no contacts.
func Run(ctx context.Context, cfg *common.Config, log *zap.SugaredLogger, stats *common.Stats) (*Result, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if stats == nil {
		stats = common.NewStats()
	}

	table := cty.LoadOptional(cfg.Input.Cty, log)

	engine, err := analysis.NewEngine(cfg.AnalysisOptions(), table, log)
	if err != nil {
		return nil, err
	}
	log.Infof("Station: %s (%s)", engine.Options().Station, engine.Station())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	records, ps, err := adif.Load(cfg.Input.ADIF, log)
	switch {
	case errors.Is(err, adif.ErrEmpty):
		log.Warnf("%s holds no records", cfg.Input.ADIF)
	case err != nil:
		return nil, fmt.Errorf("read adif: %w", err)
	}
	stats.AddRead(ps.Records)
	stats.AddSkipped(ps.SkippedEmpty)
	stats.AddBytes(ps.BytesRead)
	log.Infof("Parsed %d records from %s in %v", ps.Records, cfg.Input.ADIF, time.Since(start).Round(time.Millisecond))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	proc := analysis.NewProcessor(engine, cfg.Analysis.Workers)
	start = time.Now()
	contacts := proc.Process(records)
	stats.AddEnriched(uint64(len(contacts)))
	log.Infof("Enriched %d contacts with %d workers in %v", len(contacts), proc.Workers(), time.Since(start).Round(time.Millisecond))

	if seen, repaired := engine.CallCounts(); repaired > 0 {
		log.Infof("Repaired %d of %d callsigns", repaired, seen)
	}

	return &Result{Engine: engine, Contacts: contacts, Parse: ps}, nil
}
