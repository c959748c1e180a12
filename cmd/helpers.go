package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skyfold/astro-session/internal"
)

// resolvePair finds the matched log pair for a night date (YYYY-MM-DD) or an
// explicit imaging-log path.
func resolvePair(cfg *internal.Config, arg string) (internal.LogPair, error) {
	pairs, err := internal.DiscoverAndMatch(cfg.ImagingFolder, cfg.GuidingFolder)
	if err != nil {
		return internal.LogPair{}, err
	}
	if len(pairs) == 0 {
		return internal.LogPair{}, fmt.Errorf("no imaging logs found in %s", cfg.ImagingFolder)
	}

	if arg == "" {
		// Default to the most recent night.
		best := pairs[0]
		for _, p := range pairs[1:] {
			if p.Imaging.Start.After(best.Imaging.Start) {
				best = p
			}
		}
		return best, nil
	}

	for _, p := range pairs {
		if p.Imaging.Night.Format("2006-01-02") == arg {
			return p, nil
		}
		if p.Imaging.Path == arg || filepath.Base(p.Imaging.Path) == arg {
			return p, nil
		}
	}
	return internal.LogPair{}, fmt.Errorf("no session found for %q (use 'astro-session sessions' to list)", arg)
}

// cacheReport stores one analyzed session in the sqlite cache. Failures are
// logged, never fatal: the cache is an optimization.
func cacheReport(cfg *internal.Config, pair internal.LogPair, session *internal.Session, analysis *internal.AnalysisReport) {
	if cfg.CachePath == "" {
		return
	}
	info, err := os.Stat(pair.Imaging.Path)
	if err != nil {
		internal.LogDebug("cache skip: %v", err)
		return
	}
	store, err := internal.OpenStore(cfg.CachePath)
	if err != nil {
		internal.LogWarn("cache unavailable: %v", err)
		return
	}
	defer store.Close()

	report := internal.BuildReport(session, analysis)
	payload, err := json.Marshal(report)
	if err != nil {
		internal.LogWarn("cache encode: %v", err)
		return
	}

	rec := internal.SessionRecord{
		ImagingPath:        pair.Imaging.Path,
		ImagingModTime:     info.ModTime(),
		Target:             session.Target,
		Night:              report.Night,
		Exposures:          analysis.ExposureCount,
		IntegrationSeconds: analysis.IntegrationTime.Seconds(),
		Report:             payload,
	}
	if pair.Guiding != nil {
		rec.GuidingPath = pair.Guiding.Path
	}
	if analysis.Overall != nil {
		rec.RMSRA = &analysis.Overall.RA
		rec.RMSDec = &analysis.Overall.Dec
		rec.RMSTotal = &analysis.Overall.Total
	}
	if err := store.Upsert(rec); err != nil {
		internal.LogWarn("cache write: %v", err)
	}
}

// cachedRecords returns the cache contents keyed by imaging-log path, or an
// empty map when the cache cannot be read.
func cachedRecords(cfg *internal.Config) map[string]internal.SessionRecord {
	out := make(map[string]internal.SessionRecord)
	if cfg.CachePath == "" {
		return out
	}
	if _, err := os.Stat(cfg.CachePath); err != nil {
		return out
	}
	store, err := internal.OpenStore(cfg.CachePath)
	if err != nil {
		internal.LogDebug("cache open: %v", err)
		return out
	}
	defer store.Close()

	records, err := store.List()
	if err != nil {
		internal.LogDebug("cache list: %v", err)
		return out
	}
	for _, rec := range records {
		out[rec.ImagingPath] = rec
	}
	return out
}
