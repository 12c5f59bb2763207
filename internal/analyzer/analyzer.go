// Package analyzer runs the per-file analysis pipeline and merges the
// results into a single immutable ProjectModel.
package analyzer

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pascan/pascan/internal/classify"
	"github.com/pascan/pascan/internal/depgraph"
	"github.com/pascan/pascan/internal/dfm"
	"github.com/pascan/pascan/internal/dpr"
	"github.com/pascan/pascan/internal/methods"
	"github.com/pascan/pascan/internal/model"
	"github.com/pascan/pascan/internal/scanner"
	"github.com/pascan/pascan/internal/sqlscan"
)

// ErrEmptyInput is the only way Analyze itself fails short of cancellation:
// an empty input sequence. Everything else degrades to per-unit flags.
var ErrEmptyInput = errors.New("analyze: empty input file set")

// SourceFile is one input file with its contents already resolved by the
// caller. The analyzer never touches the filesystem.
type SourceFile struct {
	Path    string
	Content string
}

// Options configure an analysis run.
type Options struct {
	// Workers bounds per-file concurrency. Zero means GOMAXPROCS.
	Workers int
	// EventSuffixes and EventPrefixes override the event-handler name
	// patterns. Empty slices keep the defaults.
	EventSuffixes []string
	EventPrefixes []string
}

// Analyzer turns a set of source files into a ProjectModel. It holds no
// per-run state; a new run produces a new model.
type Analyzer struct {
	opts      Options
	extractor *methods.Extractor
}

// New creates an Analyzer with the given options.
func New(opts Options) *Analyzer {
	return &Analyzer{
		opts:      opts,
		extractor: methods.New(opts.EventSuffixes, opts.EventPrefixes),
	}
}

// unitResult is the output of analyzing one .pas file.
type unitResult struct {
	index int
	unit  *model.SourceUnit
	skip  *model.SkippedFile
}

// Analyze runs the full pipeline: per-file scanning, classification, method
// extraction and complexity estimation in parallel, then dependency graph
// construction and aggregation over the completed snapshot. A canceled
// context discards the run entirely; no partial model is returned.
func (a *Analyzer) Analyze(ctx context.Context, files []SourceFile) (*model.ProjectModel, error) {
	if len(files) == 0 {
		return nil, ErrEmptyInput
	}
	start := time.Now()

	var pasFiles, dfmFiles, dprFiles []SourceFile
	for _, f := range files {
		switch strings.ToLower(filepath.Ext(f.Path)) {
		case ".dfm":
			dfmFiles = append(dfmFiles, f)
		case ".dpr":
			dprFiles = append(dprFiles, f)
		default:
			pasFiles = append(pasFiles, f)
		}
	}
	log.Printf("[analyzer] analyzing %d files (%d units, %d forms, %d projects)",
		len(files), len(pasFiles), len(dfmFiles), len(dprFiles))

	results, err := a.analyzeUnits(ctx, pasFiles)
	if err != nil {
		return nil, err
	}

	pm := &model.ProjectModel{}
	for _, r := range results {
		if r.skip != nil {
			pm.Skipped = append(pm.Skipped, *r.skip)
			continue
		}
		pm.Units = append(pm.Units, *r.unit)
	}

	// Deterministic ordering: units by file path; types and methods keep
	// declaration order from extraction.
	sort.Slice(pm.Units, func(i, j int) bool { return pm.Units[i].FilePath < pm.Units[j].FilePath })
	sort.Slice(pm.Skipped, func(i, j int) bool { return pm.Skipped[i].FilePath < pm.Skipped[j].FilePath })

	a.attachForms(pm, dfmFiles)

	for _, f := range dprFiles {
		pf := dpr.Parse(f.Path, f.Content)
		if pf == nil {
			log.Printf("[analyzer] no program header in %s", f.Path)
			continue
		}
		if pm.Project != nil {
			log.Printf("[analyzer] ignoring additional project file %s (using %s)", f.Path, pm.Project.FilePath)
			continue
		}
		pm.Project = pf
	}

	graph := depgraph.Build(pm.Units, pm.Project)
	pm.Edges = graph.Edges
	pm.ExternalDependencies = graph.Externals
	pm.Cycles = graph.Cycles

	pm.Technologies = sqlscan.Technologies(pm.Units)
	pm.Totals = tally(pm)
	pm.Meta = model.Meta{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Duration:    time.Since(start).String(),
		FileCount:   len(files),
	}

	log.Printf("[analyzer] done: %d units, %d types, %d methods, %d edges, %d cycles, %d skipped in %s",
		pm.Totals.Units, typeCount(pm), pm.Totals.Methods, len(pm.Edges), len(pm.Cycles),
		len(pm.Skipped), pm.Meta.Duration)
	return pm, nil
}

// analyzeUnits fans the .pas files out over a bounded worker pool. Units
// share no mutable state, so the only synchronization is collecting each
// finished result.
func (a *Analyzer) analyzeUnits(ctx context.Context, files []SourceFile) ([]unitResult, error) {
	workers := a.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(files) {
		workers = len(files)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	results := make([]unitResult, len(files))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = a.analyzeUnit(files[idx])
			}
		}()
	}

	// Batch-level cancellation: stop scheduling unprocessed files. The
	// model is discarded entirely on cancellation, never half-merged.
	canceled := false
feed:
	for i := range files {
		if ctx.Err() != nil {
			canceled = true
			break
		}
		select {
		case <-ctx.Done():
			canceled = true
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if canceled {
		return nil, ctx.Err()
	}
	return results, nil
}

// analyzeUnit runs stages scanner -> classifier -> method extractor ->
// complexity on one file. Failures degrade to a skip record; they never
// abort the batch.
func (a *Analyzer) analyzeUnit(f SourceFile) unitResult {
	res, err := scanner.Scan(f.Path, f.Content)
	if err != nil {
		log.Printf("[analyzer] skipping %s: %v", f.Path, err)
		return unitResult{skip: &model.SkippedFile{FilePath: f.Path, Reason: err.Error()}}
	}

	unit := res.Unit
	if unit.Name == "" {
		unit.Name = stem(f.Path)
	}

	unit.Types = classify.Types(res.TypeZone, res.TypeZoneLine)

	declared := methods.Extract(res.RoutineZone, res.RoutineZoneLine, a.extractor)
	for _, md := range declared {
		if t := typeByName(unit.Types, md.EnclosingType); t != nil {
			t.Methods = append(t.Methods, md)
			continue
		}
		// Free routine, or qualified with a type declared elsewhere.
		unit.FreeRoutines = append(unit.FreeRoutines, md)
	}

	unit.SQLQueries = sqlscan.Queries(f.Content)
	unit.DatabaseComponents = sqlscan.Components(res.Masked)

	return unitResult{unit: &unit}
}

// attachForms parses .dfm files and pairs each with its unit, matching by
// file stem first (Unit4.dfm pairs with Unit4.pas) and by form name second.
func (a *Analyzer) attachForms(pm *model.ProjectModel, dfmFiles []SourceFile) {
	for _, f := range dfmFiles {
		form := dfm.Parse(f.Path, f.Content)
		if form == nil {
			log.Printf("[analyzer] no object tree in %s", f.Path)
			continue
		}

		var target *model.SourceUnit
		for i := range pm.Units {
			if strings.EqualFold(stem(pm.Units[i].FilePath), stem(f.Path)) {
				target = &pm.Units[i]
				break
			}
		}
		if target == nil {
			target = pm.UnitByName(form.Name)
		}
		if target != nil {
			target.Form = form
		}
	}
}

// tally computes the summary counters as pure sums over per-unit values.
func tally(pm *model.ProjectModel) model.Totals {
	t := model.Totals{Units: len(pm.Units)}
	for _, u := range pm.Units {
		for _, td := range u.Types {
			switch td.Category {
			case model.CategoryForm:
				t.Forms++
			case model.CategoryDataModule:
				t.DataModules++
			case model.CategoryClass:
				t.Classes++
			case model.CategoryInterface:
				t.Interfaces++
			default:
				t.UnknownTypes++
			}
			for _, md := range td.Methods {
				t.Methods++
				t.TotalComplexity += md.Complexity.Cyclomatic
			}
		}
		for _, md := range u.FreeRoutines {
			t.Methods++
			t.TotalComplexity += md.Complexity.Cyclomatic
		}
		t.SQLQueries += len(u.SQLQueries)
	}
	return t
}

func typeCount(pm *model.ProjectModel) int {
	n := 0
	for _, u := range pm.Units {
		n += len(u.Types)
	}
	return n
}

func typeByName(types []model.TypeDeclaration, name string) *model.TypeDeclaration {
	if name == "" {
		return nil
	}
	for i := range types {
		if strings.EqualFold(types[i].Name, name) {
			return &types[i]
		}
	}
	return nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
