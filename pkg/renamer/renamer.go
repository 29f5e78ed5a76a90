package renamer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"

	"github.com/securityronin/nameback/pkg/analysiscache"
	"github.com/securityronin/nameback/pkg/candidates"
	"github.com/securityronin/nameback/pkg/config"
	"github.com/securityronin/nameback/pkg/detector"
	"github.com/securityronin/nameback/pkg/geocode"
	"github.com/securityronin/nameback/pkg/location"
	"github.com/securityronin/nameback/pkg/metadata"
	"github.com/securityronin/nameback/pkg/mp4meta"
	"github.com/securityronin/nameback/pkg/namegen"
	"github.com/securityronin/nameback/pkg/ocr"
	"github.com/securityronin/nameback/pkg/pdftext"
	"github.com/securityronin/nameback/pkg/plugins"
	"github.com/securityronin/nameback/pkg/scorer"
	"github.com/securityronin/nameback/pkg/series"
	"github.com/securityronin/nameback/pkg/textcontent"
)

// Disposition is the terminal outcome assigned to one file.
type Disposition string

const (
	DispositionRename               Disposition = "rename"
	DispositionSkipNoCandidate      Disposition = "skip_no_candidate"
	DispositionSkipBelowThreshold   Disposition = "skip_below_threshold"
	DispositionSkipUnchanged        Disposition = "skip_unchanged"
	DispositionSkipWouldOverwrite   Disposition = "skip_would_overwrite"
	DispositionSkipPermissionDenied Disposition = "skip_permission_denied"
	DispositionFailed               Disposition = "failed"
)

// Plan is the per-file rename decision. Plans are built during analysis and
// consumed exactly once by Apply.
type Plan struct {
	OriginalPath string
	ProposedName string
	Disposition  Disposition
	Category     string
	Score        float64
	Source       string
	Reason       string
}

// Batch is one directory's worth of plans plus the allocator that guarded
// their uniqueness, kept so commit-time collisions can re-run de-duplication.
type Batch struct {
	Dir   string
	Plans []*Plan

	alloc *namegen.Allocator
}

// Summary aggregates batch outcomes for reporting.
type Summary struct {
	Renamed int
	Skipped int
	Failed  int
}

// ErrRootRefused is returned when the process runs with superuser privileges.
// Batch-renaming as root is refused outright.
var ErrRootRefused = errors.New("refusing to run with superuser privileges")

// geteuid is swapped in tests.
var geteuid = os.Geteuid

// Cache is the persisted analysis store consulted before extraction. A nil
// Cache disables caching.
type Cache interface {
	Get(ctx context.Context, path string) (analysiscache.Entry, bool)
	Put(ctx context.Context, path, proposedName, category string) error
	CleanupStale(ctx context.Context, validPaths []string) (int64, error)
}

// Engine runs the full pipeline for a directory: category detection,
// candidate collection, scoring, series-aware name generation, and the final
// rename commit.
type Engine struct {
	cfg    *config.Config
	scorer *scorer.Scorer
	hook   *plugins.ScoreHook
	cache  Cache

	// Collaborators. Overridden in tests to substitute fakes; every one of
	// them degrades to "fewer candidates" on failure.
	detect      func(path string) (detector.Category, error)
	extractMeta func(ctx context.Context, path string) metadata.Fields
	extractText func(path string) (string, error)
	readMP4     func(path string) (mp4meta.Tags, error)
	readPDFInfo func(path string) (pdftext.Info, error)
	pdfBody     func(path string) (string, error)
	ocrImage    func(ctx context.Context, path string) (ocr.Result, bool)
	ocrVideo    func(ctx context.Context, path string, multiframe bool) []ocr.Result
	reverseGeo  func(ctx context.Context, p location.Point) (string, bool)

	pdfOnce   sync.Once
	pdfReader *pdftext.Reader
}

// New wires an Engine with its real collaborators. hook and cache may be nil.
func New(cfg *config.Config, hook *plugins.ScoreHook, cache Cache) *Engine {
	e := &Engine{
		cfg:    cfg,
		scorer: scorer.New(cfg.Scoring),
		hook:   hook,
		cache:  cache,
	}

	ocrEngine := ocr.NewEngine()
	geocoder := geocode.NewClient()
	extractor := metadata.NewExtractor()

	e.detect = detector.Detect
	e.extractMeta = extractor.Extract
	e.extractText = textcontent.Extract
	e.readMP4 = mp4meta.Read
	e.readPDFInfo = pdftext.ReadInfo
	e.pdfBody = e.lazyPDFBody
	e.ocrImage = ocrEngine.RecognizeImage
	e.ocrVideo = ocrEngine.RecognizeVideo
	e.reverseGeo = geocoder.Reverse

	return e
}

// lazyPDFBody spins up the pdfium runtime on first use so runs without PDFs
// never pay for it.
func (e *Engine) lazyPDFBody(path string) (string, error) {
	e.pdfOnce.Do(func() {
		r, err := pdftext.NewReader()
		if err != nil {
			return
		}
		e.pdfReader = r
	})
	if e.pdfReader == nil {
		return "", errors.New("pdf runtime unavailable")
	}
	return e.pdfReader.BodyExcerpt(path)
}

// Close releases the pdfium runtime if it was started.
func (e *Engine) Close() error {
	if e.pdfReader != nil {
		return e.pdfReader.Close()
	}
	return nil
}

// ProcessDirectory is the single batch entry point: analyze every file in
// dir, then apply (or, in dry-run, log) the resulting plans.
func (e *Engine) ProcessDirectory(ctx context.Context, dir string) (*Batch, Summary, error) {
	if geteuid() == 0 {
		return nil, Summary{}, ErrRootRefused
	}

	batch, err := e.AnalyzeDirectory(ctx, dir)
	if err != nil {
		return nil, Summary{}, err
	}

	summary := e.Apply(ctx, batch)

	if e.cache != nil && !e.cfg.DryRun {
		valid := make([]string, 0, len(batch.Plans))
		for _, plan := range batch.Plans {
			if plan.Disposition == DispositionRename {
				valid = append(valid, filepath.Join(dir, plan.ProposedName))
			} else {
				valid = append(valid, plan.OriginalPath)
			}
		}
		if _, err := e.cache.CleanupStale(ctx, valid); err != nil {
			logger.FromContext(ctx).Err(err).Warn("cache cleanup failed")
		}
	}

	return batch, summary, nil
}

// analysis is the per-file result of the parallel extraction phase. Name
// generation happens afterwards, sequentially, so allocator outcomes do not
// depend on goroutine scheduling.
type analysis struct {
	path      string
	category  detector.Category
	collected int

	// Winning candidate, empty when none was accepted.
	stem      string
	score     float64
	source    string
	location  string
	timestamp string

	// cachedName is a full filename replayed from the analysis cache.
	cachedName string
}

// AnalyzeDirectory produces the plans for every eligible file in dir without
// touching the filesystem. Series detection runs over the whole listing
// first; extraction runs on a fixed worker pool; generation runs in listing
// order against one shared allocator.
func (e *Engine) AnalyzeDirectory(ctx context.Context, dir string) (*Batch, error) {
	runID, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	log := logger.FromContext(ctx).ID(runID.String()).Root(logger.Data{"dir": dir})
	ctx = log.WithContext(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory: %s", dir)
	}

	alloc := namegen.NewAllocator()
	var paths []string
	for _, entry := range entries {
		alloc.Seed(entry.Name())
		if !entry.Type().IsRegular() {
			continue
		}
		if e.cfg.SkipHidden && strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	// Series membership affects suffix formatting, so the detector must see
	// the whole listing before any file is finalized.
	patterns := series.Lookup(series.Detect(paths))

	analyses := make([]*analysis, len(paths))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.cfg.WorkerProcesses; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				analyses[idx] = e.analyze(ctx, paths[idx])
			}
		}()
	}

scheduling:
	for i := range paths {
		select {
		case <-ctx.Done():
			// Interrupt stops scheduling new files; in-flight ones finish.
			break scheduling
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	batch := &Batch{Dir: dir, alloc: alloc}
	for i, path := range paths {
		a := analyses[i]
		if a == nil {
			continue
		}
		batch.Plans = append(batch.Plans, e.finalize(ctx, a, patterns[path], alloc))
	}
	return batch, nil
}

// analyze runs the extraction half of the pipeline for one file. It never
// fails: collaborator errors degrade to fewer candidates.
func (e *Engine) analyze(ctx context.Context, path string) *analysis {
	log := logger.FromContext(ctx)

	if e.cache != nil {
		if entry, ok := e.cache.Get(ctx, path); ok && entry.ProposedName != "" {
			log.Debug("analysis cache hit", logger.Data{"path": path})
			return &analysis{
				path:       path,
				category:   detector.Category(entry.Category),
				collected:  1,
				cachedName: entry.ProposedName,
			}
		}
	}

	category, err := e.detect(path)
	if err != nil {
		log.Err(err).Warn("category detection failed", logger.Data{"path": path})
		category = detector.CategoryUnknown
	}

	fields := e.extractMeta(ctx, path)
	meta := candidates.Metadata{
		Title:            fields.Title,
		Artist:           fields.Artist,
		Album:            fields.Album,
		DateTimeOriginal: fields.DateTimeOriginal,
		Description:      fields.Description,
		Subject:          fields.Subject,
		Author:           fields.BestAuthor(),
		CreationDate:     fields.BestCreationDate(),
	}

	contents := e.collectContents(ctx, path, category, &meta)

	list := candidates.Collect(category, meta, contents, path)

	best, ok := e.scorer.SelectBestWith(list, e.hookAdjust(ctx))
	a := &analysis{path: path, category: category, collected: len(list)}
	if !ok {
		return a
	}

	a.stem = best.Candidate.Text
	a.score = best.Score
	a.source = string(best.Candidate.Source.Kind)
	a.location, a.timestamp = e.enrichment(ctx, category, fields)
	return a
}

// collectContents gathers category-specific content candidates and fills
// metadata gaps from format-native parsers.
func (e *Engine) collectContents(ctx context.Context, path string, category detector.Category, meta *candidates.Metadata) []candidates.Content {
	log := logger.FromContext(ctx)
	ext := strings.ToLower(filepath.Ext(path))

	var contents []candidates.Content

	switch category {
	case detector.CategoryDocument:
		if ext == ".pdf" {
			if info, err := e.readPDFInfo(path); err == nil {
				if meta.Title == "" {
					meta.Title = info.Title
				}
				if meta.Subject == "" {
					meta.Subject = info.Subject
				}
				if meta.Author == "" {
					meta.Author = info.Author
				}
			}
			body, err := e.pdfBody(path)
			if err != nil {
				log.Err(err).Warn("pdf text extraction failed", logger.Data{"path": path})
			} else if body != "" {
				contents = append(contents, candidates.Content{
					Text:   body,
					Source: candidates.Source{Kind: candidates.KindPdfBody},
				})
			}
			break
		}
		contents = e.appendTextContent(ctx, path, contents)

	case detector.CategoryImage:
		if res, ok := e.ocrImage(ctx, path); ok {
			contents = append(contents, candidates.Content{
				Text:   res.Text,
				Source: candidates.Source{Kind: candidates.KindOcrImage, Language: res.Language},
			})
		}

	case detector.CategoryVideo:
		if tags, err := e.readMP4(path); err == nil {
			if meta.Title == "" {
				meta.Title = tags.Title
			}
			if meta.CreationDate == "" {
				meta.CreationDate = tags.CreationTime
			}
		}
		for _, res := range e.ocrVideo(ctx, path, e.cfg.MultiframeVideo) {
			contents = append(contents, candidates.Content{
				Text:   res.Text,
				Source: candidates.Source{Kind: candidates.KindOcrVideo, Language: res.Language},
			})
		}

	case detector.CategoryAudio:
		if ext == ".m4a" || ext == ".m4b" || ext == ".mp4" {
			if tags, err := e.readMP4(path); err == nil {
				if meta.Title == "" {
					meta.Title = tags.Title
				}
				if meta.Artist == "" {
					meta.Artist = tags.Artist
				}
				if meta.Album == "" {
					meta.Album = tags.Album
				}
			}
		}

	case detector.CategoryWeb, detector.CategorySourceCode:
		contents = e.appendTextContent(ctx, path, contents)
	}

	return contents
}

func (e *Engine) appendTextContent(ctx context.Context, path string, contents []candidates.Content) []candidates.Content {
	text, err := e.extractText(path)
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("text extraction failed", logger.Data{"path": path})
		return contents
	}
	if text == "" {
		return contents
	}
	return append(contents, candidates.Content{
		Text:   text,
		Source: candidates.Source{Kind: candidates.KindTextExtract},
	})
}

// hookAdjust bridges the optional score.js plugin into candidate selection.
// Plugin failures keep the built-in score rather than dropping the candidate.
func (e *Engine) hookAdjust(ctx context.Context) func(scorer.Scored) (scorer.Scored, bool) {
	if e.hook == nil {
		return nil
	}
	log := logger.FromContext(ctx)
	return func(sc scorer.Scored) (scorer.Scored, bool) {
		adj, err := e.hook.Adjust(plugins.Candidate{
			Text:     sc.Candidate.Text,
			Source:   string(sc.Candidate.Source.Kind),
			Kind:     string(sc.Candidate.Source.Kind),
			Language: sc.Candidate.Source.Language,
			Score:    sc.Score,
		})
		if err != nil {
			log.Err(err).Warn("scoring plugin failed")
			return sc, true
		}
		if adj.Veto {
			return scorer.Scored{}, false
		}
		if adj.Changed {
			sc.Score = adj.Score
		}
		return sc, true
	}
}

// enrichment derives the optional location and date suffixes from EXIF
// fields, consulting the geocoder when enabled.
func (e *Engine) enrichment(ctx context.Context, category detector.Category, fields metadata.Fields) (string, string) {
	log := logger.FromContext(ctx)

	var loc string
	if e.cfg.IncludeLocation && category == detector.CategoryImage {
		if p, ok := location.FromEXIF(fields.GPSLatitude, fields.GPSLatitudeRef, fields.GPSLongitude, fields.GPSLongitudeRef); ok {
			if e.cfg.Geocode {
				if place, found := e.reverseGeo(ctx, p); found {
					loc = place
				}
			}
			if loc == "" {
				loc = p.Format()
			}
		}
	}

	var ts string
	if e.cfg.IncludeTimestamp {
		raw := fields.DateTimeOriginal
		if raw == "" {
			raw = fields.BestCreationDate()
		}
		if formatted, ok := location.FormatTimestamp(raw); ok {
			ts = formatted
		}
		if e.cfg.Verbose {
			if tod, ok := location.TimeOfDay(raw); ok {
				log.Debug("capture time of day", logger.Data{"time_of_day": tod})
			}
		}
	}

	return loc, ts
}

// finalize turns one analysis into a plan, allocating the proposed name
// against the shared directory allocator.
func (e *Engine) finalize(ctx context.Context, a *analysis, pattern *series.Pattern, alloc *namegen.Allocator) *Plan {
	plan := &Plan{
		OriginalPath: a.path,
		Category:     string(a.category),
		Score:        a.score,
		Source:       a.source,
	}

	if a.stem == "" && a.cachedName == "" {
		if a.collected == 0 {
			plan.Disposition = DispositionSkipNoCandidate
			plan.Reason = "no usable candidate"
		} else {
			plan.Disposition = DispositionSkipBelowThreshold
			plan.Reason = "all candidates below acceptance threshold"
		}
		return plan
	}

	current := filepath.Base(a.path)
	ext := filepath.Ext(current)

	// The file's own slot frees up if the rename happens, so it must not
	// count against uniqueness.
	alloc.Release(current)

	var proposed string
	if a.cachedName != "" {
		// Cached names were generated and sanitized by an earlier run and
		// already carry enrichment and ordinal suffixes, so they replay
		// verbatim unless another file claimed the name first.
		plan.Source = "cache"
		if alloc.Claim(a.cachedName) {
			proposed = a.cachedName
		} else {
			proposed = alloc.Generate(strings.TrimSuffix(a.cachedName, ext), namegen.Parts{Extension: ext})
		}
	} else {
		parts := namegen.Parts{
			Location:  a.location,
			Timestamp: a.timestamp,
			Extension: ext,
		}
		if pattern != nil {
			if ordinal, ok := pattern.FormatOrdinal(a.path); ok {
				parts.Ordinal = ordinal
			}
		}
		proposed = alloc.Generate(a.stem, parts)
	}

	if proposed == current {
		plan.Disposition = DispositionSkipUnchanged
		plan.ProposedName = current
		plan.Reason = "already named"
		e.storeInCache(ctx, a.path, current, plan.Category)
		return plan
	}

	plan.Disposition = DispositionRename
	plan.ProposedName = proposed
	return plan
}

func (e *Engine) storeInCache(ctx context.Context, path, name, category string) {
	if e.cache == nil || e.cfg.DryRun {
		return
	}
	if err := e.cache.Put(ctx, path, name, category); err != nil {
		logger.FromContext(ctx).Err(err).Warn("cache write failed", logger.Data{"path": path})
	}
}

// Apply commits every Rename plan in order. Dry-run logs the mapping and
// changes nothing on disk; the plans themselves are identical either way.
func (e *Engine) Apply(ctx context.Context, batch *Batch) Summary {
	log := logger.FromContext(ctx)

	var s Summary
	for _, plan := range batch.Plans {
		if plan.Disposition != DispositionRename {
			if plan.Disposition == DispositionFailed {
				s.Failed++
			} else {
				s.Skipped++
			}
			if e.cfg.Verbose {
				log.Info("skipped", logger.Data{
					"path":   plan.OriginalPath,
					"reason": plan.Reason,
				})
			}
			continue
		}

		src := plan.OriginalPath
		dest := filepath.Join(batch.Dir, plan.ProposedName)

		if e.cfg.DryRun {
			log.Info("would rename", logger.Data{"from": src, "to": dest})
			s.Renamed++
			continue
		}

		// Commit-time re-check: another process may have created the
		// destination since planning. Re-run de-duplication once.
		if _, err := os.Lstat(dest); err == nil {
			stem := strings.TrimSuffix(plan.ProposedName, filepath.Ext(plan.ProposedName))
			retry := batch.alloc.Generate(stem, namegen.Parts{Extension: filepath.Ext(plan.ProposedName)})
			retryDest := filepath.Join(batch.Dir, retry)
			if _, err := os.Lstat(retryDest); err == nil {
				plan.Disposition = DispositionSkipWouldOverwrite
				plan.Reason = "destination already exists"
				s.Skipped++
				log.Warn("skipping rename, destination exists", logger.Data{"from": src, "to": dest})
				continue
			}
			plan.ProposedName = retry
			dest = retryDest
		}

		if err := os.Rename(src, dest); err != nil {
			if os.IsPermission(err) {
				plan.Disposition = DispositionSkipPermissionDenied
				plan.Reason = "permission denied"
				s.Skipped++
				log.Err(err).Warn("permission denied", logger.Data{"from": src})
			} else {
				plan.Disposition = DispositionFailed
				plan.Reason = err.Error()
				s.Failed++
				log.Err(err).Error("rename failed", logger.Data{"from": src, "to": dest})
			}
			continue
		}

		s.Renamed++
		log.Info("renamed", logger.Data{"from": src, "to": dest})
		e.storeInCache(ctx, dest, plan.ProposedName, plan.Category)
	}

	return s
}
