package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"

	"github.com/securityronin/nameback/pkg/analysiscache"
	"github.com/securityronin/nameback/pkg/config"
	"github.com/securityronin/nameback/pkg/database"
	"github.com/securityronin/nameback/pkg/plugins"
	"github.com/securityronin/nameback/pkg/renamer"
	"github.com/securityronin/nameback/pkg/version"
)

func main() {
	log := logger.New()

	var opts struct {
		DryRun       bool   `short:"n" long:"dry-run" description:"Log intended renames without touching the filesystem"`
		Verbose      bool   `short:"v" long:"verbose" description:"Report the reason for every skip and failure"`
		SkipHidden   bool   `long:"skip-hidden" description:"Ignore dotfiles"`
		NoLocation   bool   `long:"no-location" description:"Do not append GPS-derived place names"`
		NoTimestamp  bool   `long:"no-timestamp" description:"Do not append capture dates"`
		NoGeocode    bool   `long:"no-geocode" description:"Use raw coordinates instead of reverse geocoding"`
		NoMultiframe bool   `long:"no-multiframe" description:"OCR only the first video frame"`
		NoCache      bool   `long:"no-cache" description:"Disable the analysis cache"`
		Workers      int    `short:"w" long:"workers" description:"Number of concurrent analysis workers"`
		CachePath    string `long:"cache-path" description:"Analysis cache database location"`
		Plugin       string `long:"plugin" description:"Path to a score.js scoring plugin"`
		Version      bool   `long:"version" description:"Print version and exit"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		if flags.WroteHelp(err) {
			return
		}
		log.Err(err).Fatal("flags parse error")
	}

	if opts.Version {
		fmt.Println(version.Version)
		return
	}

	if len(args) != 1 {
		fmt.Println("usage: nameback [options] <directory>")
		os.Exit(1)
	}
	dir := args[0]

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	// CLI flags override file and environment configuration.
	if opts.DryRun {
		cfg.DryRun = true
	}
	if opts.Verbose {
		cfg.Verbose = true
	}
	if opts.SkipHidden {
		cfg.SkipHidden = true
	}
	if opts.NoLocation {
		cfg.IncludeLocation = false
	}
	if opts.NoTimestamp {
		cfg.IncludeTimestamp = false
	}
	if opts.NoGeocode {
		cfg.Geocode = false
	}
	if opts.NoMultiframe {
		cfg.MultiframeVideo = false
	}
	if opts.NoCache {
		cfg.CacheEnabled = false
	}
	if opts.Workers > 0 {
		cfg.WorkerProcesses = opts.Workers
	}
	if opts.CachePath != "" {
		cfg.CachePath = opts.CachePath
	}
	if opts.Plugin != "" {
		cfg.PluginPath = opts.Plugin
	}

	ctx, cancel := context.WithCancel(log.WithContext(context.Background()))
	defer cancel()

	graceful := signals.Setup()
	go func() {
		<-graceful
		log.Info("interrupt received, finishing in-flight files")
		cancel()
	}()

	var hook *plugins.ScoreHook
	if cfg.PluginPath != "" {
		hook, err = plugins.LoadScoreHook(cfg.PluginPath)
		if err != nil {
			log.Err(err).Fatal("scoring plugin error")
		}
		log.Info("scoring plugin loaded", logger.Data{"path": cfg.PluginPath})
	}

	var cache renamer.Cache
	if cfg.CacheEnabled {
		store, err := openCache(ctx, cfg)
		if err != nil {
			log.Err(err).Warn("analysis cache unavailable, continuing without it")
		} else {
			cache = store
		}
	}

	engine := renamer.New(cfg, hook, cache)
	defer engine.Close()

	batch, summary, err := engine.ProcessDirectory(ctx, dir)
	if err != nil {
		if errors.Is(err, renamer.ErrRootRefused) {
			fmt.Fprintln(os.Stderr, "nameback refuses to run as root")
			os.Exit(1)
		}
		log.Err(err).Fatal("processing error")
	}

	report(cfg, batch)

	fmt.Printf("%d renamed, %d skipped, %d failed\n", summary.Renamed, summary.Skipped, summary.Failed)
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

func openCache(ctx context.Context, cfg *config.Config) (*analysiscache.Store, error) {
	path := cfg.CachePath
	if path == "" {
		var err error
		path, err = database.DefaultCachePath()
		if err != nil {
			return nil, err
		}
	}

	db, err := database.New(cfg, path)
	if err != nil {
		return nil, err
	}

	store := analysiscache.NewStore(db)
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func report(cfg *config.Config, batch *renamer.Batch) {
	for _, plan := range batch.Plans {
		switch {
		case plan.Disposition == renamer.DispositionRename:
			arrow := "->"
			if cfg.DryRun {
				arrow = "-> (dry-run)"
			}
			fmt.Printf("%s %s %s\n", plan.OriginalPath, arrow, plan.ProposedName)
		case cfg.Verbose:
			fmt.Printf("%s: %s (%s)\n", plan.OriginalPath, plan.Disposition, plan.Reason)
		}
	}
}
