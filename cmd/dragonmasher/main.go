package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"dragonmasher/internal/cli"
	"dragonmasher/internal/config"
	"dragonmasher/internal/core/logger"
	"dragonmasher/internal/core/progress"
	"dragonmasher/internal/core/types"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

type Globals struct {
	ConfigFile string `short:"c" long:"config" help:"Path to config file"`
	Debug      bool   `short:"d" long:"debug" help:"Enable debug logging"`
	NoCache    bool   `long:"no-cache" help:"Neither read nor write cached source data"`
	NoProgress bool   `long:"no-progress" help:"Hide download progress bars"`
}

type SourcesCmd struct {
	Format string `short:"f" long:"format" enum:"table,json,yaml" default:"table" help:"Output format (table, json, yaml)"`
}

type FetchCmd struct {
	Names []string `arg:"" help:"Sources to acquire and parse"`
	Force bool     `long:"force" help:"Discard cached data and download again"`
}

type ShowCmd struct {
	Name   string `arg:"" help:"Source name"`
	Key    string `arg:"" help:"Word or character to look up"`
	Format string `short:"f" long:"format" enum:"json,yaml" default:"yaml" help:"Output format (json, yaml)"`
}

type MashCmd struct {
	Names    []string `arg:"" help:"Sources to merge, in order"`
	Annotate bool     `short:"a" long:"annotate" help:"Keep only the keys of the first source"`
	Format   string   `short:"f" long:"format" enum:"json,yaml" default:"json" help:"Output format (json, yaml)"`
	Output   string   `short:"o" long:"output" help:"Write to this file instead of stdout"`
}

type CacheStatsCmd struct{}

type CacheClearCmd struct {
	Names []string `arg:"" optional:"" help:"Sources to clear (default all)"`
}

type CacheCmd struct {
	Stats CacheStatsCmd `cmd:"stats" help:"Show cache usage"`
	Clear CacheClearCmd `cmd:"clear" help:"Remove cached source data"`
}

type ConfigInitCmd struct {
	Path  string `arg:"" optional:"" help:"Where to write the file (default user config dir)"`
	Force bool   `short:"f" long:"force" help:"Replace an existing file"`
}

type ConfigCmd struct {
	Init ConfigInitCmd `cmd:"init" help:"Write a default configuration file"`
}

type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" long:"version" help:"Print version and exit"`
	Sources SourcesCmd       `cmd:"sources" help:"List known sources"`
	Fetch   FetchCmd         `cmd:"fetch" help:"Download, parse and cache sources"`
	Show    ShowCmd          `cmd:"show" help:"Print one record of a source"`
	Mash    MashCmd          `cmd:"mash" help:"Merge sources into one data set"`
	Cache   CacheCmd         `cmd:"cache" help:"Inspect or clear the source cache"`
	Config  ConfigCmd        `cmd:"config" help:"Manage the configuration file"`
}

// session is the state shared by one command run.
type session struct {
	cfg      *types.Config
	log      *logger.Logger
	app      *cli.App
	progress *progress.Progress
}

func (g *Globals) open() (*session, error) {
	path := config.ResolveConfigPath(g.ConfigFile)
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if g.Debug {
		cfg.Debug = true
		cfg.Log.Level = "debug"
	}
	if g.NoCache {
		disabled := false
		cfg.Cache.Enabled = &disabled
	}

	logger.SetDefaultLevel(logger.ParseLevel(cfg.Log.Level))
	log := logger.NewLogger(logger.WithHandlerOptions(logger.WithNoColor(cfg.Log.NoColor)))
	s := &session{cfg: cfg, log: log}

	opts := []cli.Option{cli.WithLogger(log)}
	if !g.NoProgress && isatty.IsTerminal(os.Stderr.Fd()) {
		s.progress = progress.NewProgress()
		opts = append(opts, cli.WithListener(s.progress))
	}
	s.app, err = cli.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	log.Debug("configuration loaded", "file", path, "cache", cfg.Cache.Dir, "caching", cfg.Cache.CachingEnabled())
	return s, nil
}

func (s *session) close() {
	if s.progress != nil {
		s.progress.Wait()
	}
}

func (c *SourcesCmd) Run(g *Globals) error {
	s, err := g.open()
	if err != nil {
		return err
	}
	defer s.close()

	infos := s.app.Sources()
	if c.Format != "table" {
		return cli.Encode(os.Stdout, infos, c.Format)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tCACHED\tDESCRIPTION")
	for _, info := range infos {
		cached := "-"
		if info.Cached {
			cached = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.Name, info.Kind, cached, info.Description)
	}
	return w.Flush()
}

func (c *FetchCmd) Run(g *Globals) error {
	s, err := g.open()
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := types.DefaultSignalNotifySubContext()
	defer cancel()

	for _, name := range c.Names {
		src, err := s.app.Load(ctx, name, c.Force)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", name, err)
		}
		stats := src.Stats()
		s.log.Info("ready", "source", src.Name(), "keys", humanize.Comma(int64(len(src.Data()))),
			"rows", stats.Rows, "malformed", stats.Malformed)
	}
	return nil
}

func (c *ShowCmd) Run(g *Globals) error {
	s, err := g.open()
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := types.DefaultSignalNotifySubContext()
	defer cancel()

	rec, err := s.app.Show(ctx, c.Name, c.Key)
	if err != nil {
		return err
	}
	return cli.Encode(os.Stdout, rec, c.Format)
}

func (c *MashCmd) Run(g *Globals) error {
	s, err := g.open()
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := types.DefaultSignalNotifySubContext()
	defer cancel()

	data, err := s.app.Mash(ctx, c.Names, c.Annotate)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if c.Output != "" {
		if err := os.MkdirAll(filepath.Dir(c.Output), 0755); err != nil {
			return err
		}
		f, err := os.Create(c.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := cli.Encode(out, data, c.Format); err != nil {
		return err
	}
	if c.Output != "" {
		s.log.Info("wrote merged data", "file", c.Output, "keys", humanize.Comma(int64(len(data))),
			"sources", strings.Join(c.Names, ","))
	}
	return nil
}

func (c *CacheStatsCmd) Run(g *Globals) error {
	s, err := g.open()
	if err != nil {
		return err
	}
	defer s.close()

	stats, err := s.app.CacheStats()
	if err != nil {
		return err
	}
	fmt.Printf("Directory: %s\n", s.cfg.Cache.Dir)
	fmt.Printf("Entries:   %d\n", stats.Entries)
	fmt.Printf("Size:      %s\n", stats.Size)
	fmt.Printf("On disk:   %s\n", stats.DiskUsage)
	fmt.Printf("Hits:      %d\n", stats.Hits)
	fmt.Printf("Misses:    %d\n", stats.Misses)
	fmt.Printf("Evictions: %d\n", stats.Evictions)
	return nil
}

func (c *CacheClearCmd) Run(g *Globals) error {
	s, err := g.open()
	if err != nil {
		return err
	}
	defer s.close()

	removed, err := s.app.ClearCache(c.Names...)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d cached source(s)\n", removed)
	return nil
}

func (c *ConfigInitCmd) Run(g *Globals) error {
	path := c.Path
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}
	if err := config.WriteDefaultConfig(path, c.Force); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func main() {
	var root CLI
	kctx := kong.Parse(
		&root,
		kong.Vars{
			"version": "0.1.0",
		},
		kong.Name("dragonmasher"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Description("dragonmasher - download, parse and merge Chinese word and character data"),
	)
	if err := kctx.Run(&root.Globals); err != nil {
		logger.NewLogger().Fatal("command failed", "error", err)
	}
}
