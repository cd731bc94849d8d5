// Package main is the ciphermaniac command line tool: it fetches tournament
// reports, combines card usage across events and reprints, attributes cards
// to archetypes, and builds meta-share and card trend datasets.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/rosematcha/ciphermaniac/internal/config"
	"github.com/rosematcha/ciphermaniac/internal/engine"
	"github.com/rosematcha/ciphermaniac/internal/fetch"
)

const usage = `Usage: ciphermaniac <command> [options]

Commands:
  tournaments   List published tournaments
  report        Print a combined card-usage report
  card          Look up a card's usage in one tournament
  archetype     Attribute a card to an archetype in one tournament
  trends        Build meta-share and card trend datasets
  watch         Watch a local report directory and rebuild on change

Run 'ciphermaniac <command> -h' for command options.`

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "tournaments":
		err = runTournaments(os.Args[2:])
	case "report":
		err = runReport(os.Args[2:])
	case "card":
		err = runCard(os.Args[2:])
	case "archetype":
		err = runArchetype(os.Args[2:])
	case "trends":
		err = runTrends(os.Args[2:])
	case "watch":
		err = runWatch(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Println(usage)
	default:
		fmt.Printf("Unknown command: %s\n\n%s\n", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// commonFlags registers the flags every command shares.
type commonFlags struct {
	configPath string
	localRoot  string
	maxEvents  int
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Config file path (default: ~/.ciphermaniac/config.toml)")
	fs.StringVar(&c.localRoot, "local", "", "Read reports from a local directory instead of the remote store")
	fs.IntVar(&c.maxEvents, "max-events", 0, "Limit to the newest N tournaments (0 = config default)")
}

func (c *commonFlags) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if c.configPath != "" {
		cfg, err = config.LoadFile(c.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if c.localRoot != "" {
		cfg.Source.LocalRoot = c.localRoot
	}
	if c.maxEvents > 0 {
		cfg.Trends.MaxTournaments = c.maxEvents
	}
	return cfg, nil
}

// newEngine builds a loaded engine from the resolved config.
func (c *commonFlags) newEngine(ctx context.Context) (*engine.Engine, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	client, err := newFetchClient(cfg)
	if err != nil {
		return nil, err
	}

	eng := engine.New(client, nil, engine.Options{
		MinAppearances: cfg.Trends.MinAppearances,
		TopCards:       cfg.Trends.TopCards,
		MaxTournaments: cfg.Trends.MaxTournaments,
	})
	if _, err := eng.Refresh(ctx); err != nil {
		return nil, err
	}
	return eng, nil
}

func newFetchClient(cfg *config.Config) (*fetch.Client, error) {
	if cfg.Source.LocalRoot != "" {
		return fetch.NewLocalClient(cfg.Source.LocalRoot), nil
	}

	timeout, err := cfg.GetRequestTimeout()
	if err != nil {
		return nil, err
	}
	ttl, err := cfg.GetCacheTTL()
	if err != nil {
		return nil, err
	}

	return fetch.NewClient(&fetch.Config{
		BaseURL:           cfg.Source.BaseURL,
		RequestTimeout:    timeout,
		CacheTTL:          ttl,
		RetryMax:          cfg.Source.RetryMax,
		RequestsPerSecond: cfg.Source.RequestsPerSecond,
		Concurrency:       cfg.Source.Concurrency,
	}), nil
}
