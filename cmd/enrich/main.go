// Command enrich reads a leads CSV, enriches each row through the upstream
// data provider, and writes a wide enriched CSV.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/NavagantProd/prospectindata"
	"github.com/NavagantProd/prospectindata/enrich"
)

type envConfig struct {
	APIKey       string        `env:"PROSPECT_API_KEY,required"`
	BaseURL      string        `env:"PROSPECT_BASE_URL" envDefault:"https://api.coresignal.com/cdapi/v2"`
	AuthHeader   string        `env:"PROSPECT_AUTH_HEADER" envDefault:"apikey"`
	AuthScheme   string        `env:"PROSPECT_AUTH_SCHEME"`
	CacheTTL     time.Duration `env:"PROSPECT_CACHE_TTL" envDefault:"168h"`
	MaxRequests  int           `env:"PROSPECT_MAX_REQUESTS" envDefault:"5"`
	Window       time.Duration `env:"PROSPECT_RATE_WINDOW" envDefault:"1s"`
	Timeout      time.Duration `env:"PROSPECT_TIMEOUT" envDefault:"30s"`
	MaxRetries   int           `env:"PROSPECT_MAX_RETRIES" envDefault:"3"`
}

func main() {
	input := flag.String("input", "leads.csv", "input leads CSV")
	output := flag.String("output", "leads_enriched.csv", "output enriched CSV")
	cacheDir := flag.String("cache-dir", ".prospect_cache", "response cache directory")
	workers := flag.Int("workers", 4, "concurrent leads in flight")
	verbose := flag.BoolP("verbose", "v", false, "debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(prospectindata.GetVersion())
		return
	}

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if *verbose {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		logger.Fatal().Err(err).Msg("invalid environment configuration")
	}

	client, err := prospectindata.New(prospectindata.Config{
		BaseURL:     ec.BaseURL,
		Credential:  ec.APIKey,
		AuthHeader:  ec.AuthHeader,
		AuthScheme:  ec.AuthScheme,
		CacheDir:    *cacheDir,
		CacheTTL:    ec.CacheTTL,
		MaxRequests: ec.MaxRequests,
		Window:      ec.Window,
		Timeout:     ec.Timeout,
		MaxRetries:  ec.MaxRetries,
	},
		prospectindata.WithLogger(prospectindata.NewZerologLogger(logger)),
		prospectindata.WithMetrics(),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("client construction failed")
	}

	in, err := os.Open(*input)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *input).Msg("cannot open input")
	}
	leads, err := enrich.ReadLeads(in)
	_ = in.Close()
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot parse leads CSV")
	}
	logger.Info().Int("leads", len(leads)).Str("input", *input).Msg("starting enrichment")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline := enrich.NewPipeline(client, enrich.Config{Workers: *workers}, prospectindata.NewZerologLogger(logger))
	rows := pipeline.Run(ctx, leads)

	out, err := os.Create(*output)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *output).Msg("cannot create output")
	}
	defer out.Close()
	if err := enrich.WriteRows(out, enrich.Columns(rows), rows); err != nil {
		logger.Fatal().Err(err).Msg("cannot write enriched CSV")
	}

	stats := pipeline.Stats()
	logger.Info().
		Int("rows", len(rows)).
		Int64("member_searches", stats.MemberSearches).
		Int64("member_collects", stats.MemberCollects).
		Int64("company_searches", stats.CompanySearches).
		Int64("company_collects", stats.CompanyCollects).
		Int64("not_found", stats.NotFound).
		Int64("errors", stats.Errors).
		Str("output", *output).
		Msg("enrichment finished")
}
