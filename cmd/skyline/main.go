package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"

	"github.com/lox/skyline/internal/analysis"
	"github.com/lox/skyline/internal/api"
	"github.com/lox/skyline/internal/dataset"
	"github.com/lox/skyline/internal/models"
)

type CLI struct {
	EnvFile kongdotenv.ENVFileConfig `kong:"optional,name=env-file,help='Load environment variables from this .env file.'"`

	Serve   ServeCmd   `cmd:"" help:"Load the dataset once and serve the JSON API."`
	Summary SummaryCmd `cmd:"" help:"Print city averages, city counts and completions per year."`
}

type ServeCmd struct {
	Data string `required:"" env:"SKYLINE_DATA" help:"Dataset locator: CSV path, http(s)://, ftp:// or sqlite:// URL."`
	Port string `default:"8080" env:"SKYLINE_PORT" help:"HTTP server port."`
}

func (c *ServeCmd) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ds, err := dataset.Open(ctx, c.Data)
	if err != nil {
		return err
	}

	server := api.NewServer(analysis.NewEngine(ds), c.Port)
	log.Printf("starting server on :%s", c.Port)
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

type SummaryCmd struct {
	Data   string `required:"" env:"SKYLINE_DATA" help:"Dataset locator: CSV path, http(s)://, ftp:// or sqlite:// URL."`
	Metric string `default:"meters" enum:"meters,feet,floors" env:"SKYLINE_METRIC" help:"Metric to average per city (${enum})."`
}

func (c *SummaryCmd) Run() error {
	ds, err := dataset.Open(context.Background(), c.Data)
	if err != nil {
		return err
	}
	metric, err := models.ParseMetric(c.Metric)
	if err != nil {
		return err
	}
	return writeSummary(os.Stdout, analysis.NewEngine(ds), metric)
}

func writeSummary(out io.Writer, engine *analysis.Engine, metric models.Metric) error {
	aggs, err := engine.AverageByCity(metric)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "CITY\tAVG %s\tSTRUCTURES\n", metric)
	for _, a := range aggs {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", a.City, a.Value, a.Count)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "CITY\tSTRUCTURES")
	for _, c := range engine.CityCounts() {
		fmt.Fprintf(tw, "%s\t%d\n", c.City, c.Count)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "YEAR\tCOMPLETED")
	for _, y := range engine.Completions() {
		fmt.Fprintf(tw, "%d\t%d\n", y.Year, y.Count)
	}
	return tw.Flush()
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("skyline"),
		kong.Description("Analytics over the world's tallest structures."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(kctx.Run())
}
