package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/gfob-engine/internal/backtest/engine"
	backtest "github.com/rxtech-lab/gfob-engine/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/gfob-engine/internal/datasource"
)

// listDataFiles resolves the data flag to a list of CSV files: a directory
// means every *.csv inside it, anything else is taken as a single file.
func listDataFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access data path %s: %w", path, err)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	files, err := filepath.Glob(filepath.Join(path, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no csv files found in %s", path)
	}

	return files, nil
}

// symbolFromFile derives the symbol from the file name, e.g.
// data/BTCUSDT.csv -> BTCUSDT.
func symbolFromFile(path string) string {
	name := filepath.Base(path)

	return strings.TrimSuffix(name, filepath.Ext(name))
}

func buildDataSource(dataPath string) (*datasource.InMemoryDataSource, error) {
	files, err := listDataFiles(dataPath)
	if err != nil {
		return nil, err
	}

	source := datasource.NewInMemoryDataSource()
	for _, file := range files {
		symbol := symbolFromFile(file)

		bars, err := datasource.LoadCSVFile(file, symbol)
		if err != nil {
			return nil, err
		}

		if err := source.AddSeries(symbol, bars); err != nil {
			return nil, err
		}

		log.Printf("Loaded %d bars for %s from %s", len(bars), symbol, file)
	}

	return source, nil
}

// runAction loads the config and data, runs the backtest, and reports where
// the results were written.
func runAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	outputPath := cmd.String("output")

	source, err := buildDataSource(dataPath)
	if err != nil {
		return err
	}

	backtester := backtest.NewBacktestEngineV1()
	if err := backtester.SetConfigPath(configPath); err != nil {
		return err
	}

	if err := backtester.SetDataSource(source); err != nil {
		return err
	}

	if err := backtester.SetResultsFolder(outputPath); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	onStart := engine.OnRunStartCallback(func(runID string, totalBars int, symbols []string) error {
		log.Printf("Run %s over %d bars of %s", runID, totalBars, strings.Join(symbols, ", "))
		bar = progressbar.New(totalBars)

		return nil
	})
	onBar := engine.OnBarCallback(func(current int, total int) error {
		bar.Add(1)

		return nil
	})
	onEnd := engine.OnRunEndCallback(func(runID string, resultFolderPath string) {
		fmt.Println()
		log.Printf("Run %s finished, results written to %s", runID, resultFolderPath)
	})

	if err := backtester.Run(ctx, engine.LifecycleCallbacks{
		OnRunStart: &onStart,
		OnBar:      &onBar,
		OnRunEnd:   &onEnd,
	}); err != nil {
		return err
	}

	results, err := backtester.Results()
	if err != nil {
		return err
	}

	stats := results.Stats
	log.Printf("Final equity %s (initial %s), %d trades, win rate %.2f%%, max drawdown %.2f%%",
		results.FinalEquity, results.InitialCapital,
		stats.TradeResult.NumberOfTrades,
		stats.TradeResult.WinRate*100,
		stats.TradeResult.MaxDrawdown*100,
	)

	return nil
}

// schemaAction prints the JSON schema of the engine configuration.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	backtester := backtest.NewBacktestEngineV1()

	schema, err := backtester.GetConfigSchema()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run a strategy backtest over historical bar data",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the configured strategy over a data set",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the engine YAML configuration",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "CSV file or directory of CSV files, one per symbol",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Directory the results are written to",
						Value:   "results",
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the engine configuration",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
