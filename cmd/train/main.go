package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/data"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/experiment"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/registry"
)

func main() {
	dataFile := flag.String("data", "", "Path to the cleaned dataset CSV")
	labelColumn := flag.String("label", "", "Name of the binary outcome column (default: last column)")
	configFile := flag.String("config", "", "Path to YAML run configuration")
	outFile := flag.String("out", "", "Path to export the result table as CSV")
	seed := flag.Int64("seed", 0, "Override the configured random seed")
	budget := flag.Int("budget", 0, "Override the per-family search budget")
	verbose := flag.Bool("v", false, "Verbose logging")

	flag.Parse()

	if *dataFile == "" {
		fmt.Println("Usage:")
		fmt.Println("  go run cmd/train/main.go -data data/pima.csv -label diabetes")
		fmt.Println("  go run cmd/train/main.go -data data/pima.csv -config config/run.yaml -out results.csv")
		fmt.Println("\nOptions:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log := newLogger(*verbose)
	defer log.Sync()

	config := experiment.DefaultConfig()
	if *configFile != "" {
		loaded, err := experiment.LoadConfig(*configFile)
		if err != nil {
			log.Fatal("failed to load config", zap.Error(err))
		}
		config = loaded
	}
	if *seed != 0 {
		config.Experiment.Seed = *seed
	}
	if *budget != 0 {
		config.Experiment.SearchBudget = *budget
	}
	if *labelColumn == "" {
		*labelColumn = config.Experiment.LabelColumn
	}

	reader := data.NewCSVReader(*dataFile, *labelColumn)
	ds, dropped, err := reader.Load()
	if err != nil {
		log.Fatal("failed to load dataset", zap.Error(err))
	}

	log.Info("dataset loaded",
		zap.Int("records", ds.Len()),
		zap.Int("features", ds.NumFeatures()),
		zap.Int("dropped_rows", dropped),
		zap.Strings("classes", ds.ClassNames()))

	runner := experiment.NewRunner(config, registry.Default(), log)
	table, runErr := runner.Run(context.Background(), ds)

	if table != nil && len(table.Entries) > 0 {
		fmt.Println()
		table.Print(os.Stdout)
		fmt.Println()
	}

	if table != nil && *outFile != "" {
		if err := table.ExportCSV(*outFile); err != nil {
			log.Error("failed to export results", zap.Error(err))
		} else {
			log.Info("results exported", zap.String("path", *outFile))
		}
	}

	if runErr != nil {
		log.Fatal("comparison run failed", zap.Error(runErr))
	}
}

func newLogger(verbose bool) *zap.Logger {
	config := zap.NewDevelopmentConfig()
	if !verbose {
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	log, err := config.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return log
}
