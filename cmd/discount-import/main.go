package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/teahouse-backend/internal/app"
	"github.com/xenking/teahouse-backend/internal/domain/discount"
)

func main() {
	var (
		storeCfg app.StoreConfig
		pattern  string
		scan     scanConfig
	)

	storeCfg.RegisterFlags(flag.CommandLine)
	flag.StringVar(&pattern, "files", "codes/*.gz", "glob of gzip-compressed code lists, one code per line")
	flag.IntVar(&scan.MinFiles, "min-files", 2, "number of lists a code must appear in to be imported")
	flag.IntVar(&scan.MinLen, "min-len", 8, "shortest accepted code")
	flag.IntVar(&scan.MaxLen, "max-len", 10, "longest accepted code")
	flag.UintVar(&scan.Capacity, "bloom-capacity", 10_000_000, "expected codes per list")
	flag.Float64Var(&scan.FPR, "bloom-fpr", 0.001, "bloom filter false positive rate")
	flag.Parse()

	if err := storeCfg.Validate(); err != nil {
		slog.Error("invalid store configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	decimal.MarshalJSONWithoutQuotes = true

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, storeCfg, pattern, scan); err != nil {
		slog.Error("discount import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("discount import completed successfully")
}

func run(ctx context.Context, storeCfg app.StoreConfig, pattern string, scan scanConfig) error {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return errors.Wrap(err, "match code files")
	}
	sort.Strings(files)

	codes, err := scan.FindCodes(ctx, files)
	if err != nil {
		return err
	}

	slog.Info("valid codes found", slog.Int("count", len(codes)))

	if len(codes) == 0 {
		slog.Info("no valid codes to import")
		return nil
	}

	s, closeStore, err := app.OpenStore(ctx, storeCfg)
	if err != nil {
		return err
	}
	defer closeStore()

	inputs := make([]discount.Input, 0, len(codes))
	for _, code := range codes {
		inputs = append(inputs, ruleFor(code).input(code))
	}

	slog.Info("writing discounts", slog.Int("count", len(inputs)))

	added, err := discount.NewManager(discount.NewCollection(s)).Import(ctx, inputs)
	if err != nil {
		return errors.Wrap(err, "import discounts")
	}

	slog.Info("imported discounts",
		slog.Int("added", added),
		slog.Int("skipped", len(inputs)-added),
	)
	return nil
}
