package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/teahouse-backend/internal/app"
	"github.com/xenking/teahouse-backend/internal/domain/product"
)

func main() {
	var (
		storeCfg     app.StoreConfig
		productsFile string
		replace      bool
	)

	storeCfg.RegisterFlags(flag.CommandLine)
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.BoolVar(&replace, "replace", false, "discard the current menu before importing")
	flag.Parse()

	if err := storeCfg.Validate(); err != nil {
		slog.Error("invalid store configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	decimal.MarshalJSONWithoutQuotes = true

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, storeCfg, productsFile, replace); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, storeCfg app.StoreConfig, productsFile string, replace bool) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var inputs []product.Input
	if err := json.Unmarshal(data, &inputs); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("opening store", slog.String("driver", storeCfg.Driver))

	s, closeStore, err := app.OpenStore(ctx, storeCfg)
	if err != nil {
		return err
	}
	defer closeStore()

	catalog := product.NewCatalog(product.NewCollection(s))
	n, err := catalog.Import(ctx, inputs, replace)
	if err != nil {
		return errors.Wrap(err, "import products")
	}

	slog.Info("imported products", slog.Int("count", n), slog.Bool("replace", replace))
	return nil
}
