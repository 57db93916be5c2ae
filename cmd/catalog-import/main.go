// Command catalog-import loads product feeds into the PostgreSQL catalog.
//
// Each argument is a JSON Lines feed, optionally gzip-compressed. Feeds are
// parsed concurrently and written in argument order, so when several feeds
// define the same product the last one wins.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/order-valuation/internal/catalog/feed"
	"github.com/xenking/order-valuation/internal/domain/product"
	"github.com/xenking/order-valuation/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		batchSize   int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&batchSize, "batch-size", 500, "products per upsert batch")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	files := flag.Args()
	if len(files) == 0 {
		slog.Error("at least one feed file is required")
		os.Exit(1)
	}
	if batchSize < 1 {
		batchSize = 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files, batchSize); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string, batchSize int) error {
	slog.Info("reading feeds", slog.Int("files", len(files)))

	feeds, err := readFeeds(ctx, files)
	if err != nil {
		return errors.Wrap(err, "read feeds")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := postgres.NewProductRepository(pool)
	for i, products := range feeds {
		if err := writeProducts(ctx, repo, products, batchSize); err != nil {
			return errors.Wrapf(err, "write %s", files[i])
		}
		slog.Info("feed imported",
			slog.String("path", files[i]),
			slog.Int("products", len(products)),
		)
	}

	return nil
}

// readFeeds parses every file concurrently. The result is indexed like files.
func readFeeds(ctx context.Context, files []string) ([][]product.Product, error) {
	feeds := make([][]product.Product, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			var products []product.Product
			if err := feed.ReadFile(ctx, path, func(p product.Product) error {
				products = append(products, p)
				return nil
			}); err != nil {
				return err
			}

			slog.Info("feed parsed",
				slog.String("path", path),
				slog.Int("products", len(products)),
			)
			feeds[i] = products
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return feeds, nil
}

type batchWriter interface {
	UpsertBatch(ctx context.Context, products []product.Product) error
}

func writeProducts(ctx context.Context, w batchWriter, products []product.Product, batchSize int) error {
	for start := 0; start < len(products); start += batchSize {
		end := min(start+batchSize, len(products))
		if err := w.UpsertBatch(ctx, products[start:end]); err != nil {
			return errors.Wrapf(err, "upsert products %d-%d", start, end-1)
		}
	}
	return nil
}
