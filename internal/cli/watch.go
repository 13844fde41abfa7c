package cli

import (
	"context"
	"log/slog"

	"github.com/reliant/configurator/internal/validator"
)

// watcher is implemented by catalogs that can report changed documents.
type watcher interface {
	Watch(ctx context.Context) (<-chan string, error)
}

// WatchCatalog revalidates the catalog whenever a document changes, until ctx
// is done. It returns false when the catalog cannot be watched.
func WatchCatalog(ctx context.Context, catalog Catalog, logger *slog.Logger) bool {
	w, ok := catalog.(watcher)
	if !ok {
		return false
	}
	events, err := w.Watch(ctx)
	if err != nil {
		logger.Warn("catalog watch unavailable", "err", err)
		return false
	}
	go func() {
		for id := range events {
			logger.Info("catalog changed", "document", id)
			logReport(ctx, catalog, logger)
		}
	}()
	return true
}

func logReport(ctx context.Context, catalog Catalog, logger *slog.Logger) {
	products, err := catalog.ListProducts(ctx)
	if err != nil {
		logger.Error("failed to list products", "err", err)
		return
	}
	report, err := validator.Validate(ctx, catalog, products)
	if err != nil {
		logger.Error("catalog validation failed", "err", err)
		return
	}
	for _, msg := range report.Errors {
		logger.Error("catalog error", "msg", msg)
	}
	for _, msg := range report.Warnings {
		logger.Warn("catalog warning", "msg", msg)
	}
}
