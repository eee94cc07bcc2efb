package main

import (
	"context"
	"fmt"

	"github.com/hengadev/exprjson"
	s3bucket "github.com/hengadev/exprjson/providers/s3"
	"github.com/hengadev/exprjson/providers/sqlite"
)

// openStore returns the configured store and a func releasing it.
func openStore(ctx context.Context, cfg StoreConfig, logger *exprjson.StructuredLogger) (exprjson.DocumentStore, func() error, error) {
	switch cfg.Kind {
	case StoreSQLite:
		store, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store.WithLogger(logger), store.Close, nil
	case StoreS3:
		store, err := s3bucket.New(ctx, s3bucket.Config{
			Bucket:         cfg.Bucket,
			Prefix:         cfg.Prefix,
			Region:         cfg.Region,
			Endpoint:       cfg.Endpoint,
			ForcePathStyle: cfg.ForcePathStyle,
			Logger:         logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("%w: no store configured, set store.kind or %s", exprjson.ErrInvalidConfiguration, exprjson.EnvStore)
	}
}
