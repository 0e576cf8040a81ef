package infra

import (
	"context"
	"time"

	"github.com/Vovarama1992/portfolio-admin/internal/config"
	"github.com/Vovarama1992/portfolio-admin/internal/ports"
)

const pingTimeout = 5 * time.Second

// OpenRecordStore builds the store named by cfg.RecordStore. The returned
// func releases its connections.
func OpenRecordStore(ctx context.Context, cfg *config.Config) (ports.RecordStore, func(), error) {
	if cfg.RecordStore == config.StoreREST {
		client := NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey, cfg.HTTPTimeout)
		return NewRestRecordStore(client), func() {}, nil
	}

	pool, err := NewPgxPool(ctx, cfg.DatabaseURL, pingTimeout)
	if err != nil {
		return nil, nil, err
	}
	return NewPostgresRecordStore(pool), pool.Close, nil
}
