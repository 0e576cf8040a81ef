package infra

import (
	"context"
	"testing"

	"github.com/Vovarama1992/portfolio-admin/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRecordStore(t *testing.T) {
	t.Run("Should build the REST store without touching the network", func(t *testing.T) {
		cfg := config.Default()
		cfg.RecordStore = config.StoreREST
		cfg.SupabaseURL = testSupabaseURL
		cfg.SupabaseKey = "anon-key"

		store, closeFn, err := OpenRecordStore(context.Background(), &cfg)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &RestRecordStore{}, store)
	})

	t.Run("Should fail on an unparsable postgres DSN", func(t *testing.T) {
		cfg := config.Default()
		cfg.DatabaseURL = "postgres://%zz"

		_, _, err := OpenRecordStore(context.Background(), &cfg)
		require.Error(t, err)
	})
}
