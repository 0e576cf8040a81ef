package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/portfolio-admin/internal/cli"
	"github.com/Vovarama1992/portfolio-admin/internal/config"
	"github.com/Vovarama1992/portfolio-admin/internal/infra"
	"go.uber.org/zap"
)

func main() {
	zcore, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer zcore.Sync() //nolint:errcheck
	zl := logger.NewZapLogger(zcore.Sugar())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(cli.Options{
		Log:        zl,
		LoadConfig: func() (*config.Config, error) { return config.Load() },
		OpenStore:  infra.OpenRecordStore,
	})

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
