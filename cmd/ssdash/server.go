package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/macrat/ssdash/internal/endpoint"
	"github.com/macrat/ssdash/internal/meta"
	"github.com/macrat/ssdash/internal/schedule"
	"github.com/macrat/ssdash/internal/stream"
)

// ShutdownTimeout is the time to wait for the dashboard requests in flight when shutting down.
const ShutdownTimeout = 5 * time.Second

func (cmd *SsdashCommand) RunServer(ctx context.Context) (exitCode int) {
	logger := cmd.NewLogger(cmd.ErrStream)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctrl, client, err := cmd.Open(ctx, logger)
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: failed to connect to the checker server: %s\n", err)
		return 1
	}

	logger.Info("start ssdash",
		"version", meta.Version,
		"commit", meta.Commit,
		"server", client.URL(),
		"listen", cmd.Config.Listen,
		"resync", cmd.Resync.String(),
		"level", ctrl.Gate.Level().String(),
	)

	wg := &sync.WaitGroup{}

	signals := make(chan stream.Signal)
	wg.Add(1)
	go func() {
		stream.New(client, logger).Run(ctx, signals)
		close(signals)
		wg.Done()
	}()

	wg.Add(1)
	go func() {
		ctrl.Run(ctx, signals)
		wg.Done()
	}()

	stopResync := schedule.Start(cmd.Resync, ctrl.Refresh)

	srv := &http.Server{
		Addr:              cmd.Config.Listen,
		Handler:           endpoint.New(ctrl, cmd.Config.DashboardUser),
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(1)
	go func() {
		<-ctx.Done()

		stopResync()

		sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			ctrl.ReportInternalError("endpoint", err.Error())
		}
		wg.Done()
	}()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		ctrl.ReportInternalError("endpoint", err.Error())
		exitCode = 1
	}
	cancel()

	wg.Wait()

	logger.Info("stop ssdash")

	return exitCode
}
