package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dataforge/internal/watch"
	"dataforge/internal/workflow"
)

func newWatchCmd() *cobra.Command {
	var dir, request string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a directory and process every new file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			if dir == "" {
				dir = a.cfg.Watch.Directory
			}
			if request == "" {
				request = a.cfg.Watch.Request
			}
			if request == "" {
				request = "clean, validate and report on this data"
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w := watch.New(dir, request, a.cfg.WatchDebounce(), a.engine,
				func(filename string, res *workflow.ExecutionResult, err error) {
					fmt.Println(styleHeading.Render("Ingested " + filename))
					printResult(res)
					if err != nil {
						a.logger.Error("ingestion failed", zap.String("file", filename), zap.Error(err))
					}
				})

			a.logger.Info("watching", zap.String("dir", dir), zap.String("request", request))
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to watch (default from config)")
	cmd.Flags().StringVarP(&request, "request", "r", "", "standing request for each file")
	return cmd
}
