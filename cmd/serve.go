/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/eslsoft/taboo/internal/app"
	"github.com/eslsoft/taboo/internal/usecase"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Connect game server",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, cleanup, err := app.Initialize()
		if err != nil {
			return fmt.Errorf("initialize app: %w", err)
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := container.Logger
		g, gctx := errgroup.WithContext(ctx)
		g.Go(container.Server.Start)
		g.Go(func() error {
			sweeper := logger.WithField("component", "session_expiry")
			return usecase.RunSessionExpiry(gctx, container.Sessions, container.Config.Game.SweepInterval, sweeper)
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return container.Server.Shutdown(shutdownCtx)
		})

		err = g.Wait()
		logUsageTotals(logger, container)
		return err
	},
}

func logUsageTotals(logger *logrus.Logger, container *app.Container) {
	for _, totals := range container.Usage.Snapshot() {
		logger.WithFields(logrus.Fields{
			"operation":         totals.Operation,
			"calls":             totals.Calls,
			"prompt_tokens":     totals.PromptTokens,
			"completion_tokens": totals.CompletionTokens,
			"cost":              totals.Cost,
		}).Info("ai usage totals")
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
