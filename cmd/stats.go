package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bnema/guac-console/internal/adapters/render/statistics"
	"github.com/bnema/guac-console/internal/adapters/statsfeed"
	"github.com/bnema/guac-console/internal/application"
	"github.com/bnema/guac-console/internal/domain"
	"github.com/spf13/cobra"
)

const defaultTargetFPS = 60

func newStatsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Render remote display statistics",
		Long:  "stats reads display statistics as newline-delimited JSON objects (desktopFps, serverFps, clientFps, dropRate) from a file or stdin and renders them.",
	}

	cmd.AddCommand(
		newStatsShowCmd(app),
		newStatsWatchCmd(app),
	)

	return cmd
}

type statisticView struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	// Value is the rounded value, or null when none has been reported.
	Value *int64 `json:"value"`
}

func newStatsShowCmd(app *app) *cobra.Command {
	var path string
	var asJSON bool
	var strict bool
	var targetFPS float64

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Read the whole stream and render the resulting statistics once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			source, closeSource, err := openStatsSource(cmd, path)
			if err != nil {
				return err
			}
			defer closeSource()

			live := &domain.LiveStatistics{}
			feed := statsfeed.New(app.log)
			feed.Strict = strict
			result, err := feed.Run(cmd.Context(), source, live)
			if err != nil {
				return err
			}
			app.log.Debug("statistics stream read", "applied", result.Applied, "skipped", result.Skipped)

			binding := application.NewStatisticsBinding(live)
			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(toStatisticViews(binding))
			}

			output, err := statistics.Render(binding, statistics.RenderOptions{TargetFPS: targetFPS})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "Read statistics from this file (default: stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on malformed lines instead of skipping them")
	cmd.Flags().Float64Var(&targetFPS, "target-fps", defaultTargetFPS, "Frame rate that fills a bar (0 hides bars)")

	return cmd
}

func newStatsWatchCmd(app *app) *cobra.Command {
	var path string
	var interval time.Duration
	var targetFPS float64

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the stream and redraw the statistics every interval",
		RunE: func(cmd *cobra.Command, _ []string) error {
			source, closeSource, err := openStatsSource(cmd, path)
			if err != nil {
				return err
			}
			defer closeSource()

			// The stream owns stdin when no file is given, so keys cannot quit then.
			var input io.Reader = cmd.InOrStdin()
			if path == "" || path == "-" {
				input = nil
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			live := &domain.LiveStatistics{}
			feedDone := make(chan error, 1)
			go func() {
				result, err := statsfeed.New(app.log).Run(ctx, source, live)
				if err != nil && ctx.Err() == nil {
					feedDone <- err
					cancel()
					return
				}
				app.log.Debug("statistics stream ended", "applied", result.Applied, "skipped", result.Skipped)
				feedDone <- nil
			}()

			model := statistics.NewWatchModel(
				application.NewStatisticsBinding(live),
				statistics.RenderOptions{TargetFPS: targetFPS},
				interval,
				app.clock,
			)
			watchErr := statistics.Watch(ctx, model, input, cmd.OutOrStdout())
			cancel()

			if err := <-feedDone; err != nil {
				return err
			}
			return watchErr
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "Follow statistics from this file (default: stdin)")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Redraw interval")
	cmd.Flags().Float64Var(&targetFPS, "target-fps", defaultTargetFPS, "Frame rate that fills a bar (0 hides bars)")

	return cmd
}

func openStatsSource(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open statistics file: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}

func toStatisticViews(binding *application.StatisticsBinding) []statisticView {
	fields := binding.Fields()
	views := make([]statisticView, 0, len(fields))
	for _, field := range fields {
		view := statisticView{Key: field.Key, Label: field.Label}
		if binding.HasValue(field.Value) {
			rounded := binding.Round(field.Value)
			view.Value = &rounded
		}
		views = append(views, view)
	}
	return views
}
