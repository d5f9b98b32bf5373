package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"dubmux/internal/history"
	"dubmux/internal/logging"
	"dubmux/internal/media/ffmpeg"
	"dubmux/internal/media/ffprobe"
	"dubmux/internal/media/plan"
	"dubmux/internal/worker"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var videoFlag string
	var audioFlag string
	var outputFlag string
	var trackFlag int
	var languageFlag string

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Mux an external audio track into a video",
		Long: `Merge copies the video's picture stream, one of its audio streams, and
a track from the external audio file into a new container, without
re-encoding anything.

The video audio stream is the first one tagged with the preferred
language (--language, default from config), or the configured fallback
container index when no such stream exists. The external track defaults
to the first stream tagged with the configured auto-select language;
pass --track to choose explicitly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			preferred := cfg.Merge.PreferredLanguage
			if languageFlag != "" {
				preferred = languageFlag
			}

			prober := ffprobe.New(cfg.FFprobeBinary(), logger)
			externalStreams := prober.AudioStreams(cmd.Context(), audioFlag)

			track := trackFlag
			out := cmd.OutOrStdout()
			if track < 0 {
				if cfg.Merge.AutoSelectLanguage == "" {
					return fmt.Errorf("no --track given and merge.auto_select_language is unset")
				}
				index, ok := plan.SelectPreferredTrack(externalStreams, cfg.Merge.AutoSelectLanguage)
				if !ok {
					return fmt.Errorf("no %q track in %s; pass --track (run 'dubmux probe %s' to list streams)",
						cfg.Merge.AutoSelectLanguage, audioFlag, audioFlag)
				}
				track = index
				fmt.Fprintf(out, "Auto-selected %q external track at container index %d.\n",
					cfg.Merge.AutoSelectLanguage, index)
			}

			executor := ffmpeg.New(cfg.FFmpegBinary(), logger)
			options := plan.Options{
				PreferredLanguage:  preferred,
				FallbackAudioIndex: cfg.Merge.FallbackAudioIndex,
			}

			results := make(chan worker.Result, 1)
			merger := worker.New(prober, executor, options, logger,
				worker.WithLockFile(filepath.Join(cfg.Paths.LogDir, "merge.lock")),
				worker.WithResultObserver(func(r worker.Result) { results <- r }),
			)

			request := worker.Request{
				VideoPath:       videoFlag,
				ExternalPath:    audioFlag,
				ExternalTrack:   track,
				OutputPath:      outputFlag,
				ExternalStreams: externalStreams,
			}
			jobID, err := merger.Start(cmd.Context(), request)
			if err != nil {
				return err
			}

			mergeErr := drainEvents(cmd.Context(), merger, out)

			result := <-results
			if cfg.History.Enabled {
				if err := recordResult(cmd.Context(), cfg.Paths.HistoryDBPath, request, result); err != nil {
					logger.Warn("record merge history", logging.Error(err))
				}
			}

			if mergeErr != nil {
				return fmt.Errorf("merge %s: %w", jobID, mergeErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&videoFlag, "video", "", "Source video file")
	cmd.Flags().StringVar(&audioFlag, "audio", "", "External audio (or dubbed video) file")
	cmd.Flags().StringVar(&outputFlag, "output", "", "Merged output file (overwritten if present)")
	cmd.Flags().IntVar(&trackFlag, "track", -1, "Container index of the external track (default: auto-select)")
	cmd.Flags().StringVarP(&languageFlag, "language", "l", "", "Preferred video audio language (overrides config)")
	_ = cmd.MarkFlagRequired("video")
	_ = cmd.MarkFlagRequired("audio")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

// drainEvents polls the worker queue until the terminal event arrives,
// echoing log lines as they appear. The merge runs to completion even
// when ctx is canceled, so polling continues until the done event.
func drainEvents(ctx context.Context, merger *worker.Merger, out io.Writer) error {
	for {
		event, ok := merger.Poll()
		if !ok {
			time.Sleep(50 * time.Millisecond)
			continue
		}
		switch event.Kind {
		case worker.EventLog:
			fmt.Fprintln(out, event.Line)
		case worker.EventDone:
			return event.Err
		}
	}
}

func recordResult(ctx context.Context, dbPath string, req worker.Request, result worker.Result) error {
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	outcome, exitCode := history.Classify(result.Err)
	return store.Add(ctx, history.Record{
		JobID:              result.JobID,
		VideoPath:          req.VideoPath,
		ExternalPath:       req.ExternalPath,
		OutputPath:         req.OutputPath,
		VideoAudioIndex:    result.Plan.VideoAudioIndex,
		ExternalTrackIndex: req.ExternalTrack,
		UsedFallback:       result.UsedFallback,
		Outcome:            outcome,
		ExitCode:           exitCode,
	})
}
