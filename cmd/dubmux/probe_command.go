package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"dubmux/internal/media/ffprobe"
	"dubmux/internal/media/plan"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var languageFlag string

	cmd := &cobra.Command{
		Use:   "probe FILE",
		Short: "List a media file's audio streams",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			prober := ffprobe.New(cfg.FFprobeBinary(), logger)
			streams := prober.AudioStreams(cmd.Context(), args[0])

			out := cmd.OutOrStdout()
			if len(streams) == 0 {
				fmt.Fprintln(out, "No audio streams found.")
				return nil
			}

			rows := make([][]string, 0, len(streams))
			for _, stream := range streams {
				rows = append(rows, []string{
					strconv.Itoa(stream.Index),
					stream.Language,
					languageName(stream.Language),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Index", "Tag", "Language"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			))

			if languageFlag != "" {
				if index, ok := plan.SelectPreferredTrack(streams, languageFlag); ok {
					fmt.Fprintf(out, "First %q track: container index %d\n", languageFlag, index)
				} else {
					fmt.Fprintf(out, "No %q track found.\n", languageFlag)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&languageFlag, "language", "l", "", "Report the first stream matching this language tag")
	return cmd
}

// languageName resolves a probe language tag to a human-readable name,
// or "" when the tag is unknown or unparseable.
func languageName(tag string) string {
	if tag == "" || tag == ffprobe.UnknownLanguage {
		return ""
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return ""
	}
	return display.English.Languages().Name(parsed)
}
