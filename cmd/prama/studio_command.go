package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"prama/internal/studio"
)

func newStudioCommand(ctx *commandContext) *cobra.Command {
	var (
		videoPath  string
		script     string
		scriptFile string
		lang       string
	)

	cmd := &cobra.Command{
		Use:   "studio",
		Short: "Produce a voice-cloned, lip-synced vodcast clip",
		Long: "Produce a vodcast clip: the face video's own voice is cloned to speak the\n" +
			"script, and the video is lip-synced to the new speech.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if scriptFile != "" {
				content, err := os.ReadFile(scriptFile)
				if err != nil {
					return fmt.Errorf("read script: %w", err)
				}
				script = string(content)
			}
			if strings.TrimSpace(script) == "" {
				return fmt.Errorf("%s (use --script or --script-file)", studio.MsgMissingScript)
			}
			video, closeVideo, err := openUpload(videoPath)
			if err != nil {
				return err
			}
			defer closeVideo()

			return ctx.withApp(false, func(a *app) error {
				result, runErr := a.studio.Run(cmd.Context(), studio.Input{
					FaceVideo: video,
					Script:    script,
					Language:  lang,
				})
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range stepLines(result.Steps, colorize) {
					fmt.Fprintln(out, line)
				}
				if runErr != nil {
					return runErr
				}
				fmt.Fprintln(out)
				fmt.Fprintf(out, "Result ID: %s\n", result.RunID)
				fmt.Fprintf(out, "Speech: %s (%.1fs)\n", result.SpeechAudio, result.Duration)
				fmt.Fprintf(out, "Video: %s\n", result.FinalVideo)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&videoPath, "video", "", "Face video (.mp4 or .mov)")
	cmd.Flags().StringVar(&script, "script", "", "Script to speak")
	cmd.Flags().StringVar(&scriptFile, "script-file", "", "Read the script from a file")
	cmd.Flags().StringVar(&lang, "language", "en", "Script language code")
	cmd.MarkFlagsMutuallyExclusive("script", "script-file")
	_ = cmd.MarkFlagRequired("video")
	return cmd
}

func stepLines(steps []studio.Step, colorize bool) []string {
	lines := make([]string, 0, len(steps))
	for i, step := range steps {
		label := fmt.Sprintf("Step %d", i+1)
		lines = append(lines, renderStatusLine(label, statusKindFromLevel(step.Level), step.Message, colorize))
	}
	return lines
}

func statusKindFromLevel(level studio.Level) statusKind {
	switch level {
	case studio.LevelSuccess:
		return statusOK
	case studio.LevelWarning:
		return statusWarn
	case studio.LevelError:
		return statusError
	default:
		return statusInfo
	}
}
