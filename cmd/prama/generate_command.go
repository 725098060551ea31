package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"prama/internal/fileutil"
	"prama/internal/services/sadtalker"
	"prama/internal/talkinghead"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		imagePath string
		audioPath string
		opts      sadtalker.Options
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a talking-head video from an image and audio",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			defaults := sadtalker.DefaultOptions(cfg)
			flags := cmd.Flags()
			if !flags.Changed("preprocess") {
				opts.Preprocess = defaults.Preprocess
			}
			if !flags.Changed("batch-size") {
				opts.BatchSize = defaults.BatchSize
			}
			if !flags.Changed("size") {
				opts.Size = defaults.Size
			}
			if !flags.Changed("pose-style") {
				opts.PoseStyle = defaults.PoseStyle
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			image, closeImage, err := openUpload(imagePath)
			if err != nil {
				return err
			}
			defer closeImage()
			driven, closeAudio, err := openUpload(audioPath)
			if err != nil {
				return err
			}
			defer closeAudio()

			return ctx.withApp(false, func(a *app) error {
				result, err := a.talkingHead.Generate(cmd.Context(), talkinghead.Input{
					SourceImage: image,
					DrivenAudio: driven,
					Options:     opts,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Result ID: %s\n", result.Tag)
				fmt.Fprintf(out, "Video: %s\n", result.VideoPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "Source face image")
	cmd.Flags().StringVar(&audioPath, "audio", "", "Driving audio file")
	cmd.Flags().StringVar(&opts.Preprocess, "preprocess", "", "Preprocess mode: crop, resize, full, extcrop or extfull")
	cmd.Flags().BoolVar(&opts.StillMode, "still", false, "Still mode (fewer head motions)")
	cmd.Flags().BoolVar(&opts.UseEnhancer, "enhancer", false, "Enable the GFPGAN face enhancer")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "Frames rendered per batch (1-10)")
	cmd.Flags().IntVar(&opts.Size, "size", 0, "Face model resolution (256 or 512)")
	cmd.Flags().IntVar(&opts.PoseStyle, "pose-style", 0, "Pose style (0-46)")
	_ = cmd.MarkFlagRequired("image")
	_ = cmd.MarkFlagRequired("audio")
	return cmd
}

func newSpeakCommand(ctx *commandContext) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "speak",
		Short: "Synthesize text to a WAV file for use as driving audio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(false, func(a *app) error {
				result, err := a.talkingHead.Speak(cmd.Context(), text)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Audio: %s\n", result.AudioPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to speak")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

// openUpload presents a local file the way an HTTP upload arrives.
func openUpload(path string) (fileutil.Upload, func(), error) {
	path = strings.TrimSpace(path)
	file, err := os.Open(path)
	if err != nil {
		return fileutil.Upload{}, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return fileutil.Upload{Name: filepath.Base(path), Body: file}, func() { _ = file.Close() }, nil
}
