package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"prama/internal/config"
	"prama/internal/services/gtranslate"
	"prama/internal/translate"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var (
		text        string
		inputFile   string
		outputFile  string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate Hindi text to English",
		Long: "Translate Hindi text to English.\n\n" +
			"With no flags the command starts an interactive prompt; type 'quit' to exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.commandLogger(false)
			if err != nil {
				return err
			}
			tr := translate.New(newTranslateClient(cfg.Translate), cfg.Translate.Source, cfg.Translate.Target, logger)
			out := cmd.OutOrStdout()

			switch {
			case interactive:
				return runInteractive(cmd, tr)
			case strings.TrimSpace(text) != "":
				result, err := tr.TranslateText(cmd.Context(), text)
				if err != nil {
					fmt.Fprintf(out, "Translation error: %v\n", err)
					return nil
				}
				printWarning(out, result)
				fmt.Fprintf(out, "Translation: %s\n", result.Text)
				return nil
			case strings.TrimSpace(inputFile) != "":
				return runTranslateFile(cmd, tr, inputFile, outputFile)
			default:
				return runInteractive(cmd, tr)
			}
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "Hindi text to translate")
	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "Input file with Hindi text")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file for the translation")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Run in interactive mode")
	return cmd
}

func newTranslateClient(cfg config.Translate) *gtranslate.Client {
	return gtranslate.NewClient(
		gtranslate.Config{BaseURL: cfg.BaseURL, TimeoutSeconds: cfg.TimeoutSeconds},
		gtranslate.WithRetryMaxAttempts(cfg.RetryAttempts),
	)
}

func runTranslateFile(cmd *cobra.Command, tr *translate.Translator, input, output string) error {
	out := cmd.OutOrStdout()
	result, err := tr.TranslateFile(cmd.Context(), input, output)
	if err != nil {
		var fileErr *translate.FileError
		if errors.As(err, &fileErr) {
			fmt.Fprintln(out, fileErr.Error())
			return nil
		}
		fmt.Fprintf(out, "Translation error: %v\n", err)
		return nil
	}
	printWarning(out, result)
	if output != "" {
		fmt.Fprintf(out, "Translation saved to %s\n", output)
		return nil
	}
	fmt.Fprintln(out, "Translated text:")
	fmt.Fprintln(out, result.Text)
	return nil
}

func runInteractive(cmd *cobra.Command, tr *translate.Translator) error {
	in := cmd.InOrStdin()
	return tr.Interactive(cmd.Context(), in, cmd.OutOrStdout(), isTerminal(in))
}

func printWarning(out io.Writer, result translate.Translation) {
	if result.Warning != "" {
		fmt.Fprintf(out, "Warning: %s\n", result.Warning)
	}
}

func isTerminal(stream any) bool {
	file, ok := stream.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
