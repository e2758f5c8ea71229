package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pcorbett/relens/internal/app"
	"github.com/pcorbett/relens/internal/fetch"
	"github.com/pcorbett/relens/internal/generate"
	"github.com/pcorbett/relens/internal/render"
	"github.com/pcorbett/relens/internal/segment"
	"github.com/pcorbett/relens/internal/spinner"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// buildConfig constructs an app.Config from command flags and arguments
func buildConfig(cmd *cobra.Command, args []string) app.Config {
	flags, _ := cmd.Flags().GetString("flags")
	countOnly, _ := cmd.Flags().GetBool("count")
	jsonFlag, _ := cmd.Flags().GetBool("json")
	plainFlag, _ := cmd.Flags().GetBool("plain")
	htmlFlag, _ := cmd.Flags().GetBool("html")
	selector, _ := cmd.Flags().GetString("selector")
	includeAll, _ := cmd.Flags().GetBool("include-all")
	quiet, _ := cmd.Flags().GetBool("quiet")
	debug, _ := cmd.Flags().GetBool("debug")

	// determine output format; without an explicit flag, highlight on a
	// terminal and fall back to markers when piped
	var output app.OutputFormat
	switch {
	case jsonFlag:
		output = app.JSON
	case plainFlag:
		output = app.Plain
	case render.IsTerminal(os.Stdout):
		output = app.Highlight
	default:
		output = app.Plain
	}

	// first argument is the pattern; remaining arguments are sources,
	// defaulting to stdin
	sources := args[1:]
	if len(sources) == 0 {
		sources = []string{"-"}
	}

	return app.Config{
		Pattern:    args[0],
		Flags:      flags,
		Sources:    sources,
		Output:     output,
		CountOnly:  countOnly,
		HTML:       htmlFlag,
		Selector:   selector,
		IncludeAll: includeAll,
		Quiet:      quiet,
		Debug:      debug,
	}
}

// setupLogger configures the default slog logger based on debug mode
func setupLogger(debug bool) {
	level := slog.LevelError
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

var rootCmd = &cobra.Command{
	Use:   "relens <pattern> [sources...]",
	Short: "Highlight regular-expression matches in text",
	Long: `Relens segments text into matched and unmatched regions for a regular
expression (ECMA-262 dialect) and renders the result with the matches
highlighted. Sources may be local files, URLs, or standard input.

An invalid pattern never fails the run: the text is rendered unmatched and a
warning explains why.

Examples:
  relens '\[(\w+)\]' server.log
  cat server.log | relens 'ERROR.*$' -f gim
  relens --count '\d+\.\d+\.\d+\.\d+' access.log
  relens --html 'cake' https://example.com/recipes`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := buildConfig(cmd, args)
		setupLogger(config.Debug)

		// create context with signal handling for graceful shutdown
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		result, err := app.Run(ctx, config)
		if err != nil {
			return fmt.Errorf("relens failed: %w", err)
		}

		fmt.Print(result)
		return nil
	},
}

var genCmd = &cobra.Command{
	Use:   "gen <description> [source]",
	Short: "Generate a regular expression from a natural-language description",
	Long: `Gen asks a language model for a regular expression matching a plain-English
description, optionally grounded in a sample text read from a file, URL, or
standard input. The generated pattern is printed for use with the root
command, or applied to the sample directly with --apply.

Credentials come from RELENS_API_KEY or OPENAI_API_KEY (a .env file in the
working directory is honored).

Examples:
  relens gen 'ISO dates'
  relens gen 'bracketed log levels' server.log --apply`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")
		debug, _ := cmd.Flags().GetBool("debug")
		model, _ := cmd.Flags().GetString("model")
		apply, _ := cmd.Flags().GetBool("apply")
		sampleTokens, _ := cmd.Flags().GetInt("sample-tokens")

		setupLogger(debug)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var sample string
		if len(args) == 2 {
			content, err := fetch.ReadAll(ctx, args[1])
			if err != nil {
				return fmt.Errorf("failed to read sample: %w", err)
			}
			sample = generate.TruncateSample(content, sampleTokens)
		}

		client, err := generate.NewClient()
		if err != nil {
			return err
		}

		var sp *spinner.Spinner
		if !quiet {
			sp = spinner.New(ctx, os.Stderr, "Generating pattern...")
			sp.Start()
		}
		result, err := generate.Generate(ctx, client, generate.Request{
			Instruction: args[0],
			Sample:      sample,
			Model:       model,
		})
		if sp != nil {
			sp.Stop()
		}
		if err != nil {
			return err
		}

		fmt.Printf("pattern:     %s\n", result.Pattern)
		fmt.Printf("flags:       %s\n", result.Flags)
		if result.Explanation != "" {
			fmt.Printf("explanation: %s\n", result.Explanation)
		}

		// optionally run the generated pattern against the sample right away
		if apply && sample != "" {
			format := app.Plain
			if render.IsTerminal(os.Stdout) {
				format = app.Highlight
			}
			out, err := app.Render(segment.Segment(sample, result.Pattern, result.Flags), format)
			if err != nil {
				return err
			}
			fmt.Print("\n" + out)
		}

		return nil
	},
}

func init() {
	rootCmd.Flags().StringP("flags", "f", "gm", "Regex flags (ECMA-262 letters; the match-all flag is added when missing)")
	rootCmd.Flags().Bool("count", false, "Print only the number of matches")

	// output format flags are mutually exclusive
	rootCmd.Flags().Bool("json", false, "Output the span sequence as JSON")
	rootCmd.Flags().Bool("plain", false, "Output text with « » markers around matches")
	rootCmd.MarkFlagsMutuallyExclusive("json", "plain")

	// HTML extraction flags
	rootCmd.Flags().Bool("html", false, "Reduce HTML sources to readable text before matching")
	rootCmd.Flags().StringP("selector", "s", "", "CSS selector scoping HTML extraction (implies --html)")
	rootCmd.Flags().BoolP("include-all", "i", false, "Convert all HTML content without readability filtering")

	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress warnings and progress output")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "Enable debug logging")
	_ = rootCmd.PersistentFlags().MarkHidden("debug")

	genCmd.Flags().String("model", generate.DefaultModel, "Model to use for generation")
	genCmd.Flags().Bool("apply", false, "Apply the generated pattern to the sample immediately")
	genCmd.Flags().Int("sample-tokens", 1000, "Token budget for the sample sent to the model")

	rootCmd.AddCommand(genCmd)
}

func main() {
	// make a local .env visible before any flag handling reads the environment
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
