// Package cmd wires the CLI surface: flag parsing, profile selection and
// the next → execute → notify loop driving the preprocessor.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/fhttp/internal/config"
	"github.com/agentic-research/fhttp/internal/curl"
	"github.com/agentic-research/fhttp/internal/httpclient"
	"github.com/agentic-research/fhttp/internal/preprocess"
	"github.com/agentic-research/fhttp/internal/profile"
	"github.com/agentic-research/fhttp/internal/request"
)

const defaultProfileFile = "fhttp-config.json"

var (
	noPrompt    bool
	profileName string
	profileFile string
	verbose     int
	quiet       bool
	printPaths  bool
	timeoutMs   int64
	curlMode    bool
	outPath     string
)

var rootCmd = &cobra.Command{
	Use:           "fhttp FILE [FILE...]",
	Short:         "file-based http client",
	Args:          cobra.MinimumNArgs(1),
	Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "fail the program instead of prompting for missing environment variables")
	rootCmd.Flags().StringVarP(&profileName, "profile", "p", "", "profile to use. can be set by env var FHTTP_PROFILE")
	rootCmd.Flags().StringVarP(&profileFile, "profile-file", "f", "", "profile file to use. defaults to fhttp-config.json. can be set by env var FHTTP_PROFILE_FILE")
	rootCmd.Flags().CountVarP(&verbose, "verbose", "v", "sets the level of verbosity")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress log outputs")
	rootCmd.Flags().BoolVarP(&printPaths, "print-paths", "P", false, "print request file paths instead of method and url")
	rootCmd.Flags().Int64VarP(&timeoutMs, "timeout-ms", "t", 0, "time out after this many ms on each request")
	rootCmd.Flags().BoolVarP(&curlMode, "curl", "c", false, "print curl commands instead of executing given requests. Dependencies are still executed")
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "", "redirect output to the specified file")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Config{
		NoPrompt:   noPrompt,
		Verbose:    verbose,
		Quiet:      quiet,
		PrintPaths: printPaths,
		TimeoutMs:  timeoutMs,
		Curl:       curlMode,
		Out:        outPath,
	}

	logger := config.NewLogger(cfg)
	defer func() { _ = logger.Sync() }()
	undo := zap.ReplaceGlobals(logger.Desugar())
	defer undo()

	if err := validateFiles(args); err != nil {
		return err
	}

	prof, err := loadProfile(logger)
	if err != nil {
		return err
	}

	sources := make([]*request.Source, 0, len(args))
	for _, file := range args {
		src, err := request.FromFile(file, false)
		if err != nil {
			return err
		}
		logger.Debugf("loaded request file %s", src.Path)
		sources = append(sources, src)
	}

	preprocessor, err := preprocess.New(prof, sources, cfg)
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if cfg.Out != "" {
		file, err := os.Create(cfg.Out)
		if err != nil {
			return fmt.Errorf("opening output file %s: %w", cfg.Out, err)
		}
		defer file.Close()
		out = file
	}

	client := httpclient.New()
	for preprocessor.HasNext() {
		next, err := preprocessor.Next()
		if err != nil {
			return err
		}

		if cfg.Curl && !next.Dependency {
			fmt.Fprintln(out, curl.Command(next.Request))
			continue
		}

		label := fmt.Sprintf("%s %s", next.Request.Method, next.Request.URL)
		if cfg.PrintPaths {
			label = next.Path.String()
		}
		fmt.Fprintf(os.Stderr, "calling '%s'... ", label)

		resp, err := client.Exec(next.Request, cfg.Timeout())
		if err != nil {
			fmt.Fprintln(os.Stderr)
			return err
		}
		fmt.Fprintln(os.Stderr, resp.Status)

		if !resp.Success() {
			if strings.TrimSpace(resp.Body) == "" {
				fmt.Fprintln(os.Stderr, "no response body")
			} else {
				fmt.Fprintln(os.Stderr, resp.Body)
			}
			os.Exit(1)
		}

		preprocessor.NotifyResponse(next.Path, resp.Body)

		if !next.Dependency {
			fmt.Fprintln(out, resp.Body)
		}
	}

	return nil
}

// validateFiles checks every positional argument up front and aggregates
// all complaints instead of stopping at the first bad path.
func validateFiles(files []string) error {
	var result *multierror.Error
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("'%s' does not exist", file))
			continue
		}
		if !info.Mode().IsRegular() {
			result = multierror.Append(result, fmt.Errorf("'%s' is not a file", file))
		}
	}
	return result.ErrorOrNil()
}

// loadProfile resolves the profile file and name from flags and
// environment and returns the effective (default-overlaid) profile. A
// missing profile file is fine as long as no profile name was asked for.
func loadProfile(logger *zap.SugaredLogger) (*profile.Profile, error) {
	path := profileFile
	if path == "" {
		path = os.Getenv("FHTTP_PROFILE_FILE")
	}
	if path == "" {
		path = defaultProfileFile
	}

	name := profileName
	if name == "" {
		name = os.Getenv("FHTTP_PROFILE")
	}

	if _, err := os.Stat(path); err != nil {
		if name != "" {
			return nil, fmt.Errorf("Error opening file %s", path)
		}
		logger.Debugf("no profile file at %s, starting with an empty profile", path)
		return profile.Empty(path), nil
	}

	logger.Infof("using profile file %s", path)
	return profile.Select(path, name)
}
