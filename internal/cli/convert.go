package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/mcasconvert/internal/batch"
)

// SingleOutputSuffix is appended to the input stem in single-file mode.
const SingleOutputSuffix = "_processed"

type convertOptions struct {
	filename  string
	outputDir string
	subjects  []string
	policy    string
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert one export file",
		Long: `Convert one wide MCAS export to the canonical long format.

The input file is taken from --filename, then MCAS_FILENAME, and otherwise
prompted for on stdin. The output is written next to the configured output
directory as <name>_processed.csv.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.filename, "filename", "f", "", "input CSV file; overrides MCAS_FILENAME")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "output directory; overrides CONVERT_OUTPUT_DIR")
	addPipelineFlags(cmd, &opts.subjects, &opts.policy)

	return cmd
}

func runConvert(rootOpts *RootOptions, opts *convertOptions, cmd *cobra.Command) error {
	cfg := rootOpts.Config
	out := cmd.OutOrStdout()

	p, err := rootOpts.pipeline(opts.subjects, opts.policy)
	if err != nil {
		return reportError(cmd.ErrOrStderr(), err)
	}

	filename, err := resolveFilename(opts.filename, cfg.Convert.Filename, cmd.InOrStdin(), out)
	if err != nil {
		return err
	}

	outputDir := cfg.Convert.OutputDir
	if opts.outputDir != "" {
		outputDir = opts.outputDir
	}

	conv := &batch.Converter{
		Pipeline:    p,
		MaxFileSize: cfg.Batch.MaxFileSize,
	}

	fmt.Fprintf(out, "Processing: %s\n", filename)
	res := conv.ConvertFile(cmd.Context(), filename, batch.OutputPath(outputDir, filename, SingleOutputSuffix))
	if res.Err != nil {
		return reportError(cmd.ErrOrStderr(), res.Err)
	}

	fmt.Fprintf(out, "Wrote %s (%d rows, %d dropped)\n", res.Output, res.Stats.Output, res.Stats.Dropped)
	fmt.Fprintf(out, "Elapsed: %s\n", res.Elapsed.Round(time.Millisecond))
	return nil
}

// resolveFilename picks the input file: flag first, then configuration,
// then a prompt on in.
func resolveFilename(flag, configured string, in io.Reader, out io.Writer) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if configured != "" {
		return configured, nil
	}

	fmt.Fprint(out, "Enter the CSV filename: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read filename: %w", err)
	}
	name := strings.TrimSpace(line)
	if name == "" {
		return "", errors.New("no input file given")
	}
	return name, nil
}
