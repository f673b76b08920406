package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"img2pdf/contracts"
	"img2pdf/converter"
	"img2pdf/files_manager"
)

const envPrefix = "IMG2PDF"

// envKeys are the only flags that can also be set from the environment,
// as IMG2PDF_QUALITY and so on. Flags that pick the dispatch branch are
// command line only.
var envKeys = []string{"quality", "resize-a4", "engine", "verbose"}

var version = "dev"

// SetVersion is called from main with the value stamped in by the linker.
func SetVersion(v string) {
	version = v
}

type app struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	v      *viper.Viper
}

// NewRootCommand builds the img2pdf command. Status lines go to out,
// verbose diagnostics to errOut, and interactive answers are read from in.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
		v:      viper.New(),
	}

	cmd := &cobra.Command{
		Use:   "img2pdf [input...]",
		Short: "Convert images to PDF",
		Long: `Convert JPEG, PNG, BMP, GIF, TIFF and WebP images into PDF files.

Each image becomes one page. Transparent images are flattened onto white,
and --resize-a4 shrinks large images to fit an A4 page at 300 DPI.`,
		Example: `  img2pdf image.jpg
  img2pdf image.png -o output.pdf
  img2pdf "*.jpg" --multi combined.pdf
  img2pdf ./images -d
  img2pdf ./images -d --multi all_images.pdf
  img2pdf image.jpg -a4 -q 90`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		Version:      version,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return a.bindConfig(cmd.Flags())
		},
		RunE: a.run,
	}
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	flags := cmd.Flags()
	flags.StringP("output", "o", "", "Output PDF file (single input only)")
	flags.StringP("multi", "m", "", "Combine all inputs into one multi-page PDF")
	flags.BoolP("directory", "d", false, "Treat the input as a directory and convert every image in it")
	flags.BoolP("resize-a4", "a", false, "Shrink images to fit A4 (legacy spelling -a4 is accepted)")
	flags.IntP("quality", "q", contracts.DefaultQuality, "JPEG quality used for page images (1-100)")
	flags.BoolP("list-formats", "l", false, "List supported image formats")
	flags.String("engine", string(contracts.EngineGofpdf), "PDF engine: gofpdf or stream")
	flags.BoolP("verbose", "v", false, "Log per-image diagnostics to stderr")
	flags.SortFlags = false

	cmd.SetUsageTemplate(cmd.UsageTemplate() +
		"\nSupported formats: " + strings.Join(files_manager.SupportedFormats(), ", ") + "\n")

	return cmd
}

func (a *app) bindConfig(flags *pflag.FlagSet) error {
	for _, key := range envKeys {
		if err := a.v.BindPFlag(key, flags.Lookup(key)); err != nil {
			return fmt.Errorf("bind flag %s: %w", key, err)
		}
		env := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if err := a.v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	return nil
}

// Execute runs the command against the process arguments and exits non-zero
// only when the command itself fails (bad flags, bad engine).
func Execute() {
	cmd := NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	cmd.SetArgs(NormalizeArgs(os.Args[1:]))
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) options() (contracts.Options, error) {
	engine, ok := contracts.ParseEngine(a.v.GetString("engine"))
	if !ok {
		return contracts.Options{}, fmt.Errorf("unknown engine %q (want gofpdf or stream)", a.v.GetString("engine"))
	}
	opts := contracts.DefaultOptions()
	opts.ResizeA4 = a.v.GetBool("resize-a4")
	opts.Quality = a.v.GetInt("quality")
	opts.Engine = engine
	return opts, nil
}

func (a *app) logger() *zap.Logger {
	if !a.v.GetBool("verbose") {
		return zap.NewNop()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(a.errOut),
		zap.DebugLevel,
	)
	return zap.New(core)
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if listFormats, _ := flags.GetBool("list-formats"); listFormats {
		printFormats(a.out)
		return nil
	}

	opts, err := a.options()
	if err != nil {
		return err
	}
	logger := a.logger()
	defer logger.Sync()

	conv, err := converter.New(opts, logger)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		if err := cmd.Help(); err != nil {
			return err
		}
		if flags.NFlag() == 0 {
			a.offerMenu(conv)
		}
		return nil
	}

	multi, _ := flags.GetString("multi")
	multiSet := flags.Changed("multi")
	directory, _ := flags.GetBool("directory")
	output, _ := flags.GetString("output")

	switch {
	case directory:
		for _, dir := range args {
			a.runDirectory(conv, dir, multiSet, multi)
		}
	case multiSet:
		a.runCombine(conv, args, multi)
	default:
		a.runInputs(conv, args, output)
	}
	return nil
}

func printFormats(w io.Writer) {
	fmt.Fprintln(w, "Supported image formats:")
	for _, ext := range files_manager.SupportedFormats() {
		fmt.Fprintf(w, "  %s\n", ext)
	}
}

func (a *app) offerMenu(conv *converter.Converter) {
	fmt.Fprint(a.out, "\n\nDo you want to use interactive mode? (y/n): ")
	answer, err := readLine(a.in)
	if err != nil {
		fmt.Fprintln(a.out)
		return
	}
	if strings.EqualFold(answer, "y") {
		NewMenu(conv, a.in, a.out).Run()
	}
}
