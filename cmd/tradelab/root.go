package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"options-trade-lab/internal/app"
	"options-trade-lab/internal/config"
	"options-trade-lab/internal/domain"
)

const (
	appName = "tradelab"
	version = "v0.4.0"
)

// Output formats
const (
	formatJSON     = "json"
	formatMarkdown = "md"
	formatCSV      = "csv"
)

// skipSelfTest marks commands that run the self-test themselves.
const skipSelfTest = "skip-selftest"

// errUsage marks invalid command-line input.
var errUsage = errors.New("usage")

// cli holds the flag values and the services of one invocation.
type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	envFiles   []string
	dataDir    string
	logLevel   string
	format     string

	clock domain.Clock // nil uses the system clock
	app   *app.App
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	c := &cli{in: in, out: out, errOut: errOut}
	return c.rootCmd()
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     appName,
		Short:   "Options trade identity, lifecycle ledger and ranking",
		Version: version,
		Long: `tradelab canonicalizes options trade identities, records trade lifecycle
events and report decisions, and ranks candidate trades.

Every silent correction (legacy strategy aliases, non-canonical keys,
non-finite numbers) is recorded in the validation log.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  c.setup,
		PersistentPostRunE: c.teardown,
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "YAML config file")
	flags.StringSliceVar(&c.envFiles, "env-file", nil, "Env files to load (default ./.env when present)")
	flags.StringVar(&c.dataDir, "data-dir", "", "Storage root, overrides config")
	flags.StringVar(&c.logLevel, "log-level", "", "Log level, overrides config")
	flags.StringVarP(&c.format, "format", "o", formatJSON, "Output format (json|md|csv)")

	root.AddCommand(
		c.keyCmd(),
		c.resolveCmd(),
		c.strategiesCmd(),
		c.ledgerCmd(),
		c.decisionsCmd(),
		c.validationCmd(),
		c.rankCmd(),
		c.selftestCmd(),
	)
	return root
}

// setup loads the configuration and builds the services before any subcommand.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	switch c.format {
	case formatJSON, formatMarkdown, formatCSV:
	default:
		return fmt.Errorf("%w: unknown format %q (json|md|csv)", errUsage, c.format)
	}

	cfg, err := config.Load(c.configPath, c.envFiles...)
	if err != nil {
		return err
	}
	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := app.New(app.Options{
		Config:       cfg,
		LogOutput:    c.errOut,
		Clock:        c.clock,
		SkipSelfTest: cmd.Annotations[skipSelfTest] == "true",
	})
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *cli) teardown(_ *cobra.Command, _ []string) error {
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}

// render writes v in the selected format. A nil renderer means the format is
// not available for this command.
func (c *cli) render(v any, markdown, csvOut func() string) error {
	switch c.format {
	case formatMarkdown:
		if markdown == nil {
			return fmt.Errorf("%w: markdown output not supported here", errUsage)
		}
		_, err := io.WriteString(c.out, markdown())
		return err
	case formatCSV:
		if csvOut == nil {
			return fmt.Errorf("%w: csv output not supported here", errUsage)
		}
		_, err := io.WriteString(c.out, csvOut())
		return err
	default:
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// table is a small ad-hoc result table for commands without a dedicated renderer.
type table struct {
	title   string
	headers []string
	rows    [][]string
}

func (t table) markdown() string {
	var sb strings.Builder
	if t.title != "" {
		sb.WriteString(fmt.Sprintf("# %s\n\n", t.title))
	}
	sb.WriteString("| " + strings.Join(t.headers, " | ") + " |\n")
	sep := make([]string, len(t.headers))
	for i, h := range t.headers {
		sep[i] = strings.Repeat("-", len(h))
	}
	sb.WriteString("|" + strings.Join(sep, "|") + "|\n")
	for _, row := range t.rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.ReplaceAll(cell, "|", `\|`)
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return sb.String()
}

func (t table) csv() string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write(t.headers)
	_ = w.WriteAll(t.rows)
	return sb.String()
}

// readInput returns the bytes named by src: "-" reads stdin, "@path" reads a
// file, anything else is the literal value.
func (c *cli) readInput(src string) ([]byte, error) {
	switch {
	case src == "-":
		data, err := io.ReadAll(c.in)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	case strings.HasPrefix(src, "@"):
		data, err := os.ReadFile(strings.TrimPrefix(src, "@"))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", strings.TrimPrefix(src, "@"), err)
		}
		return data, nil
	default:
		return []byte(src), nil
	}
}

// readTrade decodes one trade payload from src.
func (c *cli) readTrade(src string) (*domain.Trade, error) {
	data, err := c.readInput(src)
	if err != nil {
		return nil, err
	}
	var t domain.Trade
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: payload: %w", errUsage, err)
	}
	return &t, nil
}
