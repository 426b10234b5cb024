// Package cmd implements the parleyctl commands. Apart from bench, which
// drives a live server over HTTP, every command reads a stopped server's
// database in read-only mode.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"parley/internal/cli/config"
	"parley/pkg/logger"
)

type options struct {
	configPath string
	dbPath     string
	output     string
	limit      int
	verbose    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd(version, commit string) *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "parleyctl",
		Short: "Inspect and query a parley database",
		Long: `parleyctl reads a parley database directory offline: key summaries,
conversation dumps, message groups, search and consistency checks. bench
load tests a running server.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.resolve(cmd)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "config file path (default is $HOME/.parleyctl.yaml)")
	pf.StringVar(&o.dbPath, "db", "", "database directory (the server's --db)")
	pf.StringVarP(&o.output, "output", "o", "", "output format: auto, text or json")
	pf.IntVar(&o.limit, "limit", 0, "maximum rows to print (0 = all)")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newInspectCmd(o),
		newDebugCmd(o),
		newMessagesCmd(o),
		newGroupsCmd(o),
		newSearchCmd(o),
		newVerifyCmd(o),
		newConfigCmd(o),
		newBenchCmd(o),
	)
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute(version, commit string) {
	if err := NewRootCmd(version, commit).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolve merges the config file under the flags; flags win.
func (o *options) resolve(cmd *cobra.Command) error {
	if o.verbose {
		logger.InitWriter(cmd.ErrOrStderr(), "debug")
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("db") {
		o.dbPath = cfg.DBPath
	}
	if !flags.Changed("output") {
		o.output = cfg.Output
	}
	if !flags.Changed("limit") {
		o.limit = cfg.Limit
	}
	probe := config.Config{Output: o.output, Limit: o.limit}
	return probe.Validate()
}

// json reports whether output to w should be JSON. Auto picks text for a
// terminal and JSON otherwise.
func (o *options) json(w io.Writer) bool {
	switch o.output {
	case config.OutputJSON:
		return true
	case config.OutputText:
		return false
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return false
	}
	return true
}

func (o *options) capped(n int) int {
	if o.limit > 0 && n > o.limit {
		return o.limit
	}
	return n
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
