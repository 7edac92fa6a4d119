package main

import (
	"flag"
	"strconv"

	"github.com/2x3systems/rcmb/gorcmb"
	"github.com/2x3systems/rcmb/librcmb"
	"github.com/spf13/cobra"
)

// app holds the state shared by all subcommands.
type app struct {
	configPath string
	format     string
	verbosity  int
	logFlags   *flag.FlagSet
	backend    gorcmb.Backend
}

func newRootCmd(logFlags *flag.FlagSet) *cobra.Command {
	a := &app{
		logFlags: logFlags,
	}

	root := &cobra.Command{
		Use:   "rcmb",
		Short: "Resistor and capacitor combination finder",
		Long: `rcmb finds the simplest series/parallel networks of standard components
that best approximate a target value or a divider ratio.

Values may be written with SI prefixes and simple arithmetic, e.g. 4.7k, 100n, (10k+22k)*2.

Examples:
  rcmb find --target 1234 --series e12              # closest network to 1234 Ω
  rcmb find --kind c --target 3.3u,6.8u --max 3    # several capacitor targets at once
  rcmb divider --target 3.3/5 --total-min 10k      # divider for 3.3 V out of 5 V
  rcmb series e24 --min 1k --max 10k               # list a series
  rcmb topologies 4                                # list 4 element shapes
  rcmb script calc.py                              # run a script using the rcmb module`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML file supplying defaults for any flag")
	pf.StringVarP(&a.format, "format", "f", "text", "output format: text, tree or json")
	pf.IntVarP(&a.verbosity, "verbosity", "v", 0, "log verbosity")

	root.AddCommand(
		newFindCmd(a),
		newDividerCmd(a),
		newSeriesCmd(a),
		newTopologiesCmd(a),
		newScriptCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	opts := librcmb.DefaultSessionOpts()

	if a.configPath != "" {
		cfg, err := loadConfig(a.configPath)
		if err != nil {
			return err
		}
		if err = cfg.applyTo(cmd.Flags()); err != nil {
			return err
		}
		if cfg.MaxSearchSpace > 0 {
			opts.MaxSearchSpace = cfg.MaxSearchSpace
		}
	}

	if a.logFlags != nil {
		a.logFlags.Set("v", strconv.Itoa(a.verbosity))
	}

	a.backend = librcmb.NewBackend(opts)
	return nil
}
