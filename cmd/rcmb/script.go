package main

import (
	"time"

	"github.com/go-python/gpython/py"
	"github.com/go-python/gpython/repl"
	"github.com/go-python/gpython/repl/cli"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/spf13/cobra"

	_ "github.com/2x3systems/rcmb/pyrcmb"
	_ "github.com/go-python/gpython/stdlib"
)

func newScriptCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "script [file.py]",
		Short: "Run a Python script with the rcmb module, or start a REPL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pathname := ""
			if len(args) > 0 {
				pathname = args[0]
			}
			return runScript(pathname)
		},
	}
}

func runScript(pathname string) error {
	ctx := py.NewContext(py.DefaultContextOpts())

	var err error
	if pathname == "" {
		replCtx := repl.New(ctx)
		_, err = py.RunSrc(ctx, "import rcmb", "<startup>", replCtx.Module)
		if err == nil {
			cli.RunREPL(replCtx)
		}

	} else {
		startTime := time.Now()
		klog.V(1).Infof("executing '%s'", pathname)

		_, err = py.RunFile(ctx, pathname, py.CompileOpts{}, nil)

		if err == nil {
			klog.V(1).Infof("execution complete: %v", time.Since(startTime))
		}
	}

	ctx.Close()
	<-ctx.Done()

	if err != nil {
		py.TracebackDump(err)
		return errors.Errorf("script %q failed", pathname)
	}
	return nil
}
