// Command pipelinectl is the CLI host around the parallel pipeline
// orchestration engine: it loads a stage-set definition, runs or validates
// it, and reports the result. The engine itself never parses flags,
// serializes JSON, or logs — those are host concerns (spec §1), which this
// command implements concretely.
package main

import (
	"fmt"
	"os"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/spf13/cobra"
)

// Version is set via -ldflags at build time, matching the teacher's
// cmd/root.go build-time variable convention.
var Version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pipelinectl",
		Short:        "Parallel DAG pipeline orchestration engine",
		Version:      Version,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newServeCmd())
	return root
}

func main() {
	root := newRootCmd()
	cc.Init(&cc.Config{
		RootCmd:       root,
		Headings:      cc.HiCyan + cc.Bold + cc.Underline,
		Commands:      cc.HiYellow + cc.Bold,
		CmdShortDescr: cc.HiRed,
		Example:       cc.Italic,
		ExecName:      cc.Bold,
		Flags:         cc.HiBlue + cc.Bold,
	})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
