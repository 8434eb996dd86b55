package cmd

import (
	"fmt"
	"os"

	"github.com/josephlewis42/pipesh/core/proc"
	"github.com/josephlewis42/pipesh/core/vos"
	"github.com/spf13/cobra"
)

// stageCmd turns the process into one stage of a pipeline. It only returns
// if the stage couldn't be started.
var stageCmd = &cobra.Command{
	Use:                "__stage PLAN INDEX",
	Short:              "Wire up and execute a single pipeline stage.",
	Hidden:             true,
	Args:               cobra.ExactArgs(2),
	DisableFlagParsing: true,
	Run: func(cmd *cobra.Command, args []string) {
		plan, index, err := proc.DecodePlan(args[0], args[1])
		if err == nil {
			err = proc.ExecStage(vos.NewHostOS(), plan, index)
		}

		fmt.Fprintf(os.Stderr, "pipesh: %v\n", err)
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(stageCmd)
}
