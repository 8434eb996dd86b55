package cmd

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/pipesh/core"
	"github.com/josephlewis42/pipesh/core/config"
	"github.com/josephlewis42/pipesh/core/shell"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var parseCmd = &cobra.Command{
	Use:   "parse -- LINE...",
	Short: "Show the pipeline a line builds without running it.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := config.LoadOrDefault(cfgPath)
		if err != nil {
			return err
		}

		tokens, err := shell.Tokenize(strings.Join(args, " "), cfg.Limits)
		switch {
		case err != nil:
			return err
		case tokens.Empty():
			return nil
		}

		if _, ok := core.AllBuiltins[tokens[0]]; ok {
			fmt.Fprintf(cmd.OutOrStdout(), "builtin: %s\n", tokens)
			return nil
		}

		pipeline, err := shell.Build(tokens)
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(pipeline)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
