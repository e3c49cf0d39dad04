// Command tmplc processes a template file or directory tree, the outer
// CLI surface around the tmplc package's core (explicitly out of scope
// for the core itself, per the library/CLI split).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmplc/tmplc"
)

var (
	envFile string
	argv    []string

	rootCmd = &cobra.Command{
		Use:          "tmplc <template-file>",
		Short:        "tmplc",
		Long:         `Render text templates: directives, conditionals, foreach, and post-render secret interpolation.`,
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE:         run,
	}
)

func run(cmd *cobra.Command, args []string) error {
	env := map[string]tmplc.Value{}
	if envFile != "" {
		loaded, err := tmplc.LoadEnvYAML(envFile)
		if err != nil {
			return err
		}
		env = loaded
	}

	result, err := tmplc.Render(args[0], env, argv)
	if err != nil {
		report := tmplc.NewErrorReport()
		report.Error("%s", err)
		report.ExitOnError()
		return err
	}
	result.Report.ExitOnError()

	if result.OutputPath == "" {
		fmt.Fprint(os.Stdout, result.Body)
	}
	return nil
}

func init() {
	rootCmd.Flags().StringVar(&envFile, "env-file", "", "YAML file of string key/value pairs to seed the template environment")
	rootCmd.Flags().StringArrayVar(&argv, "arg", nil, "positional argument for #template parameters, repeatable in order")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
