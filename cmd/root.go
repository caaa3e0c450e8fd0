// cppgen [-C dir] [--prefix PREFIX] BUILDDIR
package cmd

import (
	"github.com/qobs-build/cppgen/internal/builder"
	"github.com/qobs-build/cppgen/internal/msg"
	"github.com/spf13/cobra"
)

const defaultPrefix = "/usr/local"

var (
	flagDir    string
	flagPrefix string
	flagBuild  bool
	flagFormat EnumValue = NewEnumValue("auto", map[string]string{
		"auto": "Detect the project description (default)",
		"go":   "build.go, compiled as a Go plugin",
		"toml": "project.toml",
		"hcl":  "project.hcl",
		"yaml": "project.yaml or project.yml",
	})
)

func generate(cmd *cobra.Command, args []string) error {
	dir := "."
	if flagDir != "" {
		dir = flagDir
		msg.Info("Entering directory %s", dir)
	}

	b, err := builder.NewBuilderInDirectory(dir, builder.Format(flagFormat.Value()))
	if err != nil {
		return err
	}

	opts := builder.GenerateOptions{
		BuildDir: args[0],
		Prefix:   flagPrefix,
	}
	if flagBuild {
		return b.Build(opts)
	}

	out, err := b.Generate(opts)
	if err != nil {
		return err
	}
	msg.Info("wrote %s", out)
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "cppgen [flags] BUILDDIR",
	Short: "Generate ninja build files for C++ projects",
	Long: `Generate a build.ninja for the C++ project described in the current directory
(or the one given with -C). The description is one of build.go, project.toml,
project.hcl or project.yaml. The generated file regenerates itself when the
description changes.`,
	Args:          cobra.ExactArgs(1),
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// errors past argument parsing are not usage errors
		cmd.SilenceUsage = true
		return generate(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDir, "directory", "C", "", "Change to this directory before doing anything")
	rootCmd.PersistentFlags().BoolVarP(&msg.Verbose, "verbose", "v", false, "Print debug messages")

	rootCmd.Flags().StringVar(&flagPrefix, "prefix", defaultPrefix, "Installation prefix")
	rootCmd.Flags().BoolVarP(&flagBuild, "build", "b", false, "Run ninja after generating")
	rootCmd.Flags().Var(&flagFormat, "format", "Project description format, one of "+flagFormat.HelpString())
	rootCmd.RegisterFlagCompletionFunc("format", flagFormat.CompletionFunc())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		msg.Fatal("%v", err)
	}
}
