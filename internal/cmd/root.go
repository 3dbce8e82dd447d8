package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/modm-io/lbuild/internal/output"
)

var (
	// Global flags
	repositoryFlags []string
	configFlag      string
	optionFlags     []string
	outpathFlag     string
	verboseFlag     bool
)

// NewRootCmd creates the root command for the lbuild CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lbuild",
		Short:         "Modular code-generation build tool",
		Long: `lbuild turns repositories of modules plus a project configuration
into generated code: it resolves option values, computes the active
module closure with its dependencies, and executes each module's
generation action in a valid order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd)
		},
	}

	rootCmd.PersistentFlags().StringArrayVarP(&repositoryFlags, "repository", "r", nil,
		"Repository file to load (repeatable)")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "",
		"Project configuration file (env: LBUILD_CONFIG)")
	rootCmd.PersistentFlags().StringArrayVarP(&optionFlags, "option", "D", nil,
		"Option override as name=value (repeatable)")
	rootCmd.PersistentFlags().StringVarP(&outpathFlag, "path", "p", "",
		"Output path for generated files (env: LBUILD_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"Enable verbose output")

	rootCmd.AddCommand(NewDiscoverCmd())
	rootCmd.AddCommand(NewDiscoverOptionsCmd())
	rootCmd.AddCommand(NewDiscoverModuleOptionsCmd())
	rootCmd.AddCommand(NewDiscoverOptionCmd())
	rootCmd.AddCommand(NewValidateCmd())
	rootCmd.AddCommand(NewBuildCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewUpdateCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// initializeGlobals sets up logging and fills unset flags from
// LBUILD_* environment variables.
func initializeGlobals(cmd *cobra.Command) error {
	viper.SetEnvPrefix("lbuild")
	viper.AutomaticEnv()

	if configFlag == "" {
		configFlag = viper.GetString("config")
	}
	if outpathFlag == "" {
		outpathFlag = viper.GetString("path")
	}

	output.SetupLogging(verboseFlag)
	if verboseFlag {
		output.Debug("initializing",
			"repositories", repositoryFlags,
			"config", configFlag,
			"path", outpathFlag,
		)
	}
	return nil
}
