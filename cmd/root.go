package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/codeman001/cppcheck-vs-addin/cmd/analyse"
	"github.com/codeman001/cppcheck-vs-addin/cmd/suppress"
	"github.com/codeman001/cppcheck-vs-addin/cmd/suppressions"
	"github.com/codeman001/cppcheck-vs-addin/cmd/version"
	"github.com/codeman001/cppcheck-vs-addin/internal/config"
	errs "github.com/codeman001/cppcheck-vs-addin/pkg/shared/errors"
)

// ConfigEnv points to the configuration file when --config is not given.
const ConfigEnv = "CPPCHECK_ADDIN_CONFIG"

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "cppcheck-addin [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "cppcheck-addin runs C and C++ static analyzers and manages their suppressions.",
		Long: `cppcheck-addin runs an external static analyzer (cppcheck, clang-tidy or a custom tool
	with a parser plugin) on a set of files, reports the problems it finds and keeps
	suppression rules at project, solution and global scope.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default is $%s or %s)", ConfigEnv, config.DefaultConfigFile))
	rootCmd.AddCommand(analyse.AnalyseCmd)
	rootCmd.AddCommand(suppress.SuppressCmd)
	rootCmd.AddCommand(suppressions.SuppressionsCmd)
	rootCmd.AddCommand(version.NewVersionCmd())
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)

		var runErr *errs.RunError
		if errors.As(err, &runErr) && runErr.ExitCode > 0 {
			return runErr.ExitCode
		}
		return 1
	}
	return 0
}

func initConfig() {
	// .env is optional
	_ = godotenv.Load()

	optional := false
	if cfgFile == "" {
		cfgFile = os.Getenv(ConfigEnv)
	}
	if cfgFile == "" {
		cfgFile = config.DefaultConfigFile
		optional = true
	}

	var err error
	AppConfig, err = config.LoadOrDefault(cfgFile, optional)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing config file function is crashed - %v \n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	analyse.Init(AppConfig)
	suppress.Init(AppConfig)
	suppressions.Init(AppConfig)
	version.Init(AppConfig)
}
