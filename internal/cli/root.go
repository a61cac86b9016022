// Package cli implements the crudc command line.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/brianwhu/xillium-sub000/internal/config"
	"github.com/brianwhu/xillium-sub000/internal/logging"
)

var (
	cfgFile  string
	envFile  string
	verbose  bool
	driver   string
	dsn      string
	dbSchema string

	// cfg and logger are set by the root command before any subcommand runs.
	cfg    *config.Config
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "crudc",
	Short: "crudc - compile CRUD actions into SQL",
	Long: `crudc compiles declarative CRUD actions over a relational schema into
parametrized SQL statements and request descriptors.

An action names an operation (CREATE, RETRIEVE, UPDATE, DELETE, SEARCH) over
a model table and its ISA children. crudc reads the live schema, renders the
statements and derives the request fields with their validation metadata.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .crud/config.yml)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&driver, "driver", "", "database driver (overrides database.driver)")
	flags.StringVar(&dsn, "dsn", "", "data source name (overrides database.dsn)")
	flags.StringVar(&dbSchema, "schema", "", "information_schema schema (overrides database.schema)")
}

// initConfig loads .env, the project configuration and the logger.
func initConfig(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	var loader config.Loader
	if cfgFile != "" {
		loader = config.NewFileLoader(cfgFile)
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		loader = config.NewLoader(wd)
	}

	loaded, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if driver != "" {
		loaded.Database.Driver = driver
	}
	if dsn != "" {
		loaded.Database.DSN = dsn
	}
	if dbSchema != "" {
		loaded.Database.Schema = dbSchema
	}
	if verbose {
		loaded.Logging.Level = "debug"
	}

	l, err := logging.New(logging.Config{
		Level:  loaded.Logging.Level,
		Format: loaded.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	cfg, logger = loaded, l
	return nil
}
