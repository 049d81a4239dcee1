package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:   "pgload",
	Short: "Chunked CSV loader for PostgreSQL",
	Long: `pgload streams a comma-separated dataset (plain or gzip/zstd/xz/bzip2 compressed)
into a PostgreSQL table in bounded chunks. The first chunk fixes the table schema,
the table is replaced at the start of every run, and every later chunk is appended.

Designed to be invoked by a scheduler: no prompts, no retries. A non-zero exit
code means the run failed.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  15 - Source missing, unreadable or malformed
  16 - Timestamp value could not be parsed
  17 - Batch rejected by the database
  18 - Source has no data rows`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetGlobalNormalizationFunc(underscoreFlags)
	// -h is the PostgreSQL host shorthand, so help keeps only its long form
	rootCmd.PersistentFlags().Bool("help", false, "Help for pgload")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// underscoreFlags accepts --table_name as a spelling of --table-name.
func underscoreFlags(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
