package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// sslModes contains valid PostgreSQL SSL modes for shell completion.
var sslModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

var commitPolicies = []string{"whole-run", "per-batch"}

var authMethods = []string{"standard", "aws-iam", "google-iam", "azure"}

// completeFrom returns a completion function offering the values that start with the typed prefix.
func completeFrom(values []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var matches []string
		for _, v := range values {
			if strings.HasPrefix(v, toComplete) {
				matches = append(matches, v)
			}
		}
		return matches, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeSourceFiles limits --path completion to files the source can read.
func completeSourceFiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"csv", "gz", "zst", "zstd", "xz", "bz2"}, cobra.ShellCompDirectiveFilterFileExt
}
