/*
Copyright © 2026 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"runtime"

	"github.com/fulmenhq/assetpress/pkg/buildinfo"
	"github.com/spf13/cobra"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show assetpress version",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().Bool("extended", false, "Show build and runtime details")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "assetpress %s\n", buildinfo.BinaryVersion)

	if extended {
		if moduleVersion := buildinfo.ModuleVersion(); moduleVersion != "" {
			fmt.Fprintf(out, "module:   %s\n", moduleVersion)
		}
		fmt.Fprintf(out, "go:       %s\n", runtime.Version())
		fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	}
	return nil
}
