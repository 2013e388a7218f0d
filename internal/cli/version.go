package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eleven-am/pawtrack/pkg/pawtrack"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display pawtrack version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(pawtrack.FullVersionInfo())
	},
}
