package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "sprint",
	Short: "Serve and manage schema-driven sprint tasks",
}

func main() {
	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
