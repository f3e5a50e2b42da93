package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rentctl",
		Short:         "Administration tool for the rent settlement service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("dsn", os.Getenv("DATABASE_URL"), "postgres connection string")
	rootCmd.PersistentFlags().Bool("verbose", false, "log debug output")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(splitCmd())
	rootCmd.AddCommand(generateCmd())
	return rootCmd
}
