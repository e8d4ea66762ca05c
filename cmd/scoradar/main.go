package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "scoradar",
		Short: "Track daily score updates against ranked difficulty tables",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(reportCmd())
	root.AddCommand(tablesCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(watchCmd())

	return root
}

func reportCmd() *cobra.Command {
	var (
		date       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the day's chart updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(date, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to report on (YYYY-MM-DD, default: today)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func tablesCmd() *cobra.Command {
	var (
		refresh    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Show configured difficulty tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(refresh, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "refetch tables even when the cache is fresh")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func watchCmd() *cobra.Command {
	var interval string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild today's report on an interval and notify on updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(interval)
		},
	}

	cmd.Flags().StringVar(&interval, "interval", "", "refresh interval (default: from config)")
	return cmd
}
