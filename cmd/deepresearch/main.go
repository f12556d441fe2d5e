package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/deepresearch/config"
	"github.com/mohammad-safakhou/deepresearch/internal/pipeline"
	"github.com/mohammad-safakhou/deepresearch/internal/server"
	"github.com/mohammad-safakhou/deepresearch/internal/telemetry"
	"github.com/mohammad-safakhou/deepresearch/mcp"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	var cfgPath string
	root := &cobra.Command{Use: "deepresearch", Short: "Web research pipeline: query, search, scrape, answer"}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config)")

	root.AddCommand(serveCMD(&cfgPath), mcpCMD(&cfgPath), researchCMD(&cfgPath))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCMD(cfgPath *string) *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.General.Listen = addr
			}
			return server.Run(cfg)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides general.listen)")
	return serve
}

func mcpCMD(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run MCP stdio server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*cfgPath)
			if err != nil {
				return err
			}
			// stdout carries the protocol; logs must stay on stderr
			log.SetOutput(os.Stderr)
			srv, err := mcp.NewMCPServer(cfg)
			if err != nil {
				return err
			}
			return srv.Serve(os.Stdin, os.Stdout)
		},
	}
}

func researchCMD(cfgPath *string) *cobra.Command {
	var numQueries int
	research := &cobra.Command{
		Use:   "research [question]",
		Short: "Run one research question and print the report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*cfgPath)
			if err != nil {
				return err
			}
			tele := telemetry.NewTelemetry(cfg.Telemetry)
			runner, err := pipeline.FromConfig(cfg, tele)
			if err != nil {
				return err
			}
			defer tele.Summary()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.General.DefaultTimeout)
			defer cancel()

			report, err := runner.Research(ctx, pipeline.Request{Question: args[0], NumQueries: numQueries})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	research.Flags().IntVarP(&numQueries, "queries", "n", 0, "number of search queries (0 = configured default)")
	return research
}
