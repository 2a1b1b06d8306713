package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/fedibtc/minimint/cmd"
	"github.com/fedibtc/minimint/config"
)

var flagConfig string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a federation member until interrupted",
	Run:   runNode,
}

func init() {
	runCmd.Flags().StringVarP(&flagConfig, "config", "c", "",
		"path to the node's YAML configuration file")
	runCmd.Flags().String("datadir", "", "directory holding the ledger, overrides the configuration")
	runCmd.Flags().Uint16("peer-id", 0, "federation peer ID of this node, overrides the configuration")
	_ = runCmd.MarkFlagRequired("config")
}

func runNode(command *cobra.Command, args []string) {
	cfg, err := config.Load(flagConfig, command.Flags())
	if err != nil {
		log.Fatal().Err(err).Msg("could not load configuration")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	node, err := cmd.NewNode(log, cfg, registry)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create node")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = node.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("node failed")
	}
}
