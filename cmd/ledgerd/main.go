// cmd/ledgerd/main.go
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"ledger/app"
	"ledger/config"
	"ledger/logs"
)

func main() {
	var (
		port     = flag.String("port", "", "API listen port")
		dataDir  = flag.String("datadir", "", "data directory")
		genesis  = flag.String("genesis", "", "genesis file path")
		logLevel = flag.Int("loglevel", -1, "log level, 0=trace .. 5=error")
	)
	flag.Parse()

	cfg := config.DefaultConfig()
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dataDir != "" {
		cfg.Node.DataDir = *dataDir
		cfg.Events.JournalDir = *dataDir + "/events"
	}
	if *genesis != "" {
		cfg.Node.GenesisPath = *genesis
	}
	if *logLevel >= 0 {
		cfg.Node.LogLevel = *logLevel
	}

	node, err := app.NewNode(cfg)
	if err != nil {
		logs.Error("init node: %v", err)
		os.Exit(1)
	}
	if err := node.Start(); err != nil {
		logs.Error("start node: %v", err)
		node.Stop()
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logs.Info("received %s, shutting down", sig)
	node.Stop()
}
