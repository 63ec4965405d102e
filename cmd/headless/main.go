package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"shop-sim-viewer/src/analysis"
	"shop-sim-viewer/src/config"
	"shop-sim-viewer/src/engine"
	"shop-sim-viewer/src/helpers"
	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/models"
	"shop-sim-viewer/src/network"
	"shop-sim-viewer/src/session"
	"shop-sim-viewer/src/simapi"
)

// Runs one purchase end to end against the configured API and prints what a viewer would show.
func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	branchID := flag.String("branch", "", "branch id (required)")
	budget := flag.String("budget", "100", "budget of the buyer")
	list := flag.String("list", string(models.ListExact), "list to buy: exacta, superior or inferior")
	fast := flag.Bool("fast", false, "skip animation pauses")
	flag.Parse()

	if *branchID == "" {
		fmt.Fprintln(os.Stderr, "-branch is required")
		flag.Usage()
		os.Exit(2)
	}

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	appLogger := logger.NewLogger(conf.MConfig, "Headless")

	// 3. Setup Components
	networkManager := network.NewAsyncNetworkManager(conf.MConfig, logger.NewLogger(conf.MConfig, "NetworkManager"))
	api := simapi.NewClient(conf.API.BaseURL, networkManager, logger.NewLogger(conf.MConfig, "SimulationAPI"))

	manager := newManager(conf.MConfig, api, os.Stdout, *fast)
	defer manager.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Run the workflow
	controller, err := manager.Create(*branchID)
	if err != nil {
		appLogger.Critical("Create session: %v", err)
	}
	if err := run(ctx, controller, *budget, models.ListKind(*list)); err != nil {
		appLogger.Error("Run stopped at %s: %s", controller.Stage(), helpers.UserMessage(err))
		os.Exit(1)
	}

	// 5. Report
	report := analysis.NewAnalysisFacade(logger.NewLogger(conf.MConfig, "Analysis")).SummarizeSession(controller.Snapshot())
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		appLogger.Error("Encode report: %v", err)
		os.Exit(1)
	}
	fmt.Println(string(data))

	if report.Audit != nil && report.Audit.Mismatches > 0 {
		appLogger.Warning("Invoice has %d mismatches", report.Audit.Mismatches)
	}
}

// -----------------------------------------------------------------------------

// newManager wires a session manager to the API alone. The create reply carries no map, so maps
// are fetched from the API too.
func newManager(cfg *models.MConfig, api *simapi.Client, out io.Writer, fast bool) *session.Manager {
	manager := session.NewManager(cfg, api, logger.NewLogger(cfg, "SessionManager"))
	manager.Maps = api
	manager.Observer = newFramePrinter(out)
	if fast {
		manager.Pacer = &engine.RecordingPacer{}
	}
	return manager
}

// -----------------------------------------------------------------------------

func run(ctx context.Context, c *engine.StageController, budget string, kind models.ListKind) error {
	if err := c.SubmitBudget(ctx, budget); err != nil {
		return err
	}
	if err := c.SelectList(ctx, kind); err != nil {
		return err
	}
	if stage := c.Stage(); stage != models.StageComplete {
		return fmt.Errorf("session ended in %s", stage)
	}
	return nil
}
