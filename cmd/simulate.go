package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kwhlab/battsim/config"
	"github.com/kwhlab/battsim/core/controller"
	"github.com/kwhlab/battsim/core/model"
	"github.com/kwhlab/battsim/core/optimize"
	"github.com/kwhlab/battsim/core/simulate"
	"github.com/kwhlab/battsim/infra/logger"
	"github.com/kwhlab/battsim/pkg/export"
	"github.com/kwhlab/battsim/pricefeed"
)

var (
	scenarioPath string
	outputFormat string
	fetchPrices  bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a scenario file offline and print the dispatch ledger",
	RunE:  runScenario,
}

func init() {
	simulateCmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "scenario.yaml", "scenario file")
	simulateCmd.Flags().StringVarP(&outputFormat, "format", "f", "csv", "output format: csv or json")
	simulateCmd.Flags().BoolVar(&fetchPrices, "fetch-prices", false, "fetch day-ahead prices from the configured market feed")
	rootCmd.AddCommand(simulateCmd)
}

func runScenario(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	scen, err := config.LoadScenario(scenarioPath)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}

	var price model.PriceSeries
	if fetchPrices {
		feed := pricefeed.NewMarketClient(cfg.PriceFeed, logger.New("pricefeed"))
		price, err = feed.Prices(ctx)
	} else {
		price, err = scen.Price()
	}
	if err != nil {
		return fmt.Errorf("resolve prices: %w", err)
	}

	spread := scen.PriceSpread
	if spread == 0 {
		spread = cfg.Solver.DefaultPriceSpread
	}
	batt := scen.BatteryConfig()

	var res *model.DispatchResult
	switch scen.Model {
	case 1, 2:
		res, err = simulate.Run(scen.LoadWh, scen.PVWh, price, batt)
	case 3:
		solveCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Solver.TimeoutMillis)*time.Millisecond)
		defer cancel()
		res, err = optimize.Optimize(solveCtx, scen.LoadWh, scen.PVWh, price, batt, spread)
	case 4:
		res, err = controller.Run(scen.LoadWh, scen.PVWh, price, batt, controller.SpreadDecider{Spread: spread})
	default:
		return fmt.Errorf("unknown model %d", scen.Model)
	}
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	switch outputFormat {
	case "json":
		return export.WriteJSON(os.Stdout, res)
	case "csv":
		return export.WriteCSV(os.Stdout, res)
	default:
		return fmt.Errorf("unknown format %s", outputFormat)
	}
}
