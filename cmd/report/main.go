// Command report prints a realized profit-and-loss table for a portfolio
// straight from the database, without going through the HTTP API. Run with
// no -portfolio flag to list the portfolios available.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/olekukonko/tablewriter"

	"github.com/jblomberg5r/CryptoValhalla/internal/database"
	"github.com/jblomberg5r/CryptoValhalla/internal/fifo"
	"github.com/jblomberg5r/CryptoValhalla/internal/logging"
	"github.com/jblomberg5r/CryptoValhalla/internal/model"
	"github.com/jblomberg5r/CryptoValhalla/internal/repository"
	"github.com/jblomberg5r/CryptoValhalla/internal/service"
)

func main() {
	dbPath := flag.String("db", "./data/cryptovalhalla.db", "path to the sqlite database")
	portfolioID := flag.String("portfolio", "", "portfolio ID to report on (empty lists portfolios)")
	currency := flag.String("currency", "usd", "reporting currency: usd, eur or sek")
	flag.Parse()

	if err := run(*dbPath, *portfolioID, *currency); err != nil {
		fmt.Fprintf(os.Stderr, "report: %v\n", err)
		os.Exit(1)
	}
}

func run(dbPath, portfolioID, currency string) error {
	db, err := database.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	portfolioRepo := repository.NewPortfolioRepository(db)
	portfolioAssetRepo := repository.NewPortfolioAssetRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	transactionService := service.NewTransactionService(transactionRepo, portfolioAssetRepo, assetRepo)
	pnlService := service.NewPnLService(portfolioRepo, assetRepo, transactionService, logging.NewNop())

	if portfolioID == "" {
		return listPortfolios(portfolioRepo)
	}

	return printRealizedPnL(pnlService, portfolioID, currency)
}

func listPortfolios(portfolioRepo *repository.PortfolioRepository) error {
	portfolios, err := portfolioRepo.GetPortfolios(model.PortfolioFilter{
		IncludeArchived: true,
		IncludeExcluded: true,
	})
	if err != nil {
		return err
	}

	if len(portfolios) == 0 {
		fmt.Println("no portfolios found")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Name", "Archived")
	for _, p := range portfolios {
		archived := ""
		if p.IsArchived {
			archived = "yes"
		}
		table.Append(p.ID, p.Name, archived)
	}
	table.Render()

	fmt.Println("\nrun again with -portfolio <id> for the realized P&L report")
	return nil
}

func printRealizedPnL(pnlService *service.PnLService, portfolioID, currency string) error {
	result, err := pnlService.RealizedForPortfolio(context.Background(), portfolioID, currency)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Symbol", "Coin", "Sells", "Realized P&L", "Open Qty", "Open Cost Basis")
	for _, asset := range result.Assets {
		table.Append(
			asset.Symbol,
			asset.CoingeckoID,
			fmt.Sprintf("%d", asset.ProcessedSellCount),
			formatMoney(asset.RealizedPnL, result.Currency),
			fmt.Sprintf("%.8f", openQuantity(asset.RemainingLots)),
			formatMoney(asset.RemainingCostBasis, result.Currency),
		)
	}
	table.Append(
		"TOTAL",
		"",
		fmt.Sprintf("%d", result.TotalProcessedSells),
		result.FormattedRealizedPnL,
		"",
		formatMoney(result.TotalRemainingBasis, result.Currency),
	)
	table.Render()

	for _, warning := range result.Warnings {
		fmt.Printf("warning: %s\n", warning.Message)
	}

	return nil
}

// openQuantity sums the units left in the open lots.
func openQuantity(lots []fifo.Lot) float64 {
	var total float64
	for _, lot := range lots {
		total += lot.Quantity
	}
	return total
}

// formatMoney renders a value as a display string in the given currency.
func formatMoney(value float64, currencyCode string) string {
	cur := money.New(0, strings.ToUpper(currencyCode)).Currency()
	minorUnits := int64(math.Round(value * math.Pow10(cur.Fraction)))
	return cur.Formatter().Format(minorUnits)
}
