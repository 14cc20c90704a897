package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/barradesonido/bsops/internal/database/clickhouse"
	"github.com/barradesonido/bsops/internal/database/postgres"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Catalog analytics backed by ClickHouse",
}

var analyticsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the ClickHouse analytics schema",
	RunE:  runAnalyticsInit,
}

var analyticsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Snapshot the catalog into ClickHouse",
	Long:  "Captures one snapshot row per product (price, sales rank) for trend analysis.",
	RunE:  runAnalyticsSync,
}

var analyticsTrendsCmd = &cobra.Command{
	Use:   "trends <asin>",
	Short: "Show price and rank trends for a product",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyticsTrends,
}

var analyticsBrandsCmd = &cobra.Command{
	Use:   "brands",
	Short: "Summarize the latest snapshot by brand",
	RunE:  runAnalyticsBrands,
}

var analyticsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ClickHouse table sizes",
	RunE:  runAnalyticsStatus,
}

var trendsDays int

func init() {
	analyticsCmd.AddCommand(analyticsInitCmd)
	analyticsCmd.AddCommand(analyticsSyncCmd)
	analyticsCmd.AddCommand(analyticsTrendsCmd)
	analyticsCmd.AddCommand(analyticsBrandsCmd)
	analyticsCmd.AddCommand(analyticsStatusCmd)

	analyticsTrendsCmd.Flags().IntVar(&trendsDays, "days", 30, "Number of days to look back")
}

func connectCH(ctx context.Context) (*clickhouse.Client, error) {
	chClient, err := getCHClient()
	if err != nil {
		return nil, err
	}
	if err := chClient.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return chClient, nil
}

func runAnalyticsInit(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	chClient, err := connectCH(ctx)
	if err != nil {
		return err
	}
	defer chClient.Close()

	fmt.Println("Creating analytics schema...")
	if err := chClient.InitSchema(ctx); err != nil {
		return fmt.Errorf("schema init failed: %w", err)
	}

	color.Green("✓ Analytics schema ready")
	return nil
}

func runAnalyticsSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pgClient, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	chClient, err := connectCH(ctx)
	if err != nil {
		return err
	}
	defer chClient.Close()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Syncing"),
		progressbar.OptionSpinnerType(14),
	)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(100 * time.Millisecond):
				bar.Add(1)
			}
		}
	}()

	syncer := clickhouse.NewSyncer(postgres.NewProductRepo(pgClient), chClient)
	result, err := syncer.Snapshot(ctx)
	close(done)
	fmt.Println()
	if err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}

	color.Green("✓ Captured %d snapshot rows in %s",
		result.RecordsSynced, result.EndTime.Sub(result.StartTime).Round(time.Millisecond))

	for _, e := range result.Errors {
		color.Yellow("  %s", e)
	}

	stats, err := syncer.GetSyncStats(ctx)
	if err == nil {
		fmt.Printf("\nPostgreSQL products:  %d\n", stats.TotalPGProducts)
		fmt.Printf("ClickHouse snapshots: %d\n", stats.TotalCHRecords)
		if !stats.LastSnapshot.IsZero() {
			fmt.Printf("Last snapshot:        %s\n", stats.LastSnapshot.Format(time.RFC3339))
		}
	}
	return nil
}

func runAnalyticsTrends(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	chClient, err := connectCH(ctx)
	if err != nil {
		return err
	}
	defer chClient.Close()

	asin := args[0]

	prices, err := chClient.GetPriceTrends(ctx, asin, trendsDays)
	if err != nil {
		return fmt.Errorf("failed to load price trends: %w", err)
	}
	ranks, err := chClient.GetRankTrends(ctx, asin, trendsDays)
	if err != nil {
		return fmt.Errorf("failed to load rank trends: %w", err)
	}

	if len(prices) == 0 && len(ranks) == 0 {
		color.Yellow("No snapshot data for %s in the last %d days", asin, trendsDays)
		fmt.Println("Run 'bsops analytics sync' to capture snapshots")
		return nil
	}

	if len(prices) > 0 {
		fmt.Println(color.CyanString("Price trend"))
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Date", "Min", "Max", "Avg"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, t := range prices {
			table.Append([]string{
				t.Date.Format("2006-01-02"),
				fmt.Sprintf("%.2f", t.MinPrice),
				fmt.Sprintf("%.2f", t.MaxPrice),
				fmt.Sprintf("%.2f", t.AvgPrice),
			})
		}
		table.Render()
	}

	if len(ranks) > 0 {
		fmt.Println("\n" + color.CyanString("Sales rank trend"))
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Date", "Best Rank"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, t := range ranks {
			table.Append([]string{t.Date.Format("2006-01-02"), fmt.Sprintf("#%d", t.BestRank)})
		}
		table.Render()
	}

	return nil
}

func runAnalyticsStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	chClient, err := connectCH(ctx)
	if err != nil {
		return err
	}
	defer chClient.Close()

	tables, err := chClient.GetTableInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to load table info: %w", err)
	}

	if len(tables) == 0 {
		color.Yellow("No analytics tables yet")
		fmt.Println("Run 'bsops analytics init' first")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Table", "Rows", "Size", "Engine"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, t := range tables {
		table.Append([]string{
			t.Name,
			fmt.Sprintf("%d", t.Rows),
			formatBytes(t.BytesSize),
			t.Engine,
		})
	}
	table.Render()
	return nil
}

func formatBytes(size uint64) string {
	switch {
	case size >= 1<<30:
		return fmt.Sprintf("%.2f GB", float64(size)/(1<<30))
	case size >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}

func runAnalyticsBrands(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	chClient, err := connectCH(ctx)
	if err != nil {
		return err
	}
	defer chClient.Close()

	summaries, err := chClient.GetBrandSummaries(ctx)
	if err != nil {
		return fmt.Errorf("failed to load brand summaries: %w", err)
	}

	if len(summaries) == 0 {
		color.Yellow("No snapshot data yet")
		fmt.Println("Run 'bsops analytics sync' first")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Brand", "Products", "Avg Price", "Best Rank"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, s := range summaries {
		table.Append([]string{
			s.Brand,
			fmt.Sprintf("%d", s.ProductCount),
			fmt.Sprintf("%.2f", s.AvgPrice),
			fmt.Sprintf("#%d", s.BestRank),
		})
	}
	table.Render()
	return nil
}
