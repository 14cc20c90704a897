package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/barradesonido/bsops/internal/amazon"
	"github.com/barradesonido/bsops/internal/config"
	"github.com/barradesonido/bsops/internal/database"
	"github.com/barradesonido/bsops/internal/database/postgres"
	"github.com/barradesonido/bsops/internal/exporter"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog as an Amazon JSON document",
	Long: `Writes the catalog back out in the Amazon search-result format, so a
round-trip through import and export preserves the source documents.`,
	RunE: runExport,
}

var (
	exportOutput     string
	exportOnlyActive bool
)

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: <export dir>/amazon_<timestamp>.json)")
	exportCmd.Flags().BoolVar(&exportOnlyActive, "only-active", false, "Export only active products")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	fmt.Println(color.CyanString("Amazon Product Exporter"))
	fmt.Println()

	filePath := exportOutput
	if filePath == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		filename := fmt.Sprintf("amazon_%s.json", time.Now().Format("02-01-2006__15-04-05"))
		filePath = filepath.Join(cfg.Export.OutputDir, filename)
	}

	client, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	log := getLogger()
	repo := postgres.NewProductRepo(client)
	processor := amazon.NewProcessor(amazon.NewTransformer(log), log)
	exp := exporter.New(repo, processor, log)

	started := time.Now()
	result, err := exp.ExportProducts(ctx, filePath, exportOnlyActive)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.Append([]string{"Total processed", fmt.Sprintf("%d", result.TotalProcessed)})
	table.Append([]string{"Exported", fmt.Sprintf("%d", result.TotalExported)})
	table.Append([]string{"Failed", fmt.Sprintf("%d", result.Failed)})
	table.Append([]string{"With images", fmt.Sprintf("%d", result.WithImages)})
	table.Append([]string{"With prices", fmt.Sprintf("%d", result.WithPrices)})
	table.Append([]string{"With rankings", fmt.Sprintf("%d", result.WithRankings)})
	table.Render()

	if len(result.Errors) > 0 {
		fmt.Println("\n" + color.RedString("Errors:"))
		for _, e := range result.Errors {
			fmt.Printf("  • ASIN %s: %s\n", e.ASIN, e.Error)
		}
	}

	if info, err := os.Stat(filePath); err == nil {
		fmt.Printf("\nFile: %s (%.1f KB)\n", filePath, float64(info.Size())/1024)
	}

	// Record the run
	completed := time.Now()
	history := postgres.NewHistoryRepo(client)
	entry := &database.OperationHistory{
		Action:      "export",
		Count:       result.TotalExported,
		Details:     fmt.Sprintf("file=%s only_active=%t", filePath, exportOnlyActive),
		StartedAt:   started,
		CompletedAt: &completed,
	}
	if err := history.Add(ctx, entry); err != nil {
		color.Yellow("Warning: failed to record history: %v", err)
	}

	color.Green("\n✓ Export completed in %s", completed.Sub(started).Round(time.Millisecond))
	return nil
}
