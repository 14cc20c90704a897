package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/barradesonido/bsops/internal/amazon"
	"github.com/barradesonido/bsops/internal/database"
	"github.com/barradesonido/bsops/internal/database/postgres"
	"github.com/barradesonido/bsops/internal/importer"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import products from an Amazon JSON catalog",
	Long: `Reads an Amazon search-result JSON document and imports every item
into the catalog. Existing products are skipped unless --force is set.`,
	RunE: runImport,
}

var (
	importFile  string
	importForce bool
	importLimit int
	importYes   bool
)

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "amazon.json", "Path to the Amazon JSON file")
	importCmd.Flags().BoolVar(&importForce, "force", false, "Overwrite existing products")
	importCmd.Flags().IntVar(&importLimit, "limit", 0, "Import at most N items (0 = all)")
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	fmt.Println(color.CyanString("Amazon Product Importer"))
	fmt.Println()

	if importForce {
		color.Yellow("WARNING:")
		fmt.Println("  • This will import data from the JSON file")
		fmt.Println("  • Products already edited in the admin panel")
		fmt.Println("  • will be OVERWRITTEN permanently")
		fmt.Println()
	}

	if !importYes && !confirm("Import the catalog?") {
		color.Yellow("Import cancelled")
		return nil
	}

	fmt.Printf("File: %s\n", importFile)

	jsonData, err := os.ReadFile(importFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", importFile, err)
	}

	client, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	log := getLogger()
	repo := postgres.NewProductRepo(client)
	processor := amazon.NewProcessor(amazon.NewTransformer(log), log)
	imp := importer.New(repo, processor, log)

	var bar *progressbar.ProgressBar
	imp.Progress = func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("  Importing products"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        color.GreenString("█"),
					SaucerHead:    color.GreenString("█"),
					SaucerPadding: "░",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionShowCount(),
			)
		}
		bar.Set(done)
	}

	started := time.Now()
	result, err := imp.ImportProducts(ctx, jsonData, importForce, importLimit)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Println()
	fmt.Println()

	// Results table
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.Append([]string{"Total processed", fmt.Sprintf("%d", result.TotalProcessed)})
	table.Append([]string{"Newly imported", fmt.Sprintf("%d", result.SuccessfullyImported)})
	table.Append([]string{"Updated", fmt.Sprintf("%d", result.Updated)})
	table.Append([]string{"Skipped", fmt.Sprintf("%d", result.Skipped)})
	table.Append([]string{"Failed", fmt.Sprintf("%d", result.Failed)})
	table.Render()

	if len(result.Errors) > 0 {
		fmt.Println("\n" + color.RedString("Errors:"))
		for _, e := range result.Errors {
			fmt.Printf("  • ASIN %s: %s\n", e.ASIN, e.Error)
		}
	}

	// Record the run
	completed := time.Now()
	history := postgres.NewHistoryRepo(client)
	entry := &database.OperationHistory{
		Action:      "import",
		Count:       result.SuccessfullyImported + result.Updated,
		Details:     fmt.Sprintf("file=%s force=%t failed=%d", importFile, importForce, result.Failed),
		StartedAt:   started,
		CompletedAt: &completed,
	}
	if err := history.Add(ctx, entry); err != nil {
		color.Yellow("Warning: failed to record history: %v", err)
	}

	color.Green("\n✓ Import completed in %s", completed.Sub(started).Round(time.Millisecond))
	return nil
}
