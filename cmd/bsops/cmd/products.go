package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/barradesonido/bsops/internal/database"
	"github.com/barradesonido/bsops/internal/database/postgres"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Browse the product catalog",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog products",
	RunE:  runProductsList,
}

var productsShowCmd = &cobra.Command{
	Use:   "show <asin>",
	Short: "Show full details for one product",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductsShow,
}

var productsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent import/export operations",
	RunE:  runProductsHistory,
}

var (
	listLimit      int
	listBrand      string
	listOnlyActive bool
	historyLimit   int
)

func init() {
	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsShowCmd)
	productsCmd.AddCommand(productsHistoryCmd)

	productsListCmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum number of products to show")
	productsListCmd.Flags().StringVar(&listBrand, "brand", "", "Filter by brand")
	productsListCmd.Flags().BoolVar(&listOnlyActive, "only-active", false, "Show only active products")

	productsHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of entries to show")
}

func runProductsList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	repo := postgres.NewProductRepo(client)
	products, err := repo.GetAll(ctx, database.QueryOptions{
		Limit:      listLimit,
		Brand:      listBrand,
		OnlyActive: listOnlyActive,
		OrderBy:    "created_at",
		OrderDir:   "DESC",
	})
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	if len(products) == 0 {
		color.Yellow("No products found")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ASIN", "Title", "Brand", "Price", "Rank", "Active"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, p := range products {
		price := "-"
		for _, pr := range p.ActivePrices() {
			if pr.Amount > 0 {
				price = pr.DisplayAmount
				if price == "" {
					price = fmt.Sprintf("%.2f %s", pr.Amount, pr.Currency)
				}
				break
			}
		}

		rank := "-"
		for _, rk := range p.ActiveRankings() {
			rank = fmt.Sprintf("#%d", rk.SalesRank)
			break
		}

		active := color.GreenString("yes")
		if !p.IsActive {
			active = color.RedString("no")
		}

		title := p.Title
		if len([]rune(title)) > 50 {
			title = string([]rune(title)[:47]) + "..."
		}

		table.Append([]string{p.ASIN, title, p.Brand, price, rank, active})
	}
	table.Render()

	total, err := repo.Count(ctx)
	if err == nil {
		fmt.Printf("\nShowing %d of %d products\n", len(products), total)
	}
	return nil
}

func runProductsShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	repo := postgres.NewProductRepo(client)
	p, err := repo.GetByASIN(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}
	if p == nil {
		color.Yellow("Product %s not found", args[0])
		return nil
	}

	fmt.Println(color.CyanString("Product"))
	fmt.Printf("  ASIN:         %s\n", p.ASIN)
	fmt.Printf("  Title:        %s\n", p.Title)
	fmt.Printf("  Slug:         %s\n", p.Slug)
	fmt.Printf("  Brand:        %s\n", p.Brand)
	if p.Manufacturer != "" {
		fmt.Printf("  Manufacturer: %s\n", p.Manufacturer)
	}
	fmt.Printf("  URL:          %s\n", p.AmazonURL)
	fmt.Printf("  Active:       %t\n", p.IsActive)
	fmt.Printf("  Created:      %s\n", p.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  Updated:      %s\n", p.UpdatedAt.Format(time.RFC3339))

	if len(p.Features) > 0 {
		fmt.Println("\n" + color.CyanString("Features"))
		for _, f := range p.Features {
			fmt.Printf("  • %s\n", f)
		}
	}

	if len(p.Images) > 0 {
		fmt.Println("\n" + color.CyanString("Images"))
		for _, img := range p.Images {
			marker := " "
			if img.IsPrimary {
				marker = "*"
			}
			fmt.Printf("  %s %s (%dx%d)\n", marker, img.URL, img.Width, img.Height)
		}
	}

	if len(p.Prices) > 0 {
		fmt.Println("\n" + color.CyanString("Prices"))
		for _, pr := range p.Prices {
			line := fmt.Sprintf("  %s", pr.DisplayAmount)
			if pr.DisplayAmount == "" {
				line = fmt.Sprintf("  %.2f %s", pr.Amount, pr.Currency)
			}
			if pr.SavingsAmount > 0 {
				line += fmt.Sprintf(" (save %s, %d%%)", pr.SavingsDisplay, pr.SavingsPercentage)
			}
			if pr.IsFreeShipping {
				line += " [free shipping]"
			}
			fmt.Println(line)
		}
	}

	if len(p.Rankings) > 0 {
		fmt.Println("\n" + color.CyanString("Rankings"))
		for _, rk := range p.Rankings {
			fmt.Printf("  #%d in %s\n", rk.SalesRank, rk.CategoryName)
		}
	}

	return nil
}

func runProductsHistory(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	repo := postgres.NewHistoryRepo(client)
	entries, err := repo.GetRecent(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if len(entries) == 0 {
		color.Yellow("No operations recorded yet")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Action", "Count", "Started", "Duration", "Details"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, e := range entries {
		duration := "-"
		if e.CompletedAt != nil {
			duration = e.CompletedAt.Sub(e.StartedAt).Round(time.Millisecond).String()
		}
		table.Append([]string{
			e.Action,
			fmt.Sprintf("%d", e.Count),
			e.StartedAt.Format("2006-01-02 15:04:05"),
			duration,
			e.Details,
		})
	}
	table.Render()
	return nil
}
