package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/barradesonido/bsops/internal/config"
	"github.com/barradesonido/bsops/internal/database"
	"github.com/barradesonido/bsops/internal/database/postgres"
	"github.com/barradesonido/bsops/internal/images"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Manage local product images",
}

var imagesFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download primary images for catalog products",
	Long:  "Downloads the primary image of every active product into the local originals directory.",
	RunE:  runImagesFetch,
}

var imagesResizeCmd = &cobra.Command{
	Use:   "resize",
	Short: "Generate storefront size variants",
	Long:  "Produces square 160/320/500 px variants from the downloaded originals.",
	RunE:  runImagesResize,
}

var fetchLimit int

func init() {
	imagesCmd.AddCommand(imagesFetchCmd)
	imagesCmd.AddCommand(imagesResizeCmd)

	imagesFetchCmd.Flags().IntVar(&fetchLimit, "limit", 0, "Fetch at most N images (0 = all)")
}

func runImagesFetch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	repo := postgres.NewProductRepo(client)
	products, err := repo.GetAll(ctx, database.QueryOptions{OnlyActive: true, Limit: fetchLimit})
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	type target struct {
		asin string
		url  string
	}
	var targets []target
	for _, p := range products {
		for _, img := range p.ActiveImages() {
			if img.IsPrimary && img.URL != "" {
				targets = append(targets, target{asin: p.ASIN, url: img.URL})
				break
			}
		}
	}

	if len(targets) == 0 {
		color.Yellow("No primary images to fetch")
		return nil
	}

	fmt.Printf("Fetching %d images into %s\n\n", len(targets), cfg.Images.OriginalsDir)

	fetcher := images.NewFetcher(cfg.Images.OriginalsDir)
	bar := progressbar.NewOptions(len(targets),
		progressbar.OptionSetDescription("  Downloading images"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.GreenString("█"),
			SaucerHead:    color.GreenString("█"),
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
	)

	var fetched, failed int
	for _, t := range targets {
		if _, _, err := fetcher.DownloadWithValidation(t.url, t.asin); err != nil {
			failed++
		} else {
			fetched++
		}
		bar.Add(1)
	}
	fmt.Println()
	fmt.Println()

	color.Green("✓ Downloaded %d images", fetched)
	if failed > 0 {
		color.Yellow("  %d downloads failed", failed)
	}
	return nil
}

func runImagesResize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	resizer := images.NewResizer(cfg.Images.OriginalsDir, cfg.Images.ResizedDir)
	originals, err := resizer.FindOriginals()
	if err != nil {
		return fmt.Errorf("failed to scan originals: %w", err)
	}

	if len(originals) == 0 {
		color.Yellow("No originals found in %s", cfg.Images.OriginalsDir)
		fmt.Println("Run 'bsops images fetch' first")
		return nil
	}

	fmt.Printf("Resizing %d originals into %v px variants\n\n", len(originals), images.StorefrontSizes)

	bar := progressbar.NewOptions(len(originals),
		progressbar.OptionSetDescription("  Resizing images"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.GreenString("█"),
			SaucerHead:    color.GreenString("█"),
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
	)

	var resized, failed int
	for _, src := range originals {
		if _, err := resizer.ResizeVariants(src); err != nil {
			failed++
		} else {
			resized++
		}
		bar.Add(1)
	}
	fmt.Println()
	fmt.Println()

	color.Green("✓ Resized %d images", resized)
	if failed > 0 {
		color.Yellow("  %d images failed", failed)
	}
	return nil
}
