package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bsops",
	Short: "Barra de Sonido Operations Terminal",
	Long: color.New(color.FgCyan, color.Bold).Sprint(`
  ____
 | __ )  ___   ___  _ __  ___
 |  _ \ / __| / _ \| '_ \/ __|
 | |_) |\__ \| (_) | |_) \__ \
 |____/ |___/ \___/| .__/|___/
                   |_|
`) + `
Barra de Sonido Operations Terminal - Soundbar catalog toolkit

Import Amazon product catalogs, manage the soundbar database,
generate storefront rankings and export everything back out.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(rankingCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(imagesCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(configCmd)
}
