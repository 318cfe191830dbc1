package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/goodtune/silentspaces/internal/config"
	"github.com/goodtune/silentspaces/internal/storage"
	"github.com/spf13/cobra"
)

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "List the zones seeded at startup",
	Long:  `List the focus zones the server creates on an empty store, from configuration or the built-in defaults.`,
	RunE:  runZones,
}

func init() {
	rootCmd.AddCommand(zonesCmd)
}

func runZones(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	zones := cfg.Zones
	source := configPath
	if len(zones) == 0 {
		zones = storage.DefaultZones
		source = "built-in defaults"
	}

	printZones(cmd.OutOrStdout(), zones, source)
	return nil
}

func printZones(w io.Writer, zones []storage.NewZone, source string) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	faint := color.New(color.Faint)

	_, _ = fmt.Fprintf(w, "%d zones from %s\n\n", len(zones), source)
	for i, zone := range zones {
		_, _ = bold.Fprintf(w, "%2d. %s", i+1, zone.Name)
		_, _ = cyan.Fprintf(w, "  [%s/%s]\n", zone.Icon, zone.Color)
		if zone.Description != "" {
			_, _ = fmt.Fprintf(w, "    %s\n", zone.Description)
		}
		if zone.YouTubeURL != "" {
			_, _ = faint.Fprintf(w, "    %s\n", zone.YouTubeURL)
		}
	}
}
