package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/silentspaces/internal/presence"
	"github.com/goodtune/silentspaces/internal/storage"
	"github.com/spf13/cobra"
)

var (
	presenceURL     string
	presenceTimeout time.Duration
)

var presenceCmd = &cobra.Command{
	Use:     "presence",
	Short:   "Show who is present in each zone",
	Long:    `Fetch zones and presence from a running SilentSpaces server and print them.`,
	Example: `  silentspaces presence --url http://localhost:5000`,
	RunE:    runPresence,
}

func init() {
	presenceCmd.Flags().StringVar(&presenceURL, "url", "http://localhost:5000", "Base URL of the SilentSpaces server")
	presenceCmd.Flags().DurationVar(&presenceTimeout, "timeout", 5*time.Second, "Request timeout")
	rootCmd.AddCommand(presenceCmd)
}

func runPresence(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), presenceTimeout)
	defer cancel()

	client := &http.Client{}
	base := strings.TrimRight(presenceURL, "/")

	var zones []storage.Zone
	if err := getJSON(ctx, client, base+"/api/zones", &zones); err != nil {
		return err
	}

	var snapshot []presence.ZonePresence
	if err := getJSON(ctx, client, base+"/api/presence", &snapshot); err != nil {
		return err
	}

	printPresence(cmd.OutOrStdout(), zones, snapshot)
	return nil
}

func getJSON(ctx context.Context, client *http.Client, url string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch %s: %s", url, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return nil
}

func printPresence(w io.Writer, zones []storage.Zone, snapshot []presence.ZonePresence) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	faint := color.New(color.Faint)

	byZone := make(map[int64]presence.ZonePresence, len(snapshot))
	total := 0
	for _, entry := range snapshot {
		byZone[entry.ZoneID] = entry
		total += entry.Count
	}

	for _, zone := range zones {
		entry := byZone[zone.ID]

		_, _ = bold.Fprintf(w, "%s", zone.Name)
		if entry.Count > 0 {
			_, _ = green.Fprintf(w, "  %d focusing\n", entry.Count)
		} else {
			_, _ = faint.Fprintln(w, "  empty")
		}

		for _, member := range entry.Members {
			elapsed := time.Duration(member.ElapsedSeconds) * time.Second
			_, _ = fmt.Fprintf(w, "  - %s (%s, %s)\n", member.Name, formatElapsed(elapsed), member.Duration)
		}
	}

	_, _ = fmt.Fprintf(w, "\n%d people in %d zones\n", total, len(zones))
}

// formatElapsed renders a duration as "1h05m" or "12m".
func formatElapsed(d time.Duration) string {
	d = d.Truncate(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
