package storage

import (
	"context"
	"fmt"
)

// DefaultZones are the focus zones created when no zones are configured.
var DefaultZones = []NewZone{
	{
		Name:        "Coffee Shop",
		Description: "Perfect for creative work with gentle coffee shop chatter and espresso machine sounds.",
		Icon:        "coffee",
		Color:       "amber",
		YouTubeURL:  "https://www.youtube.com/embed/jfKfPfyJRdk?autoplay=0&loop=1&controls=1&modestbranding=1",
	},
	{
		Name:        "Silent Library",
		Description: "Minimal ambient sounds with occasional page turns and quiet keyboard typing.",
		Icon:        "book",
		Color:       "blue",
		YouTubeURL:  "https://www.youtube.com/embed/6p0DAz_30qQ?autoplay=0&loop=1&controls=1&modestbranding=1",
	},
	{
		Name:        "Forest Retreat",
		Description: "Gentle forest sounds with birds chirping and rustling leaves for natural focus.",
		Icon:        "leaf",
		Color:       "green",
		YouTubeURL:  "https://www.youtube.com/embed/eKFTSSKCzWA?autoplay=0&loop=1&controls=1&modestbranding=1",
	},
	{
		Name:        "Rainy Day",
		Description: "Soothing rain sounds perfect for deep concentration and creative flow.",
		Icon:        "cloud-rain",
		Color:       "slate",
		YouTubeURL:  "https://www.youtube.com/embed/mPZkdNFkNps?autoplay=0&loop=1&controls=1&modestbranding=1",
	},
	{
		Name:        "Lo-Fi Beats",
		Description: "Relaxing lo-fi hip hop beats perfect for coding and creative tasks.",
		Icon:        "music",
		Color:       "purple",
		YouTubeURL:  "https://www.youtube.com/embed/jfKfPfyJRdk?autoplay=0&loop=1&controls=1&modestbranding=1",
	},
	{
		Name:        "White Noise",
		Description: "Consistent white noise to mask distractions and enhance concentration.",
		Icon:        "wave-square",
		Color:       "gray",
		YouTubeURL:  "https://www.youtube.com/embed/nMfPqeZjc2c?autoplay=0&loop=1&controls=1&modestbranding=1",
	},
}

// SeedZones creates the given zones, in order, if the store holds none yet.
// It returns the number of zones created. An empty zones slice seeds
// DefaultZones.
func SeedZones(ctx context.Context, store ZoneStore, zones []NewZone) (int, error) {
	existing, err := store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list zones: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	if len(zones) == 0 {
		zones = DefaultZones
	}

	for i, zone := range zones {
		if _, err := store.Create(ctx, zone); err != nil {
			return i, fmt.Errorf("failed to create zone %q: %w", zone.Name, err)
		}
	}

	return len(zones), nil
}
