package catalog

import (
	"context"
	"log/slog"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/studio"
)

var defaultHackathons = []studio.Hackathon{
	{
		ID:            "1",
		Title:         "TenAI's Jalgaon Programmer's Day Hackathon 2025",
		Date:          "1st December",
		Time:          "9am - 1pm",
		Location:      "MJ ARTS Jalgaon",
		Deadline:      "18th September 2025",
		Image:         "/hackathon-1.jpg",
		Registrations: 156,
	},
	{
		ID:            "2",
		Title:         "AI Innovation Challenge",
		Date:          "15th December",
		Time:          "10am - 6pm",
		Location:      "Tech Hub Mumbai",
		Deadline:      "25th November 2025",
		Image:         "/hackathon-2.jpg",
		Registrations: 89,
	},
}

// Seed writes the default hackathons when the catalog is empty.
func Seed(ctx context.Context, s *Store, logger *slog.Logger) error {
	existing, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, h := range defaultHackathons {
		if err := s.Put(ctx, h); err != nil {
			return err
		}
	}
	logger.Info("seeded hackathon catalog", "count", len(defaultHackathons))
	return nil
}
