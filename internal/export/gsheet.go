
package export

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-co-op/gocron"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/app"
	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

type GSheetExporter struct {
	config        *app.Config
	service       *app.Service
	scheduler     *gocron.Scheduler
	sheetsService *sheets.Service
}

func NewGSheetExporter(config *app.Config, service *app.Service) (*GSheetExporter, error) {
	ctx := context.Background()
	scheduler := gocron.NewScheduler(time.UTC)

	for userID, configs := range config.GSheet {
		for _, cfg := range configs {
			svc, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath))
			if err != nil {
				return nil, fmt.Errorf("failed to create sheets service: %w", err)
			}

			exporter := &GSheetExporter{
				config:        config,
				service:       service,
				scheduler:     scheduler,
				sheetsService: svc,
			}

			cfg := cfg
			userID := userID
			_, err = scheduler.Cron(cfg.Schedule).Do(func() {
				if err := exporter.Export(userID, &cfg); err != nil {
					logger.Error.Printf("Export failed: %v", err)
				}
			})
			if err != nil {
				return nil, fmt.Errorf("failed to schedule export: %w", err)
			}
		}
	}

	scheduler.StartAsync()
	return nil, nil
}

// Export writes one row per course: title, exact total, per-status
// counts, completion percentage, and an asterisk when the percentage is
// an estimate from assignment-level counters.
func (e *GSheetExporter) Export(userID string, cfg *app.GSheetConfig) error {
	if err := e.service.SetActiveUser(userID); err != nil {
		return fmt.Errorf("failed to select user namespace: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := e.service.Reload(ctx, "export", true); err != nil {
		return fmt.Errorf("failed to refresh dashboard state: %w", err)
	}

	values := [][]interface{}{
		{"course", "total", "pending", "accepted", "needs revision", "reviewed", "completion %"},
	}
	for _, course := range e.service.Courses() {
		stats, ok := e.service.CourseStats(course.ID)
		if !ok {
			continue
		}
		completion := fmt.Sprintf("%d", stats.CompletionPct)
		if stats.Estimated {
			completion += "*"
		}
		values = append(values, []interface{}{
			course.Title,
			stats.Total,
			stats.ByStatus[models.StatusPending],
			stats.ByStatus[models.StatusAccepted],
			stats.ByStatus[models.StatusNeedsRevision],
			stats.ByStatus[models.StatusReviewed],
			completion,
		})
	}

	updateRange := fmt.Sprintf("%s!%s", cfg.SheetName, cfg.StatsRange)
	_, err := e.sheetsService.Spreadsheets.Values.Update(cfg.SheetID, updateRange,
		&sheets.ValueRange{Values: values}).ValueInputOption("RAW").Do()
	if err != nil {
		return fmt.Errorf("failed to update stats range: %w", err)
	}

	emoji := "✓"
	if len(e.config.EmojiVariants) > 0 {
		emoji = e.config.EmojiVariants[rand.Intn(len(e.config.EmojiVariants))]
	}
	timestamp := fmt.Sprintf("UPD: %s %s", time.Now().Format("2 January 15:04"), emoji)

	updateRange = fmt.Sprintf("%s!%s", cfg.SheetName, cfg.TimestampRange)
	_, err = e.sheetsService.Spreadsheets.Values.Update(cfg.SheetID, updateRange,
		&sheets.ValueRange{Values: [][]interface{}{{timestamp}}}).ValueInputOption("RAW").Do()

	return err
}
