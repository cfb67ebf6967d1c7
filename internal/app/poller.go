package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/shrimpsizemoose/trekker/logger"
)

// Poller drives the periodic re-derivation tick. The focus trigger from
// the HTTP surface funnels into the same Reload entry point; both are
// gated by the persisted last-reload timestamp, so overlapping triggers
// degrade to no-ops instead of duplicate fetches.
type Poller struct {
	service   *Service
	scheduler *gocron.Scheduler
	schedule  string
}

func NewPoller(service *Service) (*Poller, error) {
	scheduler := gocron.NewScheduler(time.UTC)

	schedule := service.Config.Engine.PollSchedule
	if schedule == "" {
		schedule = "*/5 * * * *"
	}

	p := &Poller{
		service:   service,
		scheduler: scheduler,
		schedule:  schedule,
	}

	_, err := scheduler.Cron(schedule).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := p.service.Reload(ctx, "poll", false); err != nil {
			if errors.Is(err, ErrReloadCooldown) {
				logger.Debug.Println("Poll tick inside cooldown, skipping")
				return
			}
			logger.Error.Printf("Periodic reload failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule poll job: %w", err)
	}

	return p, nil
}

func (p *Poller) Start() {
	p.scheduler.StartAsync()
	logger.Info.Printf("Poller started with schedule %q", p.schedule)
}

func (p *Poller) Stop() {
	p.scheduler.Stop()
}
