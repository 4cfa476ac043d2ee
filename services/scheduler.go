// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartRadarScheduler keeps radar attributes fresh between tournament
// completions.
func (s *RadarService) StartRadarScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every 15 minutes: recompute radar attributes for the rated population
	_, _ = sched.NewJob(
		gocron.DurationJob(15*time.Minute),
		gocron.NewTask(func() {
			if err := s.UpdateAllRadarAttributes(); err != nil {
				log.Printf("[Scheduler] radar refresh failed: %v", err)
			}
		}),
	)
}
