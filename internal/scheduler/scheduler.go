// Package scheduler periodically re-runs relationship inference from the
// profiling payloads stored with each domain's source tables.
package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// InferenceRunner re-runs inference across all domains and reports how many
// relationships were touched.
type InferenceRunner interface {
	RefreshDomains() (int, error)
}

// Service drives an InferenceRunner from a cron expression.
type Service struct {
	cronRunner *cron.Cron
	cronSpec   string
	runner     InferenceRunner
}

// NewService builds a scheduler around the given cron expression. The
// expression uses the six-field form with a seconds column.
func NewService(cronSpec string, runner InferenceRunner) *Service {
	log.Println("Initializing Inference Scheduler...")
	return &Service{
		cronSpec: cronSpec,
		runner:   runner,
		cronRunner: cron.New(
			cron.WithSeconds(), // Use seconds field in cron expressions
			cron.WithChain(
				cron.SkipIfStillRunning(cron.DefaultLogger),
				cron.Recover(cron.DefaultLogger),
			),
		),
	}
}

func (s *Service) runRefresh() {
	log.Println("Executing scheduled inference refresh...")
	touched, err := s.runner.RefreshDomains()
	if err != nil {
		log.Printf("Error refreshing relationship inference: %v", err)
		return
	}
	log.Printf("Scheduled inference refresh complete. Relationships touched: %d", touched)
}

// Start registers the refresh job and starts the cron runner. It is
// non-blocking.
func (s *Service) Start() error {
	entryID, err := s.cronRunner.AddFunc(s.cronSpec, s.runRefresh)
	if err != nil {
		return fmt.Errorf("failed to add inference refresh job with cron '%s': %w", s.cronSpec, err)
	}
	log.Printf("Added inference refresh job, EntryID: %d, Cron: '%s'", entryID, s.cronSpec)

	s.cronRunner.Start()
	log.Println("Cron runner started. Inference Scheduler is active.")
	return nil
}

// Stop gracefully shuts down the cron runner.
func (s *Service) Stop() {
	log.Println("Inference Scheduler Stop() called.")
	if s.cronRunner != nil {
		ctx := s.cronRunner.Stop()
		select {
		case <-ctx.Done():
			log.Println("Cron runner stopped gracefully.")
		case <-time.After(15 * time.Second):
			log.Println("Cron runner shutdown timed out.")
		}
	}
}
