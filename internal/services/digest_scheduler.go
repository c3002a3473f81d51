package services

import (
	"context"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/samuq/backend/pkg/logger"
)

// Dispatcher is the part of DigestService the scheduler drives.
type Dispatcher interface {
	Today() time.Time
	Dispatch(ctx context.Context, day time.Time, slot string, force bool) *DispatchResult
}

// DigestScheduler calls Dispatch for every configured slot on its cron schedule.
// Each run is a plain non-forced dispatch, so a slot already sent that day is skipped.
type DigestScheduler struct {
	dispatcher Dispatcher
	slots      map[string]string
	loc        *time.Location
	cron       *cron.Cron
	entries    map[string]cron.EntryID
}

func NewDigestScheduler(dispatcher Dispatcher, slots map[string]string, loc *time.Location) *DigestScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &DigestScheduler{
		dispatcher: dispatcher,
		slots:      slots,
		loc:        loc,
		entries:    make(map[string]cron.EntryID),
	}
}

func (s *DigestScheduler) Start() error {
	s.cron = cron.New(cron.WithLocation(s.loc))

	names := make([]string, 0, len(s.slots))
	for name := range s.slots {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		slot := NormalizeSlot(name)
		spec := s.slots[name]
		id, err := s.cron.AddFunc(spec, func() { s.run(slot) })
		if err != nil {
			logger.Error().Err(err).Str("slot", slot).Str("cron", spec).Msg("[DigestScheduler] Invalid schedule")
			return err
		}
		s.entries[slot] = id
		logger.Info().Str("slot", slot).Str("cron", spec).Msg("[DigestScheduler] Slot scheduled")
	}

	s.cron.Start()
	logger.Info().Int("slots", len(s.entries)).Msg("[DigestScheduler] Scheduler started")
	return nil
}

func (s *DigestScheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logger.Info().Msg("[DigestScheduler] Scheduler stopped")
	}
}

// Next returns the next run time of a slot, or the zero time if it is not scheduled.
func (s *DigestScheduler) Next(slot string) time.Time {
	id, ok := s.entries[NormalizeSlot(slot)]
	if !ok || s.cron == nil {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

func (s *DigestScheduler) run(slot string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result := s.dispatcher.Dispatch(ctx, s.dispatcher.Today(), slot, false)
	if !result.OK {
		logger.Warn().Str("slot", slot).Str("error", result.Error).Msg("[DigestScheduler] Dispatch failed")
	}
}
