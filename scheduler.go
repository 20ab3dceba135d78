package herald

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler emits fixed events onto a bus on cron schedules. Specs use
// the six-field form with a leading seconds column.
type Scheduler struct {
	bus    Emitter
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler creates a scheduler targeting bus. The scheduler starts
// stopped; call Start after registering schedules.
func NewScheduler(bus Emitter, opts ...Option) *Scheduler {
	cfg := newConfig(opts...)
	return &Scheduler{
		bus:    bus,
		cron:   cron.New(cron.WithSeconds()),
		logger: cfg.logger,
	}
}

// Schedule emits event with args on every tick of spec. It returns the
// entry ID for later removal, or an error for an empty event name or an
// unparsable spec.
func (s *Scheduler) Schedule(spec, event string, args ...any) (cron.EntryID, error) {
	if event == "" {
		return 0, ErrEmptyEvent
	}
	id, err := s.cron.AddFunc(spec, func() {
		s.bus.Emit(event, args...)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Debug("scheduled emission",
		zap.String("spec", spec),
		zap.String("event", event),
	)
	return id, nil
}

// Remove deletes a schedule. Unknown IDs are a no-op.
func (s *Scheduler) Remove(id cron.EntryID) {
	s.cron.Remove(id)
}

// Start begins firing schedules in their own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops firing schedules. Emissions already handed to the bus are
// unaffected.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
