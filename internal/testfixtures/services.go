package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/session-scheduler/internal/application"
	"github.com/example/session-scheduler/internal/persistence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithFactoryClock overrides the clock used by the factory.
func WithFactoryClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithFactoryIDGenerator overrides the identifier generator used by the
// factory.
func WithFactoryIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// ScheduleServiceDeps captures dependencies for constructing a schedule
// service.
type ScheduleServiceDeps struct {
	Schedules      persistence.ScheduleRepository
	Campaigns      persistence.CampaignRepository
	IDGenerator    func() string
	TokenGenerator func() string
	Now            func() time.Time
	Logger         *slog.Logger
}

// NewScheduleService builds a schedule service using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewScheduleService(deps ScheduleServiceDeps) *application.ScheduleService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	token := deps.TokenGenerator
	if token == nil {
		token = NewIDGenerator("share-token").NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewScheduleServiceWithLogger(
		deps.Schedules,
		deps.Campaigns,
		idGen,
		token,
		now,
		deps.Logger,
	)
}

// AvailabilityServiceDeps captures dependencies for constructing an
// availability service.
type AvailabilityServiceDeps struct {
	Schedules         persistence.ScheduleRepository
	Responses         persistence.AvailabilityRepository
	IDGenerator       func() string
	Now               func() time.Time
	InvalidateRanking func(scheduleID string)
	Logger            *slog.Logger
}

// NewAvailabilityService builds an availability service using the supplied
// dependencies.
func (f *ServiceFactory) NewAvailabilityService(deps AvailabilityServiceDeps) *application.AvailabilityService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewAvailabilityServiceWithLogger(
		deps.Schedules,
		deps.Responses,
		idGen,
		now,
		deps.InvalidateRanking,
		deps.Logger,
	)
}

// DecisionServiceDeps captures dependencies for constructing a decision
// service.
type DecisionServiceDeps struct {
	Schedules   persistence.ScheduleRepository
	Responses   persistence.AvailabilityRepository
	Sessions    persistence.ScheduledSessionRepository
	Notifier    application.SessionNotifier
	Location    *time.Location
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewDecisionService builds a decision service using the supplied
// dependencies.
func (f *ServiceFactory) NewDecisionService(deps DecisionServiceDeps) *application.DecisionService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewDecisionServiceWithLogger(
		deps.Schedules,
		deps.Responses,
		deps.Sessions,
		deps.Notifier,
		deps.Location,
		idGen,
		now,
		deps.Logger,
	)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Organizers     persistence.OrganizerRepository
	Sessions       persistence.AuthSessionRepository
	PasswordHash   application.PasswordHasher
	PasswordVerify application.PasswordVerifier
	IDGenerator    func() string
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	token := deps.TokenGenerator
	if token == nil {
		token = NewIDGenerator("session-token").NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	ttl := deps.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return application.NewAuthServiceWithLogger(
		deps.Organizers,
		deps.Sessions,
		deps.PasswordHash,
		deps.PasswordVerify,
		idGen,
		token,
		now,
		ttl,
		deps.Logger,
	)
}
