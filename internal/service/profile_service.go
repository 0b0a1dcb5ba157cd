package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata" // user timezones must resolve on images without zoneinfo

	"github.com/vbonduro/calorigram/internal/domain"
	"github.com/vbonduro/calorigram/internal/targets"
)

// userRepository is the subset of store.UserStore that ProfileService requires.
type userRepository interface {
	Save(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	UpdateTimezone(ctx context.Context, telegramID int64, timezone string) error
}

type ProfileService struct {
	users           userRepository
	defaultTimezone string
	logger          *slog.Logger
}

// NewProfileService stores defaultTimezone for registrations that do not
// name one. An empty default means UTC.
func NewProfileService(users userRepository, defaultTimezone string, logger *slog.Logger) *ProfileService {
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return &ProfileService{users: users, defaultTimezone: defaultTimezone, logger: logger}
}

// Registration is everything needed to create or replace a profile.
type Registration struct {
	TelegramID int64
	Name       string
	Profile    targets.Profile
	// Timezone is an IANA name; empty uses the service default.
	Timezone string
}

// Register validates the profile, computes targets and stores the user.
// Registering again replaces the previous profile.
func (s *ProfileService) Register(ctx context.Context, r Registration) (*domain.User, error) {
	if err := r.Profile.Validate(); err != nil {
		return nil, err
	}
	tz, err := s.normaliseTimezone(r.Timezone)
	if err != nil {
		return nil, err
	}

	daily, t := targets.Compute(r.Profile)
	u, err := s.users.Save(ctx, &domain.User{
		TelegramID:    r.TelegramID,
		Name:          strings.TrimSpace(r.Name),
		Gender:        r.Profile.Gender,
		Age:           r.Profile.Age,
		HeightCM:      r.Profile.HeightCM,
		WeightKG:      r.Profile.WeightKG,
		Activity:      r.Profile.Activity,
		Goal:          r.Profile.Goal,
		DailyCalories: daily,
		Targets:       t,
		Timezone:      tz,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", r.TelegramID, "daily_calories", daily, "target_calories", t.Calories)
	return u, nil
}

func (s *ProfileService) Get(ctx context.Context, telegramID int64) (*domain.User, error) {
	u, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *ProfileService) SetTimezone(ctx context.Context, telegramID int64, timezone string) error {
	tz, err := s.normaliseTimezone(timezone)
	if err != nil {
		return err
	}
	if _, err := s.Get(ctx, telegramID); err != nil {
		return err
	}
	return s.users.UpdateTimezone(ctx, telegramID, tz)
}

func (s *ProfileService) normaliseTimezone(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.defaultTimezone, nil
	}
	if _, err := time.LoadLocation(name); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return name, nil
}
