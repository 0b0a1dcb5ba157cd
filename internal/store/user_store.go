package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vbonduro/calorigram/internal/domain"
)

type UserStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db, now: time.Now}
}

const userColumns = `id, telegram_id, name, gender, age, height_cm, weight_kg, activity_level, goal,
	daily_calories, target_calories, target_protein, target_fat, target_carbs, timezone, created_at, updated_at`

// Save creates the user or replaces the profile of an existing one with the
// same Telegram ID.
func (s *UserStore) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	now := s.now().Unix()
	tz := u.Timezone
	if tz == "" {
		tz = "UTC"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (telegram_id, name, gender, age, height_cm, weight_kg, activity_level, goal,
			daily_calories, target_calories, target_protein, target_fat, target_carbs, timezone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			name = excluded.name,
			gender = excluded.gender,
			age = excluded.age,
			height_cm = excluded.height_cm,
			weight_kg = excluded.weight_kg,
			activity_level = excluded.activity_level,
			goal = excluded.goal,
			daily_calories = excluded.daily_calories,
			target_calories = excluded.target_calories,
			target_protein = excluded.target_protein,
			target_fat = excluded.target_fat,
			target_carbs = excluded.target_carbs,
			timezone = excluded.timezone,
			updated_at = excluded.updated_at
	`, u.TelegramID, u.Name, u.Gender, u.Age, u.HeightCM, u.WeightKG, u.Activity, u.Goal,
		u.DailyCalories, u.Targets.Calories, u.Targets.ProteinG, u.Targets.FatG, u.Targets.CarbsG, tz, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	return s.GetByTelegramID(ctx, u.TelegramID)
}

func (s *UserStore) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id = ?`, telegramID)

	u := &domain.User{}
	var createdAt, updatedAt int64
	err := row.Scan(&u.ID, &u.TelegramID, &u.Name, &u.Gender, &u.Age, &u.HeightCM, &u.WeightKG, &u.Activity, &u.Goal,
		&u.DailyCalories, &u.Targets.Calories, &u.Targets.ProteinG, &u.Targets.FatG, &u.Targets.CarbsG, &u.Timezone,
		&createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	u.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return u, nil
}

func (s *UserStore) UpdateTimezone(ctx context.Context, telegramID int64, timezone string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET timezone = ?, updated_at = ? WHERE telegram_id = ?
	`, timezone, s.now().Unix(), telegramID)
	if err != nil {
		return fmt.Errorf("failed to update timezone: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// Delete removes the user and, through the foreign key, all of their meals.
func (s *UserStore) Delete(ctx context.Context, telegramID int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM users WHERE telegram_id = ?
	`, telegramID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}
