package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/calorigram/internal/domain"
)

type MealStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewMealStore(db *sql.DB) *MealStore {
	return &MealStore{db: db, now: time.Now}
}

const mealColumns = `id, telegram_id, meal_type, dish_name, calories, protein, fat, carbs, weight_g,
	description, display, analysis_kind, photo_key, photo_mime, analysis_id, eaten_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeal(row rowScanner) (*domain.Meal, error) {
	m := &domain.Meal{}
	var photoKey sql.NullString
	var eatenAt, createdAt int64
	err := row.Scan(&m.ID, &m.TelegramID, &m.MealType, &m.DishName, &m.Calories, &m.ProteinG, &m.FatG, &m.CarbsG,
		&m.WeightG, &m.Description, &m.Display, &m.Kind, &photoKey, &m.PhotoMIME, &m.AnalysisID, &eatenAt, &createdAt)
	if err != nil {
		return nil, err
	}
	if photoKey.Valid {
		m.PhotoKey = &photoKey.String
	}
	m.EatenAt = time.Unix(eatenAt, 0).UTC()
	m.CreatedAt = time.Unix(createdAt, 0).UTC()
	return m, nil
}

func (s *MealStore) Create(ctx context.Context, m *domain.Meal) (*domain.Meal, error) {
	now := s.now()
	eatenAt := m.EatenAt
	if eatenAt.IsZero() {
		eatenAt = now
	}

	var photoKey any
	if m.PhotoKey != nil {
		photoKey = *m.PhotoKey
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO meals (telegram_id, meal_type, dish_name, calories, protein, fat, carbs, weight_g,
			description, display, analysis_kind, photo_key, photo_mime, analysis_id, eaten_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.TelegramID, m.MealType, m.DishName, m.Calories, m.ProteinG, m.FatG, m.CarbsG, m.WeightG,
		m.Description, m.Display, m.Kind, photoKey, m.PhotoMIME, m.AnalysisID, eatenAt.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to create meal: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, m.TelegramID, id)
}

// GetByID returns the meal only when it belongs to telegramID.
func (s *MealStore) GetByID(ctx context.Context, telegramID, id int64) (*domain.Meal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+mealColumns+` FROM meals WHERE id = ? AND telegram_id = ?
	`, id, telegramID)

	m, err := scanMeal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}

	return m, nil
}

// ListBetween returns the user's meals eaten in [from, to), oldest first.
func (s *MealStore) ListBetween(ctx context.Context, telegramID int64, from, to time.Time) ([]*domain.Meal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+mealColumns+` FROM meals
		WHERE telegram_id = ? AND eaten_at >= ? AND eaten_at < ?
		ORDER BY eaten_at ASC, id ASC
	`, telegramID, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var meals []*domain.Meal
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		meals = append(meals, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meals: %w", err)
	}

	return meals, nil
}

// Delete removes one meal and returns it so the caller can clean up its photo.
func (s *MealStore) Delete(ctx context.Context, telegramID, id int64) (*domain.Meal, error) {
	m, err := s.GetByID(ctx, telegramID, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("meal not found")
	}

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM meals WHERE id = ? AND telegram_id = ?
	`, id, telegramID); err != nil {
		return nil, fmt.Errorf("failed to delete meal: %w", err)
	}

	return m, nil
}

// DeleteBetween removes the user's meals eaten in [from, to) and returns them.
func (s *MealStore) DeleteBetween(ctx context.Context, telegramID int64, from, to time.Time) ([]*domain.Meal, error) {
	meals, err := s.ListBetween(ctx, telegramID, from, to)
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return nil, nil
	}

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM meals WHERE telegram_id = ? AND eaten_at >= ? AND eaten_at < ?
	`, telegramID, from.Unix(), to.Unix()); err != nil {
		return nil, fmt.Errorf("failed to delete meals: %w", err)
	}

	return meals, nil
}
