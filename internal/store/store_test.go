package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/calorigram/internal/db"
	"github.com/vbonduro/calorigram/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })
	return d
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testUser(telegramID int64) *domain.User {
	return &domain.User{
		TelegramID:    telegramID,
		Name:          "Анна",
		Gender:        domain.GenderFemale,
		Age:           28,
		HeightCM:      165,
		WeightKG:      60,
		Activity:      domain.ActivityLight,
		Goal:          domain.GoalLose,
		DailyCalories: 1868,
		Targets:       domain.Targets{Calories: 1494, ProteinG: 84, FatG: 42, CarbsG: 195},
		Timezone:      "Europe/Moscow",
	}
}

func createUser(t *testing.T, d *sql.DB, telegramID int64) *domain.User {
	t.Helper()
	u, err := NewUserStore(d).Save(t.Context(), testUser(telegramID))
	require.NoError(t, err)
	return u
}
