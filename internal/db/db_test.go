package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenForTestingAppliesMigrations(t *testing.T) {
	db, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	for _, table := range []string{"users", "meals", "schema_migrations"} {
		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err)
		assert.Equal(t, table, name)
	}

	var version int
	require.NoError(t, db.QueryRow("SELECT version FROM schema_migrations").Scan(&version))
	assert.Equal(t, 2, version)
}

func TestOpenForTestingIsolated(t *testing.T) {
	a, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })

	b, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, b.Close()) })

	_, err = a.Exec(`INSERT INTO users (telegram_id, gender, age, height_cm, weight_kg, activity_level, daily_calories, created_at, updated_at)
		VALUES (1, 'male', 30, 180, 80, 'moderate', 2500, 0, 0)`)
	require.NoError(t, err)

	var n int
	require.NoError(t, b.QueryRow("SELECT COUNT(*) FROM users").Scan(&n))
	assert.Equal(t, 0, n)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calorigram.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, second.Close()) })

	var n int
	require.NoError(t, second.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestForeignKeysCascade(t *testing.T) {
	db, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	_, err = db.Exec(`INSERT INTO users (telegram_id, gender, age, height_cm, weight_kg, activity_level, daily_calories, created_at, updated_at)
		VALUES (7, 'female', 28, 165, 60, 'light', 1900, 0, 0)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO meals (telegram_id, meal_type, dish_name, calories, analysis_kind, eaten_at, created_at)
		VALUES (7, 'lunch', 'Суп', 300, 'text', 0, 0)`)
	require.NoError(t, err)

	_, err = db.Exec("DELETE FROM users WHERE telegram_id = 7")
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM meals").Scan(&n))
	assert.Equal(t, 0, n)
}
