package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skiipper/internal/models"
	"skiipper/internal/repository"
)

func TestBackupRoundTrip(t *testing.T) {
	src := openTestDB(t)
	users := repository.NewUserRepository(src)
	habits := repository.NewHabitRepository(src)

	ada, err := users.CreateUser("ada@example.com", "hash", "Ada", true)
	require.NoError(t, err)
	require.NoError(t, users.LinkOAuthProvider(ada.ID, "google", "g-1"))
	h := coffeeHabit()
	h.UserID = ada.ID
	require.NoError(t, habits.CreateHabit(h))
	require.NoError(t, habits.AddSkip(&models.SkipRecord{
		HabitID:     h.ID,
		UserID:      ada.ID,
		SkipDate:    wednesday,
		DayCode:     "wed",
		AmountSaved: dec("5"),
	}))

	var buf bytes.Buffer
	exported, err := NewBackupService(src).ExportToWriter(&buf)
	require.NoError(t, err)
	assert.Len(t, exported.Users, 1)
	assert.Equal(t, "hash", exported.Users[0].PasswordHash)

	dst := openTestDB(t)
	backup := NewBackupService(dst)
	data := buf.Bytes()
	imported, err := backup.ImportFromReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, imported.Skips, 1)

	restored, err := repository.NewUserRepository(dst).GetUserByOAuth("google", "g-1")
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, ada.ID, restored.ID)
	assert.True(t, restored.IsAdmin)

	skips, err := repository.NewHabitRepository(dst).ListSkips(h.ID)
	require.NoError(t, err)
	require.Len(t, skips, 1)
	assert.True(t, skips[0].AmountSaved.Equal(dec("5")))
	assert.True(t, skips[0].SkipDate.Equal(wednesday))

	// A second import collides on ids and leaves nothing half-written.
	_, err = backup.ImportFromReader(bytes.NewReader(data))
	assert.Error(t, err)
	all, err := repository.NewUserRepository(dst).GetAllUsers()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// New rows continue after the restored ids.
	next, err := repository.NewUserRepository(dst).CreateUser("bob@example.com", "", "Bob", false)
	require.NoError(t, err)
	assert.Greater(t, next.ID, ada.ID)
}

func TestBackupRejectsUnknownVersion(t *testing.T) {
	_, err := NewBackupService(openTestDB(t)).ImportFromReader(bytes.NewBufferString(`{"version":"9"}`))
	assert.ErrorContains(t, err, "unsupported backup version")
}
