package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shareit/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformBackup(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "source.db")
	backupDir := filepath.Join(tempDir, "backups")

	logger := zerolog.Nop()
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	createTestUser(t, db, "Alice", "alice@example.com")
	require.NoError(t, db.Close())

	svc := NewBackupService(dbPath, config.BackupConfig{
		Enabled:     true,
		StoragePath: backupDir,
	}, &logger)

	require.NoError(t, svc.PerformBackup())

	files, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0].Name(), "backup_")

	// Бэкап открывается как обычная база и содержит данные
	backup, err := NewDB(filepath.Join(backupDir, files[0].Name()), &logger)
	require.NoError(t, err)
	defer backup.Close()

	users, err := backup.GetAllUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCleanupOldBackups(t *testing.T) {
	backupDir := t.TempDir()

	oldFile := filepath.Join(backupDir, "backup_old.db")
	require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
	oldTime := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))

	freshFile := filepath.Join(backupDir, "backup_fresh.db")
	require.NoError(t, os.WriteFile(freshFile, []byte("fresh"), 0o644))

	logger := zerolog.Nop()
	svc := NewBackupService("unused.db", config.BackupConfig{
		Enabled:       true,
		RetentionDays: 7,
		StoragePath:   backupDir,
	}, &logger)

	svc.CleanupOldBackups()

	assert.NoFileExists(t, oldFile)
	assert.FileExists(t, freshFile)
}

func TestBackupService_DisabledDoesNothing(t *testing.T) {
	logger := zerolog.Nop()
	svc := NewBackupService("unused.db", config.BackupConfig{Enabled: false}, &logger)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// Возвращается сразу, без паник и без созданных файлов
	svc.Start(ctx)
}
