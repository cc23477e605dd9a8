package db

import (
	"path/filepath"
	"testing"

	"tablechat/internal/models"

	"github.com/stretchr/testify/require"
)

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect("oracle", "whatever")
	require.Error(t, err)
}

func TestConnect_SQLiteAndMigrate(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "sheets.db")
	gdb, err := Connect(DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	require.True(t, gdb.Migrator().HasTable(&models.Sheet{}))

	sheet := models.Sheet{Owner: "Joao", SheetData: `{"owner":"Joao"}`}
	require.NoError(t, gdb.Create(&sheet).Error)
	require.NotZero(t, sheet.ID)
}
