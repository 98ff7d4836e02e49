// Package testutil provides database and fixture helpers for tests.
package testutil

import (
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/sds-catalog-api/internal/config"
	"github.com/straye-as/sds-catalog-api/internal/database"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var counter int64

// SetupTestDB opens a fresh in-memory SQLite database with the schema migrated.
// Set TEST_DATABASE_DRIVER=postgres (plus the usual DATABASE_* variables) to run
// against PostgreSQL instead; tables are then emptied on cleanup.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: ":memory:",
	}
	if os.Getenv("TEST_DATABASE_DRIVER") == "postgres" {
		cfg = &config.DatabaseConfig{
			Driver:       "postgres",
			Host:         getEnvOrDefault("DATABASE_HOST", "localhost"),
			Port:         5432,
			User:         getEnvOrDefault("DATABASE_USER", "sds_user"),
			Password:     getEnvOrDefault("DATABASE_PASSWORD", "sds_password"),
			Name:         getEnvOrDefault("DATABASE_NAME", "sds_catalog_test"),
			SSLMode:      "disable",
			MaxOpenConns: 5,
			MaxIdleConns: 2,
		}
	}

	db, err := database.NewDatabase(cfg)
	require.NoError(t, err, "failed to open test database")

	if cfg.Driver == "postgres" {
		require.NoError(t, database.AutoMigrate(db))
		t.Cleanup(func() { CleanupTestData(t, db) })
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// CleanupTestData empties all tables, children first
func CleanupTestData(t *testing.T, db *gorm.DB) {
	tables := []string{
		"import_runs",
		"veiligheidsbladen",
		"artikelen",
		"sessions",
		"users",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			t.Logf("Note: Could not clean table %s: %v", table, err)
		}
	}
}

// CreateTestArtikel stores an article with the given business id and name
func CreateTestArtikel(t *testing.T, db *gorm.DB, uniekeID, naam string) *domain.Artikel {
	t.Helper()
	ref := "RUB-" + uniekeID
	artikel := &domain.Artikel{
		UniekeID:        uniekeID,
		Naam:            naam,
		ReferentieRubix: &ref,
	}
	require.NoError(t, db.Omit("Veiligheidsbladen").Create(artikel).Error)
	return artikel
}

// CreateTestVeiligheidsblad stores a sheet version uploaded at the given time
func CreateTestVeiligheidsblad(t *testing.T, db *gorm.DB, artikel *domain.Artikel, taal domain.Taal, versie string, uploadedAt time.Time) *domain.Veiligheidsblad {
	t.Helper()
	blad := &domain.Veiligheidsblad{
		ArtikelID:    artikel.ID,
		Taal:         taal,
		Versie:       versie,
		StoragePath:  fmt.Sprintf("veiligheidsbladen/%s/%s/V%s/veiligheidsblad.pdf", artikel.UniekeID, taal, versie),
		Bestandsnaam: fmt.Sprintf("%s_%s_V%s.pdf", artikel.UniekeID, taal, versie),
		ContentType:  "application/pdf",
		GeuploadOp:   uploadedAt.UTC(),
	}
	require.NoError(t, db.Omit("Artikel").Create(blad).Error)
	return blad
}

// TestPassword is the password of users made by CreateTestUser
const TestPassword = "secret-password"

// CreateTestUser stores a user with TestPassword
func CreateTestUser(t *testing.T, db *gorm.DB, role domain.UserRole) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	n := atomic.AddInt64(&counter, 1)
	user := &domain.User{
		Email:        fmt.Sprintf("user%d-%s@example.com", n, uuid.NewString()[:8]),
		PasswordHash: string(hash),
		Naam:         fmt.Sprintf("Test User %d", n),
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
