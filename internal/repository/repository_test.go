package repository

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/flagforge/flagforge-api/internal/models"
)

var testDBCounter atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Challenge{},
		&models.Hint{},
		&models.ChallengeFile{},
		&models.Solve{},
		&models.Submission{},
	))

	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, role models.Role, score int) models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: "irrelevant",
		Role:         role,
		Score:        score,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedChallenge(t *testing.T, db *gorm.DB, name string, ownerID uint) models.Challenge {
	t.Helper()
	challenge := models.Challenge{
		Name:        name,
		Description: "test",
		Category:    models.CategoryMisc,
		Points:      100,
		Difficulty:  models.DifficultyEasy,
		FlagCipher:  "deadbeef",
		FlagIV:      "00112233445566778899aabbccddeeff",
		IsVisible:   true,
		CreatedByID: ownerID,
	}
	require.NoError(t, db.Create(&challenge).Error)
	return challenge
}
