package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/cbt-go-api/internal/config"
	"github.com/noah-isme/cbt-go-api/internal/database"
	"github.com/noah-isme/cbt-go-api/internal/models"
)

// migratepw is a one-off maintenance command that replaces legacy plaintext
// passwords with bcrypt hashes. Profiles already holding a hash are left
// untouched, so the command is safe to re-run.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var profiles []models.Profile
	if err := db.WithContext(ctx).Find(&profiles).Error; err != nil {
		log.Fatalf("failed to load profiles: %v", err)
	}

	var migrated, skipped, failed int
	for _, profile := range profiles {
		if profile.HasHashedPassword() {
			skipped++
			continue
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(profile.Password), bcrypt.DefaultCost)
		if err != nil {
			failed++
			color.Red("  %s: %v", profile.Username, err)
			continue
		}

		if err := db.WithContext(ctx).Model(&models.Profile{}).
			Where("id = ?", profile.ID).
			Update("password", string(hashed)).Error; err != nil {
			failed++
			color.Red("  %s: %v", profile.Username, err)
			continue
		}

		migrated++
		color.Green("  %s migrated", profile.Username)
	}

	fmt.Println()
	color.Green("migrated: %d", migrated)
	color.Yellow("skipped:  %d (already hashed)", skipped)
	if failed > 0 {
		color.Red("failed:   %d", failed)
		os.Exit(1)
	}
}
