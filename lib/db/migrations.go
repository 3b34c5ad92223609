package db

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/moviemate/moviemate/models"
	"gorm.io/gorm"
)

// RunMigrations brings the schema up to date and applies the SQLite
// pragmas the store relies on. foreign_keys=ON in particular backs the
// cascade constraints on reviews and watch history.
func RunMigrations(db *gorm.DB, logger *slog.Logger) error {
	ctx := context.Background()

	if err := enableSQLiteOptimizations(ctx, db, logger); err != nil {
		return fmt.Errorf("failed to enable SQLite optimizations: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Content{},
		&models.Movie{},
		&models.TVShow{},
		&models.Review{},
		&models.WatchHistory{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := createAdditionalIndexes(ctx, db, logger); err != nil {
		return fmt.Errorf("failed to create additional indexes: %w", err)
	}

	return nil
}

// enableSQLiteOptimizations enables SQLite-specific optimizations
func enableSQLiteOptimizations(ctx context.Context, db *gorm.DB, logger *slog.Logger) error {
	optimizations := []string{
		"PRAGMA journal_mode=WAL",    // Enable WAL mode for better concurrency
		"PRAGMA synchronous=NORMAL",  // Faster writes while maintaining safety
		"PRAGMA foreign_keys=ON",     // Enable foreign key constraints
		"PRAGMA temp_store=MEMORY",   // Store temporary tables in memory
		"PRAGMA mmap_size=134217728", // Enable memory-mapped I/O (128MB)
	}

	for _, pragma := range optimizations {
		if err := db.WithContext(ctx).Exec(pragma).Error; err != nil {
			logger.Warn("Failed to execute pragma", slog.String("pragma", pragma), slog.Any("error", err))
		} else {
			logger.Debug("Executed pragma", slog.String("pragma", pragma))
		}
	}

	return nil
}

// createAdditionalIndexes creates composite indexes for the listing and
// recommendation queries.
func createAdditionalIndexes(ctx context.Context, db *gorm.DB, logger *slog.Logger) error {
	additionalIndexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_contents_genre_platform ON contents(genre, platform)",
		"CREATE INDEX IF NOT EXISTS idx_contents_status_created ON contents(status, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_content_rating ON reviews(content_id, rating)",
		"CREATE INDEX IF NOT EXISTS idx_watch_history_content_date ON watch_history(content_id, date_watched)",
	}

	for _, indexSQL := range additionalIndexes {
		if err := db.WithContext(ctx).Exec(indexSQL).Error; err != nil {
			logger.Warn("Failed to create index", slog.String("sql", indexSQL), slog.Any("error", err))
		} else {
			logger.Debug("Created index", slog.String("sql", indexSQL))
		}
	}

	return nil
}
