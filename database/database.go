package database

import (
	"fmt"
	"log"

	"tuition-billing/internal/domain/billing"
	"tuition-billing/internal/domain/courses"
	"tuition-billing/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Config is shared by every connection so unique-constraint violations surface as gorm.ErrDuplicatedKey.
func Config() *gorm.Config {
	return &gorm.Config{TranslateError: true}
}

func InitDB(dsn string) *gorm.DB {
	if dsn == "" {
		log.Fatal("❌ DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), Config())
	if err != nil {
		log.Fatal("❌ Failed to connect to database:", err)
	}

	DB = db

	if err := Migrate(DB); err != nil {
		log.Fatal("❌ AutoMigrate error:", err)
	}

	fmt.Println("✅ Connected and migrated successfully")
	return DB
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&courses.Course{},
		&billing.Invoice{},
		&billing.Payment{},
	)
}
