package database

import (
	"fmt"
	"log"

	config "qpms_backend/configs"
	"qpms_backend/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		// duplicate-key errors must surface as gorm.ErrDuplicatedKey so the
		// submission path can answer 409 instead of 500
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Department{},
		&models.Subject{},
		&models.Question{},
		&models.ApprovedQuestion{},
		&models.RejectedQuestion{},
		&models.CorrectedPaper{},
		&models.ArchivedQuestion{},
		&models.Assignment{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

func SeedSuperAdmin() {
	adminEmail := config.Config("SUPERADMIN_EMAIL")
	adminPassword := config.Config("SUPERADMIN_PASSWORD")

	var count int64
	err := DB.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error
	if err != nil {
		log.Fatalf("🔥 Failed to check for super admin user: %v", err)
		return
	}

	if count > 0 {
		log.Println("Super admin user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash super admin password: %v", err)
		return
	}

	adminUser := models.User{
		FullName: config.Config("SUPERADMIN_FULL_NAME"),
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     "admin",
	}

	if err := DB.Create(&adminUser).Error; err != nil {
		log.Fatalf("🔥 Failed to seed super admin user: %v", err)
		return
	}

	log.Println("✅ Super admin user seeded successfully")
}
