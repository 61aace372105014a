package database

import (
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dailyreport/models"
)

var DB *gorm.DB

func Init(dsn string) error {
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	if err := Migrate(DB); err != nil {
		return err
	}

	if err := seedDefaultAdmin(); err != nil {
		return err
	}

	return seedDefaultGroups()
}

// Migrate applies the schema. Exposed so tests can run it against their
// own connection.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.UserProfile{},
		&models.Report{},
		&models.ReportDetail{},
	)
}

func seedDefaultAdmin() error {
	var count int64
	DB.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count > 0 {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:           "admin",
		FullName:           "Administrator",
		PasswordHash:       string(hashedPassword),
		Role:               models.RoleAdmin,
		MustChangePassword: true,
	}

	if result := DB.Create(&admin); result.Error != nil {
		return result.Error
	}

	log.Println("Default admin user created (username: admin, password: admin)")
	return nil
}

// seedDefaultGroups creates the standard work cohorts if they are missing.
func seedDefaultGroups() error {
	for _, name := range []string{"pattern-a", "pattern-b", "pattern-c", "pattern-d"} {
		var count int64
		DB.Model(&models.Group{}).Where("name = ?", name).Count(&count)
		if count > 0 {
			continue
		}
		if err := DB.Create(&models.Group{Name: name}).Error; err != nil {
			return err
		}
	}
	return nil
}

func GetDB() *gorm.DB {
	return DB
}
