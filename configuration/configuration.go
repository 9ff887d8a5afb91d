package configuration

import (
	"medibook/models"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB holds the connection to the data store.
var DB *gorm.DB

// ConfigDB loads the environment and opens the Postgres connection.
func ConfigDB() {
	if err := godotenv.Load(".env"); err != nil {
		logrus.Warn("no .env file found, relying on process environment")
	}
	dsn := os.Getenv("DB")

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to the database")
	}

	if err := Migrate(DB); err != nil {
		logrus.WithError(err).Fatal("failed to migrate the database")
	}
	seedAdmin()
}

// Migrate creates the schema, including the partial unique index that is
// the authoritative guard against double-booking a slot: at most one
// non-cancelled appointment per (doctor, date, start time).
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Doctor{},
		&models.Patient{},
		&models.Admin{},
		&models.Appointment{},
		&models.Payment{},
	); err != nil {
		return err
	}
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_active_slot
		 ON appointments (doctor_id, date, slot_start_time)
		 WHERE status <> 'cancelled'`,
	).Error
}

// seedAdmin creates the initial admin account from the environment when the
// admins table is empty.
func seedAdmin() {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}

	var count int64
	if err := DB.Model(&models.Admin{}).Count(&count).Error; err != nil || count > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("failed to hash admin password")
		return
	}
	admin := models.Admin{Name: "Admin", Email: email, Password: string(hash)}
	if err := DB.Create(&admin).Error; err != nil {
		logrus.WithError(err).Error("failed to seed admin account")
	}
}
