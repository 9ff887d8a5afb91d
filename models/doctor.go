package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Doctor struct {
	DoctorID        uint      `json:"id" gorm:"primaryKey"`
	Name            string    `json:"name" gorm:"not null" validate:"required"`
	Email           string    `json:"email" gorm:"unique;not null" validate:"required,email"`
	Phone           string    `json:"phone,omitempty"`
	Password        string    `json:"password,omitempty" validate:"required,min=6"`
	Specialization  string    `json:"specialization" gorm:"not null" validate:"required"`
	Qualification   string    `json:"qualification" gorm:"not null" validate:"required"`
	Experience      int       `json:"experience" validate:"gte=0"`
	Bio             string    `json:"bio,omitempty"`
	ConsultationFee float64   `json:"consultationFee" gorm:"not null" validate:"required,gt=0"`
	Rating          float64   `json:"rating,omitempty"`
	Image           string    `json:"image,omitempty"`
	CreatedAt       time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

type Patient struct {
	PatientID      uint      `json:"id" gorm:"primaryKey"`
	Name           string    `json:"name" gorm:"not null" validate:"required"`
	Email          string    `json:"email" gorm:"unique;not null" validate:"required,email"`
	Phone          string    `json:"phone,omitempty"`
	Password       string    `json:"password,omitempty" validate:"required,min=6"`
	DateOfBirth    string    `json:"dateOfBirth,omitempty"`
	Gender         string    `json:"gender,omitempty"`
	Address        string    `json:"address,omitempty"`
	MedicalHistory string    `json:"medicalHistory,omitempty"`
	Image          string    `json:"image,omitempty"`
	CreatedAt      time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

type Admin struct {
	AdminID   uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	Email     string    `json:"email" gorm:"unique;not null"`
	Password  string    `json:"password,omitempty"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// UserClaims is the single JWT claim set for all three roles.
type UserClaims struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}
