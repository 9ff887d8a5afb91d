package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"medibook/apperrors"
	"medibook/authentication"
	"medibook/configuration"
	"medibook/models"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var validate = validator.New()

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// Login authenticates an identity against the store for its role and issues
// a bearer token. A mismatched email, password or role all collapse into the
// same invalid-credentials answer.
func Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation("INVALID_REQUEST", "email, password and role are required"))
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		apperrors.Respond(c, apperrors.Validation("INVALID_ROLE", "role must be patient, doctor or admin"))
		return
	}

	invalid := apperrors.Auth("INVALID_CREDENTIALS", "invalid email or password")

	var (
		id       uint
		hash     string
		identity any
	)
	switch role {
	case models.RolePatient:
		var patient models.Patient
		if err := configuration.DB.Where("email = ?", req.Email).First(&patient).Error; err != nil {
			apperrors.Respond(c, invalid)
			return
		}
		id, hash = patient.PatientID, patient.Password
		patient.Password = ""
		identity = patient
	case models.RoleDoctor:
		var doctor models.Doctor
		if err := configuration.DB.Where("email = ?", req.Email).First(&doctor).Error; err != nil {
			apperrors.Respond(c, invalid)
			return
		}
		id, hash = doctor.DoctorID, doctor.Password
		doctor.Password = ""
		identity = doctor
	case models.RoleAdmin:
		var admin models.Admin
		if err := configuration.DB.Where("email = ?", req.Email).First(&admin).Error; err != nil {
			apperrors.Respond(c, invalid)
			return
		}
		id, hash = admin.AdminID, admin.Password
		admin.Password = ""
		identity = admin
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		apperrors.Respond(c, invalid)
		return
	}

	token, err := authentication.GenerateToken(id, req.Email, role)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to generate token", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": withRole(identity, role)})
}

// Register creates a new patient or doctor account and behaves like Login on
// success. Role-specific required fields are validated before anything is
// written.
func Register(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apperrors.Respond(c, apperrors.Validation("INVALID_REQUEST", "could not read request body"))
		return
	}

	var base struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(body, &base); err != nil {
		apperrors.Respond(c, apperrors.Validation("INVALID_REQUEST", "request body must be JSON"))
		return
	}
	role, err := models.ParseRole(base.Role)
	if err != nil {
		apperrors.Respond(c, apperrors.Validation("INVALID_ROLE", "role must be patient, doctor or admin"))
		return
	}

	switch role {
	case models.RolePatient:
		registerPatient(c, body)
	case models.RoleDoctor:
		registerDoctor(c, body)
	case models.RoleAdmin:
		apperrors.Respond(c, apperrors.Validation("INVALID_ROLE", "admin accounts cannot be self-registered"))
	}
}

func registerPatient(c *gin.Context, body []byte) {
	var patient models.Patient
	if err := json.Unmarshal(body, &patient); err != nil {
		apperrors.Respond(c, apperrors.Validation("INVALID_REQUEST", "request body must be JSON"))
		return
	}
	if err := validate.Struct(patient); err != nil {
		apperrors.Respond(c, apperrors.Validation("MISSING_FIELDS", "please fill all the mandatory fields"))
		return
	}
	if err := ensureEmailFree(patient.Email); err != nil {
		apperrors.Respond(c, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(patient.Password), bcrypt.DefaultCost)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to hash password", err))
		return
	}
	patient.Password = string(hash)

	if err := configuration.DB.Create(&patient).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to create patient", err))
		return
	}

	token, err := authentication.GenerateToken(patient.PatientID, patient.Email, models.RolePatient)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to generate token", err))
		return
	}
	patient.Password = ""
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": withRole(patient, models.RolePatient)})
}

func registerDoctor(c *gin.Context, body []byte) {
	var doctor models.Doctor
	if err := json.Unmarshal(body, &doctor); err != nil {
		apperrors.Respond(c, apperrors.Validation("INVALID_REQUEST", "request body must be JSON"))
		return
	}
	if err := validate.Struct(doctor); err != nil {
		apperrors.Respond(c, apperrors.Validation("MISSING_FIELDS", "please fill all the mandatory fields, including specialization, qualification and consultation fee"))
		return
	}
	if err := ensureEmailFree(doctor.Email); err != nil {
		apperrors.Respond(c, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(doctor.Password), bcrypt.DefaultCost)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to hash password", err))
		return
	}
	doctor.Password = string(hash)

	if err := configuration.DB.Create(&doctor).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to create doctor", err))
		return
	}

	token, err := authentication.GenerateToken(doctor.DoctorID, doctor.Email, models.RoleDoctor)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to generate token", err))
		return
	}
	doctor.Password = ""
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": withRole(doctor, models.RoleDoctor)})
}

// ensureEmailFree checks the email against both account tables so an address
// identifies exactly one identity regardless of role.
func ensureEmailFree(email string) error {
	var patient models.Patient
	if err := configuration.DB.Where("email = ?", email).First(&patient).Error; err == nil {
		return apperrors.Conflict("EMAIL_IN_USE", "email already in use")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Internal("database error", err)
	}
	var doctor models.Doctor
	if err := configuration.DB.Where("email = ?", email).First(&doctor).Error; err == nil {
		return apperrors.Conflict("EMAIL_IN_USE", "email already in use")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Internal("database error", err)
	}
	return nil
}

// Profile resolves the request's bearer token back into its identity. The
// client calls this once at startup to restore a persisted session.
func Profile(c *gin.Context) {
	userID, role := authentication.CurrentUser(c)

	switch role {
	case models.RolePatient:
		var patient models.Patient
		if err := configuration.DB.First(&patient, userID).Error; err != nil {
			apperrors.Respond(c, apperrors.Auth("UNKNOWN_IDENTITY", "session identity no longer exists"))
			return
		}
		patient.Password = ""
		c.JSON(http.StatusOK, withRole(patient, role))
	case models.RoleDoctor:
		var doctor models.Doctor
		if err := configuration.DB.First(&doctor, userID).Error; err != nil {
			apperrors.Respond(c, apperrors.Auth("UNKNOWN_IDENTITY", "session identity no longer exists"))
			return
		}
		doctor.Password = ""
		c.JSON(http.StatusOK, withRole(doctor, role))
	case models.RoleAdmin:
		var admin models.Admin
		if err := configuration.DB.First(&admin, userID).Error; err != nil {
			apperrors.Respond(c, apperrors.Auth("UNKNOWN_IDENTITY", "session identity no longer exists"))
			return
		}
		admin.Password = ""
		c.JSON(http.StatusOK, withRole(admin, role))
	}
}

// Logout denylists the current token for the rest of its validity. Calling
// it again with the same token is a no-op.
func Logout(c *gin.Context) {
	tokenVal, _ := c.Get(authentication.CtxToken)
	token, _ := tokenVal.(string)
	if err := configuration.RevokeToken(token, authentication.TokenTTL(c)); err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to revoke token", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "successfully logged out"})
}

// withRole tags an identity struct with its role for the wire, since the
// role lives on the account table, not in a column.
func withRole(identity any, role models.Role) gin.H {
	raw, _ := json.Marshal(identity)
	out := gin.H{}
	_ = json.Unmarshal(raw, &out)
	out["role"] = role
	return out
}
