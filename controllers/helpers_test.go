package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"medibook/authentication"
	"medibook/configuration"
	"medibook/models"
	"medibook/routes"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// setup gives each test its own named in-memory database and Redis, then
// returns the full router. Shared cache keeps gorm's pooled connections on
// the same database.
func setup(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, configuration.Migrate(db))
	configuration.DB = db

	mr := miniredis.RunT(t)
	configuration.Client = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return routes.SetupRouter()
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func seedDoctor(t *testing.T, name, email, specialization string, fee float64) models.Doctor {
	t.Helper()
	doctor := models.Doctor{
		Name:            name,
		Email:           email,
		Password:        hashPassword(t, "password123"),
		Specialization:  specialization,
		Qualification:   "MBBS, MD",
		Experience:      8,
		ConsultationFee: fee,
	}
	require.NoError(t, configuration.DB.Create(&doctor).Error)
	return doctor
}

func seedPatient(t *testing.T, name, email string) models.Patient {
	t.Helper()
	patient := models.Patient{
		Name:     name,
		Email:    email,
		Password: hashPassword(t, "password123"),
	}
	require.NoError(t, configuration.DB.Create(&patient).Error)
	return patient
}

func seedAdmin(t *testing.T, email string) models.Admin {
	t.Helper()
	admin := models.Admin{
		Name:     "Admin",
		Email:    email,
		Password: hashPassword(t, "password123"),
	}
	require.NoError(t, configuration.DB.Create(&admin).Error)
	return admin
}

func patientToken(t *testing.T, p models.Patient) string {
	t.Helper()
	token, err := authentication.GenerateToken(p.PatientID, p.Email, models.RolePatient)
	require.NoError(t, err)
	return token
}

func doctorToken(t *testing.T, d models.Doctor) string {
	t.Helper()
	token, err := authentication.GenerateToken(d.DoctorID, d.Email, models.RoleDoctor)
	require.NoError(t, err)
	return token
}

func adminToken(t *testing.T, a models.Admin) string {
	t.Helper()
	token, err := authentication.GenerateToken(a.AdminID, a.Email, models.RoleAdmin)
	require.NoError(t, err)
	return token
}

// perform runs one request through the router.
func perform(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), "body: %s", w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	decode(t, w, &body)
	return body.Code
}

func tomorrow() string {
	return time.Now().AddDate(0, 0, 1).Format("2006-01-02")
}

// bookSlot books an appointment through the direct endpoint and returns it.
func bookSlot(t *testing.T, r *gin.Engine, token string, doctorID uint, date, start, end, symptom string) models.Appointment {
	t.Helper()
	w := perform(t, r, "POST", "/appointments", token, gin.H{
		"doctorId": doctorID,
		"date":     date,
		"timeSlot": gin.H{"startTime": start, "endTime": end},
		"symptom":  symptom,
	})
	require.Equal(t, 201, w.Code, "body: %s", w.Body.String())
	var appointment models.Appointment
	decode(t, w, &appointment)
	return appointment
}
