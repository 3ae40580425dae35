// Package testutil provides an in-memory database and fixtures shared by
// repository, service and handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"logistics/internal/database"
	"logistics/internal/middleware"
	"logistics/internal/model"
	"logistics/internal/period"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "test-secret"

// Tahsas2018 is a date inside Tahsas 2018 (an Odd month).
var Tahsas2018 = time.Date(2025, time.December, 20, 10, 0, 0, 0, time.UTC)

// FixedClock pins "now" for period defaults.
func FixedClock(t time.Time) period.Clock {
	return func() time.Time { return t }
}

// SetupTestDB opens a fresh in-memory SQLite database with the full schema.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, role string) *model.User {
	t.Helper()
	name := role + "-" + uuid.NewString()[:8]
	u := &model.User{
		Username: name,
		FullName: name,
		Email:    name + "@example.com",
		Password: "x",
		Role:     role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func CreateRoute(t *testing.T, db *gorm.DB, name string) *model.Route {
	t.Helper()
	r := &model.Route{Name: name}
	require.NoError(t, db.Create(r).Error)
	return r
}

// CreateFacility adds a facility on route with the given ordering cycle.
// An empty cycle leaves the facility unscheduled.
func CreateFacility(t *testing.T, db *gorm.DB, name string, route *model.Route, cycle string) *model.Facility {
	t.Helper()
	f := &model.Facility{Name: name, Code: name}
	if route != nil {
		f.RouteID = &route.ID
	}
	if cycle != "" {
		f.Period = &cycle
	}
	require.NoError(t, db.Create(f).Error)
	return f
}

// CreateProcess inserts a process in the given status with the listed ODNs.
func CreateProcess(t *testing.T, db *gorm.DB, facility *model.Facility, p period.ReportingPeriod, status string, odnNumbers ...string) *model.Process {
	t.Helper()
	proc := &model.Process{
		FacilityID:     facility.ID,
		ReportingMonth: p.String(),
		Status:         status,
	}
	require.NoError(t, db.Create(proc).Error)
	for _, n := range odnNumbers {
		odn := model.ODN{ProcessID: proc.ID, ODNNumber: n, Status: model.ODNStatusPending}
		require.NoError(t, db.Create(&odn).Error)
		proc.ODNs = append(proc.ODNs, odn)
	}
	return proc
}

func CreateVehicle(t *testing.T, db *gorm.DB, plate string) *model.Vehicle {
	t.Helper()
	v := &model.Vehicle{PlateNumber: plate, Status: model.VehicleStatusAvailable}
	require.NoError(t, db.Create(v).Error)
	return v
}

func CreateVehicleRequest(t *testing.T, db *gorm.DB, route *model.Route, p period.ReportingPeriod) *model.PIVehicleRequest {
	t.Helper()
	req := &model.PIVehicleRequest{
		RouteID:     route.ID,
		Month:       p.MonthName(),
		Year:        p.Year,
		RequestedAt: time.Now(),
	}
	require.NoError(t, db.Create(req).Error)
	return req
}

// CreateAssignment dispatches a fresh vehicle on route in the given status.
func CreateAssignment(t *testing.T, db *gorm.DB, route *model.Route, p period.ReportingPeriod, status string) *model.RouteAssignment {
	t.Helper()
	driver := CreateUser(t, db, model.RoleDriver)
	vehicle := CreateVehicle(t, db, "ET-"+uuid.NewString()[:6])
	a := &model.RouteAssignment{
		RouteID:        route.ID,
		VehicleID:      vehicle.ID,
		DriverID:       driver.ID,
		EthiopianMonth: p.String(),
		Status:         status,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

// GenerateTestToken signs a token the auth middleware accepts.
func GenerateTestToken(t *testing.T, userID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(JWTSecret))
	require.NoError(t, err)
	return s
}

// SetupRouter returns a test-mode engine using the test JWT secret.
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.SetJWTSecret(JWTSecret)
	return gin.New()
}

// DoRequest performs a JSON request against r.
func DoRequest(t *testing.T, r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Envelope mirrors response.Response with a raw data payload.
type Envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Details    json.RawMessage `json:"details"`
}

func ParseResponse(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}
