package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medshare-backend/internal/database"
	"medshare-backend/internal/middleware"
	"medshare-backend/internal/repository"
	"medshare-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const adminEmail = "admin@medshare.org"

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	medicineRepo := repository.NewMedicineRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	workflow := service.NewWorkflowService(
		medicineRepo, requestRepo, userRepo, auditRepo,
		txManager, nil, 7*24*time.Hour, zerolog.Nop(),
	)
	users := service.NewUserService(userRepo, []string{adminEmail}, middleware.GetJWTSecret())
	stats := service.NewStatsService(medicineRepo, requestRepo, userRepo)

	router := gin.New()
	NewAuthHandler(users).RegisterRoutes(router.Group(""))
	NewMedicineHandler(workflow).RegisterRoutes(router.Group(""))
	NewRequestHandler(workflow).RegisterRoutes(router.Group(""))
	NewAdminHandler(workflow, users, stats).RegisterRoutes(router.Group(""))

	return &testServer{router: router, db: db}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
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
	s.router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// signup registers an account with the given role and returns its
// bearer token.
func (s *testServer) signup(t *testing.T, name, email, role string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"name": name, "email": email, "password": "secret123", "role": role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func TestRegisterLoginMe(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signup(t, "Dana", "dana@example.com", "DONOR")

	w := srv.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var me struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &me))
	require.Equal(t, "dana@example.com", me.Email)
	require.Equal(t, "DONOR", me.Role)

	w = srv.do(t, http.MethodGet, "/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRegistrationRestricted(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"name": "Mallory", "email": "mallory@example.com", "password": "secret123", "role": "ADMIN",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"name": "Admin", "email": adminEmail, "password": "secret123", "role": "ADMIN",
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestDonationAndRequestFlow(t *testing.T) {
	srv := newTestServer(t)
	donorToken := srv.signup(t, "Dana", "dana@example.com", "DONOR")
	recipientToken := srv.signup(t, "Riley", "riley@example.com", "RECIPIENT")
	otherToken := srv.signup(t, "Quinn", "quinn@example.com", "RECIPIENT")
	adminToken := srv.signup(t, "Admin", adminEmail, "ADMIN")

	expiry := time.Now().AddDate(0, 2, 0).Format("2006-01-02")
	w := srv.do(t, http.MethodPost, "/medicines/add", donorToken, gin.H{
		"name": "Paracetamol", "category": "Pain Relief", "expiryDate": expiry, "quantity": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var med struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &med))

	w = srv.do(t, http.MethodGet, "/medicines", recipientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []json.RawMessage
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &listed))
	require.Len(t, listed, 1)

	w = srv.do(t, http.MethodPost, "/medicines/request/"+med.ID, recipientToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var request struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &request))
	require.Equal(t, "PENDING", request.Status)

	// The claimed lot is gone from the pool and conflicts for others.
	w = srv.do(t, http.MethodGet, "/medicines", recipientToken, nil)
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &listed))
	require.Empty(t, listed)

	w = srv.do(t, http.MethodPost, "/medicines/request/"+med.ID, otherToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPatch, "/requests/"+request.ID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var approved struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &approved))
	require.Equal(t, "APPROVED", approved.Status)

	// Double approval is a conflict.
	w = srv.do(t, http.MethodPatch, "/requests/"+request.ID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// The recipient sees the claim.
	w = srv.do(t, http.MethodGet, "/medicines/recipient/requests", recipientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &listed))
	require.Len(t, listed, 1)
}

func TestLotKeyedApproval(t *testing.T) {
	srv := newTestServer(t)
	donorToken := srv.signup(t, "Dana", "dana@example.com", "DONOR")
	recipientToken := srv.signup(t, "Riley", "riley@example.com", "RECIPIENT")
	adminToken := srv.signup(t, "Admin", adminEmail, "ADMIN")

	expiry := time.Now().AddDate(0, 2, 0).Format("2006-01-02")
	w := srv.do(t, http.MethodPost, "/medicines/add", donorToken, gin.H{
		"name": "Insulin", "expiryDate": expiry, "quantity": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var med struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &med))

	// No pending request yet.
	w = srv.do(t, http.MethodPut, "/medicines/approve/"+med.ID, adminToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(t, http.MethodPost, "/medicines/request/"+med.ID, recipientToken, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = srv.do(t, http.MethodPut, "/medicines/approve/"+med.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRoleEnforcement(t *testing.T) {
	srv := newTestServer(t)
	donorToken := srv.signup(t, "Dana", "dana@example.com", "DONOR")
	recipientToken := srv.signup(t, "Riley", "riley@example.com", "RECIPIENT")

	expiry := time.Now().AddDate(0, 1, 0).Format("2006-01-02")

	// Recipients cannot donate.
	w := srv.do(t, http.MethodPost, "/medicines/add", recipientToken, gin.H{
		"name": "Aspirin", "expiryDate": expiry, "quantity": 1,
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	// Donors cannot approve.
	w = srv.do(t, http.MethodGet, "/requests", donorToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// Anonymous callers get 401 on protected routes.
	w = srv.do(t, http.MethodPost, "/medicines/add", "", gin.H{
		"name": "Aspirin", "expiryDate": expiry, "quantity": 1,
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(t, http.MethodGet, "/admin/stats", recipientToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestListingRequiresAuth(t *testing.T) {
	srv := newTestServer(t)
	donorToken := srv.signup(t, "Dana", "dana@example.com", "DONOR")

	expiry := time.Now().AddDate(0, 2, 0).Format("2006-01-02")
	w := srv.do(t, http.MethodPost, "/medicines/add", donorToken, gin.H{
		"name": "Aspirin", "expiryDate": expiry, "quantity": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// The inventory is never readable anonymously.
	w = srv.do(t, http.MethodGet, "/medicines", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(t, http.MethodGet, "/medicines/search?name=asp", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Any authenticated role may read it.
	w = srv.do(t, http.MethodGet, "/medicines", donorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestDonateIsDonorOnly(t *testing.T) {
	srv := newTestServer(t)
	adminToken := srv.signup(t, "Admin", adminEmail, "ADMIN")

	expiry := time.Now().AddDate(0, 2, 0).Format("2006-01-02")
	w := srv.do(t, http.MethodPost, "/medicines/add", adminToken, gin.H{
		"name": "Aspirin", "expiryDate": expiry, "quantity": 1,
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(t, http.MethodGet, "/medicines/donor/medicines", adminToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	recipientToken := srv.signup(t, "Riley", "riley@example.com", "RECIPIENT")

	// Unknown medicine.
	w := srv.do(t, http.MethodPost, "/medicines/request/6f1e0c93-5d5f-4f51-9a1a-77c0e1f2ab01", recipientToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// Malformed UUID.
	w = srv.do(t, http.MethodPost, "/medicines/request/not-a-uuid", recipientToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Malformed payload.
	w = srv.do(t, http.MethodPost, "/auth/register", "", gin.H{"email": "x@example.com"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMedicineSearch(t *testing.T) {
	srv := newTestServer(t)
	donorToken := srv.signup(t, "Dana", "dana@example.com", "DONOR")

	expiry := time.Now().AddDate(0, 2, 0).Format("2006-01-02")
	for _, name := range []string{"Amoxicillin", "Cetirizine"} {
		w := srv.do(t, http.MethodPost, "/medicines/add", donorToken, gin.H{
			"name": name, "expiryDate": expiry, "quantity": 1,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	// The filters apply on the listing route itself and on its alias.
	for _, path := range []string{"/medicines?name=amox", "/medicines/search?name=amox"} {
		w := srv.do(t, http.MethodGet, path, donorToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var listed []struct {
			Name string `json:"name"`
		}
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &listed))
		require.Len(t, listed, 1, path)
		require.Equal(t, "Amoxicillin", listed[0].Name)
	}
}

func TestAdminEndpoints(t *testing.T) {
	srv := newTestServer(t)
	donorToken := srv.signup(t, "Dana", "dana@example.com", "DONOR")
	adminToken := srv.signup(t, "Admin", adminEmail, "ADMIN")

	// One fresh lot, one already past expiry.
	expiry := time.Now().AddDate(0, 2, 0).Format("2006-01-02")
	w := srv.do(t, http.MethodPost, "/medicines/add", donorToken, gin.H{
		"name": "Fresh", "expiryDate": expiry, "quantity": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w = srv.do(t, http.MethodPost, "/medicines/add", donorToken, gin.H{
		"name": "Stale", "expiryDate": time.Now().AddDate(0, 0, -1).Format("2006-01-02"), "quantity": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = srv.do(t, http.MethodPost, "/admin/sweep", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sweep struct {
		Expired int64 `json:"expired"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &sweep))
	require.EqualValues(t, 1, sweep.Expired)

	w = srv.do(t, http.MethodGet, "/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		TotalUsers     int64  `json:"totalUsers"`
		TotalDonations int64  `json:"totalDonations"`
		ApprovalRate   string `json:"approvalRate"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &stats))
	require.EqualValues(t, 2, stats.TotalUsers)
	require.EqualValues(t, 2, stats.TotalDonations)
	require.Equal(t, "0.00", stats.ApprovalRate)

	w = srv.do(t, http.MethodGet, "/admin/medicines?page=1&limit=10", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Medicines []json.RawMessage `json:"medicines"`
		Total     int64             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &page))
	require.Len(t, page.Medicines, 2)
	require.EqualValues(t, 2, page.Total)

	w = srv.do(t, http.MethodGet, "/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/admin/analytics/overview", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdminAuditLogs(t *testing.T) {
	srv := newTestServer(t)
	donorToken := srv.signup(t, "Dana", "dana@example.com", "DONOR")
	adminToken := srv.signup(t, "Admin", adminEmail, "ADMIN")

	expiry := time.Now().AddDate(0, 2, 0).Format("2006-01-02")
	w := srv.do(t, http.MethodPost, "/medicines/add", donorToken, gin.H{
		"name": "Paracetamol", "expiryDate": expiry, "quantity": 3,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = srv.do(t, http.MethodGet, "/admin/audit-logs?page=1&limit=10", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page struct {
		Logs []struct {
			Action     string `json:"action"`
			EntityName string `json:"entity_name"`
			UserName   string `json:"user_name"`
		} `json:"logs"`
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &page))
	require.EqualValues(t, 1, page.Total)
	require.Len(t, page.Logs, 1)
	require.Equal(t, "DONATE_MEDICINE", page.Logs[0].Action)
	require.Equal(t, "Paracetamol", page.Logs[0].EntityName)
	require.Equal(t, "Dana", page.Logs[0].UserName)

	w = srv.do(t, http.MethodGet, "/admin/audit-logs", donorToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateMedicineOwnershipHTTP(t *testing.T) {
	srv := newTestServer(t)
	donorToken := srv.signup(t, "Dana", "dana@example.com", "DONOR")
	otherToken := srv.signup(t, "Drew", "drew@example.com", "DONOR")

	expiry := time.Now().AddDate(0, 2, 0).Format("2006-01-02")
	w := srv.do(t, http.MethodPost, "/medicines/add", donorToken, gin.H{
		"name": "Gabapentin", "expiryDate": expiry, "quantity": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var med struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &med))

	w = srv.do(t, http.MethodPut, "/medicines/update/"+med.ID, otherToken, gin.H{"quantity": 9})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(t, http.MethodPut, "/medicines/update/"+med.ID, donorToken, gin.H{"quantity": 9})
	require.Equal(t, http.StatusOK, w.Code)
	var updated struct {
		Quantity int `json:"quantity"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &updated))
	require.Equal(t, 9, updated.Quantity)
}

func TestHealthStyleEnvelope(t *testing.T) {
	srv := newTestServer(t)
	donorToken := srv.signup(t, "Dana", "dana@example.com", "DONOR")

	w := srv.do(t, http.MethodGet, "/medicines/donor/medicines", donorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	require.Equal(t, "success", env.Status)
	require.Empty(t, env.Error)

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/medicines/update/%s", "zzz"), donorToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code) // no GET route registered
}
