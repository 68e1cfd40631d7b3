package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arnavshah/shift-picker-go/internal/testutils"
	"github.com/arnavshah/shift-picker-go/pkg/auth"
	"github.com/arnavshah/shift-picker-go/pkg/database"
	"github.com/arnavshah/shift-picker-go/pkg/picker"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var clock = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	h      *Handler
	router *gin.Engine
}

func newEnv(t *testing.T, signingSecret string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutils.NewDB(t)
	svc := picker.NewService(db, zap.NewNop(), 24*time.Hour)
	svc.Now = func() time.Time { return clock }

	h := New(db, auth.New("jwt-secret", "master-secret", signingSecret), svc, zap.NewNop())
	r := gin.New()
	h.Register(r)
	return &testEnv{h: h, router: r}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seedPicker(t *testing.T) *database.Picker {
	t.Helper()
	p := testutils.NewPicker(clock)
	require.NoError(t, database.CreatePicker(context.Background(), e.h.DB, p))
	return p
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func adminHeader(t *testing.T, e *testEnv) map[string]string {
	token, err := e.h.Auth.CreateToken("admin")
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestSubmitPreferences_StatusCodes(t *testing.T) {
	e := newEnv(t, "")
	p := e.seedPicker(t)
	path := "/api/shift-picker/preferences"

	w := e.do(t, http.MethodPost, path, map[string]any{"pickerId": p.ID}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields", decode(t, w)["error"])

	w = e.do(t, http.MethodPost, path, gin.H{"pickerId": "nope", "staffId": "alice", "preferences": gin.H{}}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodPost, path, gin.H{"pickerId": p.ID, "staffId": "mallory", "preferences": gin.H{}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, path, gin.H{
		"pickerId":    p.ID,
		"staffId":     "alice",
		"preferences": gin.H{"2025-01-06:morning": "preferred"},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["isComplete"])

	w = e.do(t, http.MethodPost, path, gin.H{"pickerId": p.ID, "staffId": "alice", "preferences": gin.H{}}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, path, gin.H{"pickerId": p.ID, "staffId": "bob", "preferences": gin.H{}}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["isComplete"])

	w = e.do(t, http.MethodPost, path, gin.H{"pickerId": p.ID, "staffId": "bob", "preferences": gin.H{}}, nil)
	assert.Equal(t, http.StatusGone, w.Code)

	w = e.do(t, http.MethodGet, "/api/shift-picker/"+p.ID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, true, body["is_complete"])
	assert.NotNil(t, body["allocation"])

	w = e.do(t, http.MethodGet, "/api/shift-picker/"+p.ID+"/export?format=csv", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "2025-01-06,morning,2025-01-06:morning,alice,Alice")
}

func TestSubmitPreferences_Expired(t *testing.T) {
	e := newEnv(t, "")
	p := e.seedPicker(t)
	e.h.Pickers.Now = func() time.Time { return p.ExpiresAt.Add(time.Second) }

	w := e.do(t, http.MethodPost, "/api/shift-picker/preferences",
		gin.H{"pickerId": p.ID, "staffId": "alice", "preferences": gin.H{}}, nil)
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestSubmitPreferences_StaffToken(t *testing.T) {
	e := newEnv(t, "signing-secret")
	p := e.seedPicker(t)
	body := gin.H{"pickerId": p.ID, "staffId": "alice", "preferences": gin.H{}}

	w := e.do(t, http.MethodPost, "/api/shift-picker/preferences", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodGet, "/admin/pickers/"+p.ID+"/tokens", nil, adminHeader(t, e))
	require.Equal(t, http.StatusOK, w.Code)
	tokens := decode(t, w)["tokens"].(map[string]any)

	w = e.do(t, http.MethodPost, "/api/shift-picker/preferences", body,
		map[string]string{staffTokenHeader: tokens["alice"].(string)})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreatePicker(t *testing.T) {
	e := newEnv(t, "")
	input := gin.H{
		"name":      "Week 2",
		"shifts":    []string{"early", "late"},
		"startDate": "2025-01-06",
		"endDate":   "2025-01-08",
		"staff":     []gin.H{{"id": "a", "name": "A"}, {"id": "b", "name": "B"}},
	}

	w := e.do(t, http.MethodPost, "/admin/pickers", input, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodPost, "/admin/pickers", input, adminHeader(t, e))
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	assert.Equal(t, "admin", created["created_by"])
	assert.Len(t, created["dates"], 3)

	input["shifts"] = []string{"early", "early"}
	w = e.do(t, http.MethodPost, "/admin/pickers", input, adminHeader(t, e))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/admin/pickers", nil, adminHeader(t, e))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["pickers"], 1)
}

func TestLogin(t *testing.T) {
	auth.PasswordCost = bcrypt.MinCost
	e := newEnv(t, "")
	require.NoError(t, auth.EnsureAdminExists(e.h.DB, "admin", "secret", zap.NewNop()))

	w := e.do(t, http.MethodPost, "/admin/login", gin.H{"username": "admin", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodPost, "/admin/login", gin.H{"username": "admin", "password": "secret"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["access_token"])
}

func TestAllocateJSON_RequiresKeyAndRecordsUsage(t *testing.T) {
	e := newEnv(t, "")
	input := gin.H{
		"staff":       []gin.H{{"id": "A"}, {"id": "B"}},
		"dates":       []string{"mon"},
		"shifts":      []string{"morning", "evening"},
		"preferences": gin.H{"A": gin.H{"mon:morning": "preferred"}},
	}

	w := e.do(t, http.MethodPost, "/api/allocate", input, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	key := map[string]string{"Authorization": "Bearer " + e.h.Auth.GenerateHMACKey("acme")}
	w = e.do(t, http.MethodPost, "/api/allocate", input, key)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Allocation struct {
			Assignments map[string][]string `json:"assignments"`
		} `json:"allocation"`
		Counts map[string]int `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"mon:evening", "mon:morning"}, resp.Allocation.Assignments["A"])
	assert.Equal(t, 2, resp.Counts["A"])

	w = e.do(t, http.MethodGet, "/api/usage", nil, key)
	require.Equal(t, http.StatusOK, w.Code)
	totals := decode(t, w)["totals"].(map[string]any)
	assert.Equal(t, float64(1), totals["requests"])
	assert.Equal(t, float64(2), totals["slots"])
	assert.Equal(t, float64(2), totals["staff"])
}

func TestAPIKey_RateLimit(t *testing.T) {
	e := newEnv(t, "")
	key := e.h.Auth.GenerateHMACKey("tiny")
	require.NoError(t, e.h.DB.Create(&database.APIKey{Key: key, Name: "tiny", RateLimit: 1}).Error)
	headers := map[string]string{"Authorization": "Bearer " + key}
	input := gin.H{"staff": []gin.H{{"id": "A"}}, "dates": []string{"mon"}, "shifts": []string{"day"}}

	w := e.do(t, http.MethodPost, "/api/allocate", input, headers)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/api/allocate", input, headers)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func allocateInput() gin.H {
	return gin.H{"staff": []gin.H{{"id": "A"}}, "dates": []string{"mon"}, "shifts": []string{"day"}}
}

func (e *testEnv) mintKey(t *testing.T, name string, rateLimit int) (uint, map[string]string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/admin/keys", gin.H{"name": name, "rate_limit": rateLimit}, adminHeader(t, e))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	return uint(body["id"].(float64)), map[string]string{"Authorization": "Bearer " + body["key"].(string)}
}

func TestAPIKey_AdminMintedKeyKeepsItsLimit(t *testing.T) {
	e := newEnv(t, "")
	_, headers := e.mintKey(t, "acme", 500)

	w := e.do(t, http.MethodPost, "/api/allocate", allocateInput(), headers)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/usage", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(500), body["rate_limit"])
	assert.Equal(t, float64(499), body["remaining_today"])

	var keys []database.APIKey
	require.NoError(t, e.h.DB.Find(&keys).Error)
	require.Len(t, keys, 1)
	assert.NotNil(t, keys[0].LastUsed)
}

func TestAPIKey_AdminMintedKeyRateLimit(t *testing.T) {
	e := newEnv(t, "")
	_, headers := e.mintKey(t, "tiny", 1)

	w := e.do(t, http.MethodPost, "/api/allocate", allocateInput(), headers)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/api/allocate", allocateInput(), headers)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestAPIKey_UpdatedLimitApplies(t *testing.T) {
	e := newEnv(t, "")
	id, headers := e.mintKey(t, "growing", 0)

	w := e.do(t, http.MethodPost, "/api/allocate", allocateInput(), headers)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPut, fmt.Sprintf("/admin/keys/%d", id), gin.H{"rate_limit": 1}, adminHeader(t, e))
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/api/allocate", allocateInput(), headers)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = e.do(t, http.MethodPut, fmt.Sprintf("/admin/keys/%d", id), gin.H{"rate_limit": 5}, adminHeader(t, e))
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/api/allocate", allocateInput(), headers)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUsage_DaysParam(t *testing.T) {
	e := newEnv(t, "")
	_, headers := e.mintKey(t, "u", 0)

	w := e.do(t, http.MethodGet, "/api/usage?days=0", nil, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/api/usage?days=7", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(10000), decode(t, w)["remaining_today"])
}

func TestGetPicker_HidesCreator(t *testing.T) {
	e := newEnv(t, "")
	w := e.do(t, http.MethodPost, "/admin/pickers", gin.H{
		"name":   "Week 3",
		"shifts": []string{"day"},
		"dates":  []string{"2025-01-13"},
		"staff":  []gin.H{{"id": "a"}},
	}, adminHeader(t, e))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)

	w = e.do(t, http.MethodGet, "/api/shift-picker/"+id, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, id, body["id"])
	assert.Equal(t, "Week 3", body["name"])
	assert.NotContains(t, body, "created_by")
	assert.Len(t, body["slots"], 1)
}

func TestBalanceHolidays(t *testing.T) {
	e := newEnv(t, "")
	key := map[string]string{"Authorization": "Bearer " + e.h.Auth.GenerateHMACKey("hr")}
	input := gin.H{
		"participants": []gin.H{{"id": "A"}, {"id": "B"}},
		"periods":      []gin.H{{"id": "xmas", "capacity": 1}, {"id": "easter", "capacity": 1}},
		"preferences": gin.H{
			"A": gin.H{"xmas": "preferred", "easter": "preferred"},
			"B": gin.H{"xmas": "preferred"},
		},
	}

	w := e.do(t, http.MethodPost, "/api/holidays/balance", input, key)
	require.Equal(t, http.StatusOK, w.Code)
	granted := decode(t, w)["granted"].(map[string]any)
	assert.Equal(t, []any{"easter"}, granted["A"])
	assert.Equal(t, []any{"xmas"}, granted["B"])

	input["periods"] = []gin.H{{"id": "xmas"}, {"id": "xmas"}}
	w = e.do(t, http.MethodPost, "/api/holidays/balance", input, key)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateInput(t *testing.T) {
	e := newEnv(t, "")
	key := map[string]string{"Authorization": "Bearer " + e.h.Auth.GenerateHMACKey("v")}

	w := e.do(t, http.MethodPost, "/api/validate", gin.H{
		"staff":  []gin.H{{"id": "A"}, {"id": "A"}},
		"dates":  []string{"mon"},
		"shifts": []string{"day"},
	}, key)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["valid"])
	assert.Contains(t, body["error"], "Duplicate staff ID")

	w = e.do(t, http.MethodPost, "/api/validate", gin.H{
		"staff":       []gin.H{{"id": "A"}},
		"dates":       []string{"mon", "tue"},
		"shifts":      []string{"day"},
		"preferences": gin.H{"A": gin.H{"tue:day": "unavailable"}},
	}, key)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, float64(2), body["stats"].(map[string]any)["slot_count"])
}

func TestHealth(t *testing.T) {
	e := newEnv(t, "")

	w := e.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}
