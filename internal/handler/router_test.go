package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/teacher-ratings-api/internal/repository"
	"github.com/noah-isme/teacher-ratings-api/internal/service"
	"github.com/noah-isme/teacher-ratings-api/pkg/storage"
)

const adminToken = "admin-token"

type testServer struct {
	router   *gin.Engine
	teachers *repository.TeacherRepository
	ratings  *repository.RatingRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	teachers := repository.NewTeacherRepository(store, "teachers.csv", zap.NewNop())
	ratings := repository.NewRatingRepository(nil, "", zap.NewNop())
	metrics := service.NewMetricsService()
	validate := validator.New()

	writes := service.NewStoreLock()
	teacherSvc := service.NewTeacherService(teachers, ratings, nil, metrics, writes, validate, zap.NewNop())
	ratingSvc := service.NewRatingService(ratings, teachers, nil, metrics, writes, validate, zap.NewNop())
	authSvc := service.NewAuthService(service.NewStaticAuthenticator("admin", "password123", adminToken), validate, zap.NewNop())
	exportSvc := service.NewExportService(teachers, ratings, zap.NewNop(), nil, nil)

	router := NewRouter(RouterConfig{
		APIPrefix:       "/api",
		MaxBodyBytes:    1 << 16,
		AdminCookieName: "adminToken",
		VoteCookie:      VoteCookie{Name: "votedTeachers", MaxAge: time.Hour},
	}, RouterDeps{
		Teachers: teacherSvc,
		Ratings:  ratingSvc,
		Auth:     authSvc,
		Exports:  exportSvc,
		Metrics:  metrics,
	})
	return &testServer{router: router, teachers: teachers, ratings: ratings}
}

func performRequest(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path, body string) *http.Request {
	var reader *bytes.Buffer
	if body == "" {
		reader = &bytes.Buffer{}
	} else {
		reader = bytes.NewBufferString(body)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func adminRequest(method, path, body string) *http.Request {
	req := jsonRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func voteCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "votedTeachers" {
			return c
		}
	}
	t.Fatalf("no votedTeachers cookie in response")
	return nil
}

const teacherT1 = `{"id":"T1","name":"Ada Lovelace","description":"Maths, logic","bio":"Pioneer","classes":"Math, CS","tags":["stem"],"room_number":"101"}`

func TestRatingLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := performRequest(s.router, adminRequest(http.MethodPost, "/api/teachers", teacherT1))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = performRequest(s.router, jsonRequest(http.MethodGet, "/api/teachers/T1", ""))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Nil(t, body["avg_rating"])
	assert.EqualValues(t, 0, body["rating_count"])
	assert.Equal(t, []interface{}{"Math", "CS"}, body["classes"])

	w = performRequest(s.router, jsonRequest(http.MethodPost, "/api/ratings", `{"teacher_id":"T1","rating":4,"comment":"great"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decode(t, w)
	assert.Equal(t, "Rating submitted!", body["message"])
	assert.Equal(t, []interface{}{"T1"}, body["voted_teachers"])
	cookie := voteCookie(t, w)
	assert.Equal(t, "T1", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.False(t, cookie.HttpOnly)

	w = performRequest(s.router, jsonRequest(http.MethodGet, "/api/teachers/T1", ""))
	body = decode(t, w)
	assert.EqualValues(t, 1, body["rating_count"])
	assert.EqualValues(t, 4, body["avg_rating"])
	require.Len(t, body["ratings"], 1)

	dup := jsonRequest(http.MethodPost, "/api/ratings", `{"teacher_id":"T1","rating":"2"}`)
	dup.AddCookie(cookie)
	w = performRequest(s.router, dup)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body = decode(t, w)
	assert.Equal(t, "You have already voted for this teacher.", body["error"])
	assert.Equal(t, "ALREADY_VOTED", body["code"])

	w = performRequest(s.router, jsonRequest(http.MethodGet, "/api/teachers/T1", ""))
	assert.EqualValues(t, 1, decode(t, w)["rating_count"])

	w = performRequest(s.router, adminRequest(http.MethodDelete, "/api/admin/teachers/T1", ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Teacher and their votes deleted successfully!", decode(t, w)["message"])

	w = performRequest(s.router, jsonRequest(http.MethodGet, "/api/teachers/T1", ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, s.ratings.All(context.Background()))
}

func TestRatingSubmitRejectsInvalidInput(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, performRequest(s.router, adminRequest(http.MethodPost, "/api/teachers", teacherT1)).Code)

	for _, payload := range []string{
		`{"teacher_id":"T1","rating":0}`,
		`{"teacher_id":"T1","rating":6}`,
		`{"teacher_id":"T1","rating":"abc"}`,
		`{"rating":3}`,
		`not json`,
	} {
		w := performRequest(s.router, jsonRequest(http.MethodPost, "/api/ratings", payload))
		assert.Equal(t, http.StatusBadRequest, w.Code, payload)
		assert.Empty(t, w.Result().Cookies(), payload)
	}

	w := performRequest(s.router, jsonRequest(http.MethodPost, "/api/ratings", `{"teacher_id":"T9","rating":3}`))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRatingCookieAccumulates(t *testing.T) {
	s := newTestServer(t)
	for _, id := range []string{"T1", "T2"} {
		payload := strings.Replace(teacherT1, `"T1"`, `"`+id+`"`, 1)
		require.Equal(t, http.StatusCreated, performRequest(s.router, adminRequest(http.MethodPost, "/api/teachers", payload)).Code)
	}

	w := performRequest(s.router, jsonRequest(http.MethodPost, "/api/ratings", `{"teacher_id":"T1","rating":5}`))
	require.Equal(t, http.StatusOK, w.Code)

	req := jsonRequest(http.MethodPost, "/api/ratings", `{"teacher_id":"T2","rating":3,"review":"ok"}`)
	req.AddCookie(voteCookie(t, w))
	w = performRequest(s.router, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "T1,T2", voteCookie(t, w).Value)
	assert.Equal(t, "ok", s.ratings.ListByTeacher(context.Background(), "T2")[0].Comment)
}

func TestTeacherListEndpoint(t *testing.T) {
	s := newTestServer(t)
	for _, id := range []string{"T1", "T2", "T3"} {
		payload := strings.Replace(teacherT1, `"T1"`, `"`+id+`"`, 1)
		require.Equal(t, http.StatusCreated, performRequest(s.router, adminRequest(http.MethodPost, "/api/teachers", payload)).Code)
	}

	w := performRequest(s.router, jsonRequest(http.MethodGet, "/api/teachers?perPage=2&page=2&direction=desc", ""))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 3, body["total"])
	teachers := body["teachers"].([]interface{})
	require.Len(t, teachers, 1)
	assert.Equal(t, "T1", teachers[0].(map[string]interface{})["id"])

	w = performRequest(s.router, jsonRequest(http.MethodGet, "/api/teachers?page=abc&perPage=-1", ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["teachers"], 3)

	w = performRequest(s.router, jsonRequest(http.MethodGet, "/api/teachers?page=4611686018427387904", ""))
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.EqualValues(t, 3, body["total"])
	assert.Empty(t, body["teachers"])
}

func TestTeacherAdminEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := performRequest(s.router, jsonRequest(http.MethodPost, "/api/teachers", teacherT1))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", decode(t, w)["error"])

	require.Equal(t, http.StatusCreated, performRequest(s.router, adminRequest(http.MethodPost, "/api/teachers", teacherT1)).Code)

	w = performRequest(s.router, adminRequest(http.MethodPost, "/api/teachers", teacherT1))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "DUPLICATE_ID", decode(t, w)["code"])

	w = performRequest(s.router, adminRequest(http.MethodPost, "/api/teachers", `{"id":"T2","name":"No bio"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(s.router, adminRequest(http.MethodPut, "/api/admin/teachers/T1", `{"name":"Countess Ada","schedule":[{"subject":"Math"}]}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Countess Ada", body["name"])
	assert.Equal(t, "Block 1", body["schedule"].([]interface{})[0].(map[string]interface{})["block"])

	w = performRequest(s.router, adminRequest(http.MethodPut, "/api/admin/teachers/T1", `{"id":"T7"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(s.router, adminRequest(http.MethodPut, "/api/admin/teachers/T9", `{"name":"x"}`))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(s.router, adminRequest(http.MethodDelete, "/api/admin/teachers/T9", ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminLoginAndCookieAuth(t *testing.T) {
	s := newTestServer(t)

	w := performRequest(s.router, jsonRequest(http.MethodPost, "/api/admin/login", `{"username":"admin","password":"nope"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["error"])

	w = performRequest(s.router, jsonRequest(http.MethodPost, "/api/admin/login", `{"username":"admin","password":"password123"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, adminToken, decode(t, w)["token"])

	var tokenCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "adminToken" {
			tokenCookie = c
		}
	}
	require.NotNil(t, tokenCookie)

	req := jsonRequest(http.MethodGet, "/api/admin/votes", "")
	req.AddCookie(tokenCookie)
	w = performRequest(s.router, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	req = jsonRequest(http.MethodGet, "/api/admin/votes", "")
	req.Header.Set("Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, performRequest(s.router, req).Code)

	req = jsonRequest(http.MethodGet, "/api/admin/votes", "")
	req.Header.Set("Authorization", "Basic "+adminToken)
	assert.Equal(t, http.StatusUnauthorized, performRequest(s.router, req).Code)
}

func TestAdminVoteModeration(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, performRequest(s.router, adminRequest(http.MethodPost, "/api/teachers", teacherT1)).Code)

	w := performRequest(s.router, adminRequest(http.MethodPut, "/api/admin/votes/T1", `{"rating":3}`))
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, performRequest(s.router, jsonRequest(http.MethodPost, "/api/ratings", `{"teacher_id":"T1","rating":2}`)).Code)

	w = performRequest(s.router, adminRequest(http.MethodPut, "/api/admin/votes/T1", `{"rating":"5","review":"edited"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Vote modified successfully!", body["message"])
	rating := body["rating"].(map[string]interface{})
	assert.EqualValues(t, 5, rating["rating"])
	assert.Equal(t, "edited", rating["comment"])

	require.Equal(t, http.StatusOK, performRequest(s.router, jsonRequest(http.MethodPost, "/api/ratings", `{"teacher_id":"T1","rating":4}`)).Code)

	w = performRequest(s.router, adminRequest(http.MethodPut, "/api/admin/votes/T1", `{"rating":1}`))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = performRequest(s.router, adminRequest(http.MethodPut, "/api/admin/votes/T1/"+rating["id"].(string), `{"rating":1}`))
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(s.router, adminRequest(http.MethodGet, "/api/admin/votes", ""))
	var votes []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &votes))
	assert.Len(t, votes, 2)

	w = performRequest(s.router, adminRequest(http.MethodDelete, "/api/admin/votes/T1", ""))
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "Vote deleted successfully!", body["message"])
	assert.EqualValues(t, 2, body["removed"])

	w = performRequest(s.router, adminRequest(http.MethodDelete, "/api/admin/votes/T1", ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportEndpoint(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, performRequest(s.router, adminRequest(http.MethodPost, "/api/teachers", teacherT1)).Code)

	assert.Equal(t, http.StatusUnauthorized, performRequest(s.router, jsonRequest(http.MethodGet, "/api/admin/teachers/export", "")).Code)

	w := performRequest(s.router, adminRequest(http.MethodGet, "/api/admin/teachers/export?format=csv", ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment;")
	assert.Contains(t, w.Body.String(), `T1,Ada Lovelace,101,Math; CS,stem,,0`)

	w = performRequest(s.router, adminRequest(http.MethodGet, "/api/admin/teachers/export?format=doc", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := performRequest(s.router, jsonRequest(http.MethodGet, "/health", ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = performRequest(s.router, jsonRequest(http.MethodGet, "/ready", ""))
	assert.EqualValues(t, 0, decode(t, w)["teachers"])

	performRequest(s.router, jsonRequest(http.MethodGet, "/api/teachers", ""))
	w = performRequest(s.router, jsonRequest(http.MethodGet, "/metrics", ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/api/teachers",status="200"} 1`)
}

func TestBodyLimitRejectsLargePayload(t *testing.T) {
	s := newTestServer(t)
	big := `{"teacher_id":"T1","rating":4,"comment":"` + strings.Repeat("x", 1<<17) + `"}`

	w := performRequest(s.router, jsonRequest(http.MethodPost, "/api/ratings", big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
