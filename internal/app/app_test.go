package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/HealthLane-PH/healthlane-web/internal/config"
	"github.com/HealthLane-PH/healthlane-web/internal/email"
	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository/memory"
	"github.com/HealthLane-PH/healthlane-web/internal/storage"
	"github.com/HealthLane-PH/healthlane-web/pkg/errors"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
	"github.com/HealthLane-PH/healthlane-web/pkg/messaging"
	"github.com/HealthLane-PH/healthlane-web/pkg/metrics"
	pkgvalidator "github.com/HealthLane-PH/healthlane-web/pkg/validator"
	"github.com/HealthLane-PH/healthlane-web/pkg/worker"
)

const ownerPassword = "owner-password-1"

var tokenPattern = regexp.MustCompile(`token=([0-9a-f]+)`)

func init() {
	gin.SetMode(gin.TestMode)
	if err := pkgvalidator.RegisterGin(); err != nil {
		panic(err)
	}
}

type TestResponse struct {
	Code    int
	Status  string
	Message string
	Data    map[string]interface{}
	RawData json.RawMessage
}

func (r TestResponse) IsSuccess() bool {
	return r.Status == "success"
}

func (r TestResponse) GetString(key string) string {
	if v, ok := r.Data[key].(string); ok {
		return v
	}
	return ""
}

type testEnv struct {
	t      *testing.T
	store  *memory.Store
	files  *storage.MemoryStorage
	mailer *email.RecordingMailer
	broker *messaging.MemoryBroker
	app    *App
	engine *gin.Engine
	worker *worker.OutboxProcessor
	token  string
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Issuer = "healthlane-test"
	cfg.Invite.TTL = 7 * 24 * time.Hour
	cfg.Invite.BaseURL = "https://healthlane.ph/set-password"
	cfg.Mail.FromEmail = "info@healthlane.ph"
	cfg.Mail.FromName = "HealthLane PH"
	cfg.Storage.SignedURLTTL = 15 * time.Minute
	cfg.Server.MaxBodyBytes = 1 << 20
	cfg.Server.RequestTimeout = 5 * time.Second
	return cfg
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		t:      t,
		store:  memory.NewStore(),
		files:  storage.NewMemoryStorage(),
		mailer: &email.RecordingMailer{},
		broker: messaging.NewMemoryBroker(),
	}
	t.Cleanup(func() { env.broker.Close() })

	log := logger.NewNop()
	m := metrics.NewNop()
	env.app = New(Deps{
		Config: testConfig(),
		Repos: Repositories{
			Persons:     env.store.Persons(),
			Doctors:     env.store.Doctors(),
			Clinics:     env.store.Clinics(),
			Credentials: env.store.Credentials(),
			Outbox:      env.store.Outbox(),
		},
		Storage:    env.files,
		Mailer:     env.mailer,
		Broker:     env.broker,
		Log:        log,
		Metrics:    m,
		BcryptCost: bcrypt.MinCost,
	})
	env.engine = env.app.Router().Engine()
	env.worker = worker.NewOutboxProcessor(env.store.Outbox(), env.app.Dispatcher, env.broker,
		worker.OutboxProcessorConfig{BatchSize: 10, PollInterval: time.Second}, log, m)

	env.token = env.seedOwner()
	return env
}

// seedOwner creates an active owner with a password and signs them in.
func (e *testEnv) seedOwner() string {
	ctx := context.Background()
	owner := &model.Person{
		FirstName: "Olga",
		LastName:  "Santos",
		Email:     "owner@healthlane.ph",
		Role:      model.PersonRoleOwner,
		Status:    model.PersonStatusActive,
	}
	require.NoError(e.t, e.store.Persons().Create(ctx, owner))
	_, err := e.app.Auth.CreateCredential(ctx, owner.Email, ownerPassword)
	require.NoError(e.t, err)

	resp := e.request(http.MethodPost, "/auth/login", map[string]interface{}{
		"email":    owner.Email,
		"password": ownerPassword,
	}, "")
	require.True(e.t, resp.IsSuccess(), "owner login failed: %s", resp.Message)

	var login model.LoginResponse
	require.NoError(e.t, json.Unmarshal(resp.RawData, &login))
	return login.Session.AccessToken
}

func (e *testEnv) send(req *http.Request, token string) TestResponse {
	e.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var envelope struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &envelope), "body: %s", w.Body.String())

	resp := TestResponse{Code: w.Code, Status: envelope.Status, Message: envelope.Message, RawData: envelope.Data}
	_ = json.Unmarshal(envelope.Data, &resp.Data)
	return resp
}

func (e *testEnv) request(method, path string, body interface{}, token string) TestResponse {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	return e.send(req, token)
}

func (e *testEnv) registerDoctor(payload map[string]interface{}, withFile bool) TestResponse {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	raw, err := json.Marshal(payload)
	require.NoError(e.t, err)
	require.NoError(e.t, mw.WriteField("payload", string(raw)))
	if withFile {
		part, err := mw.CreateFormFile("prc_file", "prc id.jpg")
		require.NoError(e.t, err)
		_, err = part.Write([]byte("jpeg bytes"))
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/register/doctors", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.send(req, "")
}

// drain runs the outbox worker until nothing is pending.
func (e *testEnv) drain() {
	e.t.Helper()
	for i := 0; i < 10; i++ {
		n, err := e.worker.ProcessBatch(context.Background())
		require.NoError(e.t, err)
		if n == 0 {
			return
		}
	}
	e.t.Fatal("outbox did not drain")
}

func (e *testEnv) sentTo(to string, template model.NotificationTemplate) []model.EmailMessage {
	var out []model.EmailMessage
	for _, msg := range e.mailer.Sent() {
		if msg.To == to && msg.Template == template {
			out = append(out, msg)
		}
	}
	return out
}

func TestStaffInviteFlow(t *testing.T) {
	env := newTestEnv(t)
	staffEmail := "ana.cruz@healthlane.ph"

	createResp := env.request(http.MethodPost, "/staff-members", map[string]interface{}{
		"first_name": "ana",
		"last_name":  "cruz",
		"email":      staffEmail,
		"role":       "staff",
	}, env.token)
	require.True(t, createResp.IsSuccess(), "failed to create staff: %s", createResp.Message)
	assert.Equal(t, http.StatusCreated, createResp.Code)
	assert.Equal(t, "Ana", createResp.GetString("first_name"))
	assert.Equal(t, "pending", createResp.GetString("status"))
	staffID := createResp.GetString("id")

	env.drain()

	invites := env.sentTo(staffEmail, model.TemplateStaffInvite)
	require.Len(t, invites, 1)
	match := tokenPattern.FindStringSubmatch(invites[0].HTML)
	require.Len(t, match, 2, "no token in invite email")
	secret := match[1]

	// The stored value is a fingerprint, never the secret itself.
	stored, err := env.store.Persons().Get(context.Background(), mustParse(t, staffID))
	require.NoError(t, err)
	require.NotNil(t, stored.Invite)
	assert.NotEqual(t, secret, stored.Invite.Fingerprint)

	query := url.Values{"email": {staffEmail}, "token": {secret}}
	verifyResp := env.request(http.MethodGet, "/auth/set-password/verify?"+query.Encode(), nil, "")
	require.True(t, verifyResp.IsSuccess(), verifyResp.Message)
	assert.Equal(t, staffEmail, verifyResp.GetString("email"))

	setPassword := map[string]interface{}{
		"email":            staffEmail,
		"token":            secret,
		"password":         "correct-horse",
		"confirm_password": "correct-horse",
	}
	redeemResp := env.request(http.MethodPost, "/auth/set-password", setPassword, "")
	require.True(t, redeemResp.IsSuccess(), redeemResp.Message)
	assert.Equal(t, model.StaffHomePath, redeemResp.GetString("redirect"))

	again := env.request(http.MethodPost, "/auth/set-password", setPassword, "")
	assert.Equal(t, http.StatusBadRequest, again.Code)
	assert.Equal(t, errors.InvalidOrExpiredTokenMessage, again.Message)

	loginResp := env.request(http.MethodPost, "/auth/login", map[string]interface{}{
		"email":    staffEmail,
		"password": "correct-horse",
	}, "")
	require.True(t, loginResp.IsSuccess(), loginResp.Message)

	getResp := env.request(http.MethodGet, "/staff-members/"+staffID, nil, env.token)
	require.True(t, getResp.IsSuccess())
	assert.Equal(t, "active", getResp.GetString("status"))
	assert.Nil(t, getResp.Data["invite"])
}

func TestStaffDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]interface{}{
		"first_name": "Ben",
		"last_name":  "Reyes",
		"email":      "ben@healthlane.ph",
		"role":       "admin",
	}
	first := env.request(http.MethodPost, "/staff-members", body, env.token)
	require.True(t, first.IsSuccess(), first.Message)

	body["email"] = "BEN@healthlane.ph"
	second := env.request(http.MethodPost, "/staff-members", body, env.token)
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Equal(t, first.GetString("id"), second.GetString("conflict_id"))
}

func TestResendInvite(t *testing.T) {
	env := newTestEnv(t)
	createResp := env.request(http.MethodPost, "/staff-members", map[string]interface{}{
		"first_name": "Carla",
		"last_name":  "Dizon",
		"email":      "carla@healthlane.ph",
		"role":       "staff",
	}, env.token)
	require.True(t, createResp.IsSuccess())
	env.drain()

	resendResp := env.request(http.MethodPost, "/staff-members/"+createResp.GetString("id")+"/invite", nil, env.token)
	require.True(t, resendResp.IsSuccess(), resendResp.Message)
	assert.NotEmpty(t, resendResp.GetString("expires_at"))

	invites := env.sentTo("carla@healthlane.ph", model.TemplateStaffInvite)
	require.Len(t, invites, 2)

	// Only the newest link still works.
	old := tokenPattern.FindStringSubmatch(invites[0].HTML)[1]
	query := url.Values{"email": {"carla@healthlane.ph"}, "token": {old}}
	verifyResp := env.request(http.MethodGet, "/auth/set-password/verify?"+query.Encode(), nil, "")
	assert.Equal(t, http.StatusBadRequest, verifyResp.Code)
}

func doctorPayload() map[string]interface{} {
	return map[string]interface{}{
		"first_name":      "maria",
		"last_name":       "dela cruz",
		"email":           "maria@clinic.ph",
		"specializations": []string{"Pediatrics"},
		"clinics": []map[string]interface{}{
			{"name": "Naga Health Center", "contact": "0917 000 0000"},
		},
		"consent": true,
	}
}

func TestDoctorRegistrationFlow(t *testing.T) {
	env := newTestEnv(t)

	noConsent := doctorPayload()
	noConsent["consent"] = false
	resp := env.registerDoctor(noConsent, false)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "consent", resp.GetString("field"))

	resp = env.registerDoctor(doctorPayload(), false)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "prc_file", resp.GetString("field"))

	resp = env.registerDoctor(doctorPayload(), true)
	require.True(t, resp.IsSuccess(), resp.Message)
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "pending", resp.GetString("status"))
	assert.Equal(t, "Maria", resp.GetString("first_name"))
	doctorID := resp.GetString("id")
	require.Len(t, env.files.Keys(), 1)
	assert.Regexp(t, `^prcIDs/\d+_prc id\.jpg$`, env.files.Keys()[0])

	dup := env.registerDoctor(doctorPayload(), true)
	assert.Equal(t, http.StatusConflict, dup.Code)
	assert.Equal(t, doctorID, dup.GetString("conflict_id"))
	assert.Len(t, env.files.Keys(), 1, "rejected registration must not leave an upload behind")

	urlResp := env.request(http.MethodGet, "/doctors/"+doctorID+"/credential-url", nil, env.token)
	require.True(t, urlResp.IsSuccess(), urlResp.Message)
	assert.NotEmpty(t, urlResp.GetString("url"))

	statusResp := env.request(http.MethodPatch, "/doctors/"+doctorID+"/status", map[string]interface{}{
		"status": "active",
	}, env.token)
	require.True(t, statusResp.IsSuccess(), statusResp.Message)
	assert.Equal(t, "Olga Santos", statusResp.GetString("updated_by_name"))

	env.drain()
	assert.Len(t, env.sentTo("maria@clinic.ph", model.TemplateDoctorVerified), 1)

	suggestResp := env.request(http.MethodGet, "/clinics/suggest?q=health", nil, env.token)
	require.True(t, suggestResp.IsSuccess())
	var suggestions []model.ClinicSuggestion
	require.NoError(t, json.Unmarshal(suggestResp.RawData, &suggestions))
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Naga Health Center", suggestions[0].Name)
	assert.Equal(t, model.DefaultCity, suggestions[0].City)

	summaryResp := env.request(http.MethodGet, "/dashboard/summary", nil, env.token)
	require.True(t, summaryResp.IsSuccess())
	var summary model.DashboardSummary
	require.NoError(t, json.Unmarshal(summaryResp.RawData, &summary))
	assert.Equal(t, model.DashboardSummary{Clinics: 1, Doctors: 1, PendingDoctors: 0, Staff: 1}, summary)

	removeResp := env.request(http.MethodDelete, "/doctors/"+doctorID+"/credential", nil, env.token)
	require.True(t, removeResp.IsSuccess(), removeResp.Message)
	assert.Empty(t, env.files.Keys())
}

func TestProtectedRoutes(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(http.MethodGet, "/doctors", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = env.request(http.MethodGet, "/doctors", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// Plain staff can work the directory but not manage accounts.
	ctx := context.Background()
	staff := &model.Person{
		FirstName: "Dina",
		LastName:  "Lopez",
		Email:     "dina@healthlane.ph",
		Role:      model.PersonRoleStaff,
		Status:    model.PersonStatusActive,
	}
	require.NoError(t, env.store.Persons().Create(ctx, staff))
	_, err := env.app.Auth.CreateCredential(ctx, staff.Email, "dina-password")
	require.NoError(t, err)
	login := env.request(http.MethodPost, "/auth/login", map[string]interface{}{
		"email": staff.Email, "password": "dina-password",
	}, "")
	require.True(t, login.IsSuccess(), login.Message)
	var session model.LoginResponse
	require.NoError(t, json.Unmarshal(login.RawData, &session))
	staffToken := session.Session.AccessToken

	resp = env.request(http.MethodGet, "/doctors", nil, staffToken)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = env.request(http.MethodGet, "/staff-members", nil, staffToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []map[string]interface{}{
		{"email": "owner@healthlane.ph", "password": "wrong-password"},
		{"email": "nobody@healthlane.ph", "password": ownerPassword},
	} {
		resp := env.request(http.MethodPost, "/auth/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, "unauthorized", resp.Message)
	}
}

func TestValidationErrorsNameTheField(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(http.MethodPost, "/staff-members", map[string]interface{}{
		"first_name": "Eli",
		"last_name":  "Tan",
		"email":      "eli@healthlane.ph",
		"role":       "janitor",
	}, env.token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "role", resp.GetString("field"))

	resp = env.request(http.MethodGet, "/doctors/not-a-uuid", nil, env.token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1.0", w.Header().Get("X-API-Version"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func mustParse(t *testing.T, id string) uuid.UUID {
	t.Helper()
	parsed, err := uuid.Parse(id)
	require.NoError(t, err, "bad id %q", id)
	return parsed
}
