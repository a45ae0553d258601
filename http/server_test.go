package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/snarkipus/letterbox"
	"github.com/snarkipus/letterbox/mock"
	"github.com/snarkipus/letterbox/pkg/hash"
)

var (
	cfg *letterbox.Config
	s   *Server
)

func TestMain(m *testing.M) {
	viper.SetConfigType("yaml")
	var yamlConfig = []byte(`
newsletter:
  hmac:
    secret: da02e221bc331c9875c5e1299fa8d765
`)
	if err := viper.ReadConfig(bytes.NewBuffer(yamlConfig)); err != nil {
		log.Fatal(err)
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatal(err)
	}

	var err error
	s, err = NewServer()
	if err != nil {
		log.Fatal(err)
	}
	s.HMACSecret = cfg.Newsletter.HMAC.Secret

	os.Exit(m.Run())
}

func TestStatusFromCode(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{letterbox.ErrInvalid, http.StatusBadRequest},
		{letterbox.ErrUnauthorized, http.StatusUnauthorized},
		{letterbox.ErrNotFound, http.StatusNotFound},
		{letterbox.ErrEmailDelivery, http.StatusInternalServerError},
		{letterbox.ErrInternal, http.StatusInternalServerError},
		{"something-else", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, statusFromCode(tt.code), tt.code)
	}
}

func TestSubscribeHandler(t *testing.T) {
	form := letterbox.SubscriptionForm{
		Email: "ursula_le_guin@gmail.com",
		Name:  "le guin",
	}

	subscriptionService := new(mock.SubscriptionService)
	subscriptionService.On("Enroll", tmock.Anything, form).Return(nil)
	s.SubscriptionService = subscriptionService

	body := url.Values{}
	body.Set("name", "le guin")
	body.Set("email", "ursula_le_guin@gmail.com")

	req, err := http.NewRequest(http.MethodPost, "/subscribe", strings.NewReader(body.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp *letterbox.SubscriptionResponse
	require.NoError(t, json.NewDecoder(w.Result().Body).Decode(&resp))
	assert.Equal(t, fmt.Sprintf(confirmationMessage, form.Email), resp.Message)
	subscriptionService.AssertExpectations(t)
}

func TestSubscribeHandlerValidationFailure(t *testing.T) {
	subscriptionService := new(mock.SubscriptionService)
	subscriptionService.On("Enroll", tmock.Anything, tmock.Anything).
		Return(&letterbox.Error{Code: letterbox.ErrInvalid, Message: "name must not be empty"})
	s.SubscriptionService = subscriptionService

	body := url.Values{}
	body.Set("email", "ursula_le_guin@gmail.com")

	req, err := http.NewRequest(http.MethodPost, "/subscribe", strings.NewReader(body.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscribeHandlerEmailFailure(t *testing.T) {
	subscriptionService := new(mock.SubscriptionService)
	subscriptionService.On("Enroll", tmock.Anything, tmock.Anything).
		Return(&letterbox.Error{Code: letterbox.ErrEmailDelivery, Op: "subscription.Enroll"})
	s.SubscriptionService = subscriptionService

	body := url.Values{}
	body.Set("name", "le guin")
	body.Set("email", "ursula_le_guin@gmail.com")

	req, err := http.NewRequest(http.MethodPost, "/subscribe", strings.NewReader(body.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	// Enrolled but unnotified still surfaces as a server error.
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestConfirmHandler(t *testing.T) {
	token := "oneValidSubscriptionToken"

	subscriptionService := new(mock.SubscriptionService)
	subscriptionService.On("Confirm", tmock.Anything, token).Return(nil)
	s.SubscriptionService = subscriptionService

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("/subscribe/confirm?subscription_token=%s", token), nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp *letterbox.SubscriptionResponse
	require.NoError(t, json.NewDecoder(w.Result().Body).Decode(&resp))
	assert.Equal(t, thankyouMessage, resp.Message)
}

func TestConfirmHandlerUnknownToken(t *testing.T) {
	subscriptionService := new(mock.SubscriptionService)
	subscriptionService.On("Confirm", tmock.Anything, tmock.Anything).
		Return(&letterbox.Error{Code: letterbox.ErrUnauthorized, Message: "unknown subscription token"})
	s.SubscriptionService = subscriptionService

	req, err := http.NewRequest(http.MethodGet, "/subscribe/confirm?subscription_token=guess", nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPublishNewsletterHandlerMissingAuth(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "/newsletters", strings.NewReader(`{"title":"Issue #1","content":{"html":"<p>hi</p>","text":"hi"}}`))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `Basic realm="publish"`, w.Header().Get("WWW-Authenticate"))
}

func TestPublishNewsletterHandlerRejectedCredentials(t *testing.T) {
	authService := new(mock.AuthService)
	authService.On("ValidateCredentials", tmock.Anything, letterbox.Credentials{Username: "editor", Password: "wrong"}).
		Return("", &letterbox.Error{Code: letterbox.ErrUnauthorized, Message: "invalid username or password"})
	s.AuthService = authService

	req, err := http.NewRequest(http.MethodPost, "/newsletters", strings.NewReader(`{}`))
	require.NoError(t, err)
	req.SetBasicAuth("editor", "wrong")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `Basic realm="publish"`, w.Header().Get("WWW-Authenticate"))
}

func TestPublishNewsletterHandler(t *testing.T) {
	n := letterbox.Newsletter{
		Title: "Issue #1",
		Content: letterbox.NewsletterContent{
			HTML: "<p>Newsletter body</p>",
			Text: "Newsletter body",
		},
	}

	authService := new(mock.AuthService)
	authService.On("ValidateCredentials", tmock.Anything, letterbox.Credentials{Username: "editor", Password: "right"}).
		Return("user-1", nil)
	s.AuthService = authService

	subscriptionService := new(mock.SubscriptionService)
	subscriptionService.On("Publish", tmock.Anything, n).Return(nil)
	s.SubscriptionService = subscriptionService

	data, err := json.Marshal(n)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, "/newsletters", bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("editor", "right")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	subscriptionService.AssertExpectations(t)
	authService.AssertExpectations(t)
}

func TestLoginHandlerRejectedCredentials(t *testing.T) {
	authService := new(mock.AuthService)
	authService.On("ValidateCredentials", tmock.Anything, letterbox.Credentials{Username: "editor", Password: "wrong"}).
		Return("", &letterbox.Error{Code: letterbox.ErrUnauthorized, Message: "invalid username or password"})
	s.AuthService = authService

	body := url.Values{}
	body.Set("username", "editor")
	body.Set("password", "wrong")

	req, err := http.NewRequest(http.MethodPost, "/login", strings.NewReader(body.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusSeeOther, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login", location.Path)
	assert.Equal(t, "invalid username or password", location.Query().Get("error"))
	assert.True(t, hash.VerifyHmac256(
		fmt.Sprintf("error=%s", location.Query().Get("error")),
		cfg.Newsletter.HMAC.Secret,
		location.Query().Get("tag"),
	))
}

func TestLoginHandlerSuccess(t *testing.T) {
	authService := new(mock.AuthService)
	authService.On("ValidateCredentials", tmock.Anything, letterbox.Credentials{Username: "editor", Password: "right"}).
		Return("user-1", nil)
	s.AuthService = authService

	body := url.Values{}
	body.Set("username", "editor")
	body.Set("password", "right")

	req, err := http.NewRequest(http.MethodPost, "/login", strings.NewReader(body.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestUnsubscribeHandler(t *testing.T) {
	email := "foo@gmail.com"
	hashValue, err := hash.ComputeHmac256(email, cfg.Newsletter.HMAC.Secret)
	require.NoError(t, err)

	subscriptionService := new(mock.SubscriptionService)
	subscriptionService.On("Unsubscribe", tmock.Anything, email).Return(nil)
	s.SubscriptionService = subscriptionService

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("/unsubscribe?email=%s&hash=%s", url.QueryEscape(email), url.QueryEscape(hashValue)), nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp *letterbox.SubscriptionResponse
	require.NoError(t, json.NewDecoder(w.Result().Body).Decode(&resp))
	assert.Equal(t, unsubscribeMessage, resp.Message)
}

func TestUnsubscribeHandlerInvalidHash(t *testing.T) {
	subscriptionService := new(mock.SubscriptionService)
	s.SubscriptionService = subscriptionService

	req, err := http.NewRequest(http.MethodGet, "/unsubscribe?email=foo@gmail.com&hash=bogus", nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	subscriptionService.AssertNotCalled(t, "Unsubscribe", tmock.Anything, tmock.Anything)
}
