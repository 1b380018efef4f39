package utils

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePhone(t *testing.T) {
	valid := []string{"+5511999990000", "+1 (415) 523-8886", "+44.20.7946.0958"}
	for _, p := range valid {
		assert.True(t, ValidatePhone(p), p)
	}
	invalid := []string{"", "5511999990000", "+0511999990000", "+1234", "+55119999900001234"}
	for _, p := range invalid {
		assert.False(t, ValidatePhone(p), p)
	}
	assert.Equal(t, "+14155238886", NormalizePhone(" +1 (415) 523-8886 "))
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("ana.souza+clinic@example.com"))
	assert.True(t, ValidateEmail(" ana@example.co.uk "))
	assert.False(t, ValidateEmail("ana@"))
	assert.False(t, ValidateEmail("ana.example.com"))
	assert.False(t, ValidateEmail(""))
}

func TestParseDateParam(t *testing.T) {
	loc := time.FixedZone("clinic", -3*3600)

	got, err := ParseDateParam("", loc)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseDateParam("2024-01-10", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 1, 10, 3, 0, 0, 0, time.UTC)))

	got, err = ParseDateParam("2024-01-10T14:00:00Z", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC)))

	_, err = ParseDateParam("10/01/2024", loc)
	assert.Error(t, err)
}

func TestDayBoundaries(t *testing.T) {
	loc := time.FixedZone("clinic", -3*3600)
	at := time.Date(2024, 1, 31, 22, 30, 0, 0, loc)

	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, loc), BeginningOfDay(at))
	next := NextDay(at)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, loc), next)
	assert.Equal(t, loc, next.Location())
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const secret = "test-secret"

	r := gin.New()
	r.GET("/private", AuthMiddleware(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("role"))
	})

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer garbage").Code)

	other, err := GenerateToken("another-secret", "u1", "admin", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+other).Code)

	token, err := GenerateToken(secret, "u1", "admin", time.Hour)
	require.NoError(t, err)
	w := call("Bearer " + token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", w.Body.String())

	_, err = GenerateToken("", "u1", "admin", time.Hour)
	assert.Error(t, err)
}

func twilioSignature(token, target string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	payload := target
	for _, k := range keys {
		payload += k + form.Get(k)
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestTwilioSignatureMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const token = "twilio-token"

	newRouter := func(authToken, publicURL string) *gin.Engine {
		r := gin.New()
		r.POST("/webhooks/status", TwilioSignatureMiddleware(authToken, publicURL), func(c *gin.Context) {
			c.String(http.StatusOK, c.PostForm("MessageStatus"))
		})
		return r
	}
	form := url.Values{"MessageSid": {"SM1"}, "MessageStatus": {"delivered"}}
	call := func(r *gin.Engine, sig string, proto string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/status", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if sig != "" {
			req.Header.Set("X-Twilio-Signature", sig)
		}
		if proto != "" {
			req.Header.Set("X-Forwarded-Proto", proto)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	public := newRouter(token, "https://clinic.example/")
	signed := twilioSignature(token, "https://clinic.example/webhooks/status", form)

	assert.Equal(t, http.StatusForbidden, call(public, "", "").Code)
	assert.Equal(t, http.StatusForbidden, call(public, twilioSignature("other", "https://clinic.example/webhooks/status", form), "").Code)
	w := call(public, signed, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "delivered", w.Body.String())

	// without a public URL the request's own host is signed
	derived := newRouter(token, "")
	assert.Equal(t, http.StatusOK, call(derived, twilioSignature(token, "https://example.com/webhooks/status", form), "https").Code)
	assert.Equal(t, http.StatusForbidden, call(derived, signed, "https").Code)

	assert.Equal(t, http.StatusForbidden, call(newRouter("", ""), signed, "").Code)
}
