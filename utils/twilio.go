package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/client"
)

// TwilioSignatureMiddleware rejects webhook calls whose X-Twilio-Signature
// does not match the request URL and form parameters. publicURL is the
// scheme and host Twilio posts to; when empty it is taken from the request.
func TwilioSignatureMiddleware(authToken, publicURL string) gin.HandlerFunc {
	validator := client.NewRequestValidator(authToken)
	publicURL = strings.TrimRight(publicURL, "/")

	return func(c *gin.Context) {
		if authToken == "" {
			RespondWithError(c, http.StatusForbidden, "Webhook signature validation is not configured")
			return
		}
		sig := c.GetHeader("X-Twilio-Signature")
		if sig == "" {
			RespondWithError(c, http.StatusForbidden, "Missing Twilio signature")
			return
		}
		if err := c.Request.ParseForm(); err != nil {
			RespondWithError(c, http.StatusBadRequest, "Invalid form body")
			return
		}

		params := make(map[string]string, len(c.Request.PostForm))
		for k, v := range c.Request.PostForm {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
		if !validator.Validate(callbackURL(c.Request, publicURL), params, sig) {
			RespondWithError(c, http.StatusForbidden, "Invalid Twilio signature")
			return
		}
		c.Next()
	}
}

func callbackURL(r *http.Request, publicURL string) string {
	if publicURL != "" {
		return publicURL + r.URL.RequestURI()
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
