package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/username/strperformance/backend/src/logger"
	"github.com/username/strperformance/backend/src/utils"
)

const (
	CSRFCookieName = "str_csrf"
	CSRFHeaderName = "X-CSRF-Token"
)

// CSRFTokens mints and checks double-submit tokens of the form nonce.signature,
// where signature is an HMAC of the nonce under the configured key.
type CSRFTokens struct {
	key []byte
}

func NewCSRFTokens(key []byte) *CSRFTokens {
	return &CSRFTokens{key: key}
}

func (c *CSRFTokens) sign(nonce string) string {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(nonce))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Generate returns a fresh signed token.
func (c *CSRFTokens) Generate() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate csrf nonce: %w", err)
	}
	nonce := base64.RawURLEncoding.EncodeToString(b)
	return nonce + "." + c.sign(nonce), nil
}

// Valid reports whether token carries a signature made with our key.
func (c *CSRFTokens) Valid(token string) bool {
	nonce, sig, ok := strings.Cut(token, ".")
	if !ok || nonce == "" || sig == "" {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(c.sign(nonce)))
}

// GetCSRFToken sets the CSRF cookie and echoes the same token for the client to send back as a header.
func (c *CSRFTokens) GetCSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := c.Generate()
	if err != nil {
		logger.FromContext(r.Context()).Error("Error generating CSRF token", "error", err)
		utils.SendJSONError(w, "Failed to generate CSRF token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		MaxAge:   3600,
	})
	w.Header().Set(CSRFHeaderName, token)
	utils.SendJSON(w, map[string]string{"csrfToken": token}, http.StatusOK)
}

// Middleware enforces the double-submit check on state-changing methods.
func (c *CSRFTokens) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		headerToken := r.Header.Get(CSRFHeaderName)
		cookie, errCookie := r.Cookie(CSRFCookieName)
		if headerToken != "" && errCookie == nil &&
			hmac.Equal([]byte(headerToken), []byte(cookie.Value)) && c.Valid(headerToken) {
			next.ServeHTTP(w, r)
			return
		}

		var cookieErrorForLog interface{}
		if errCookie != nil {
			cookieErrorForLog = errCookie.Error()
		}
		logger.FromContext(r.Context()).Warn("CSRF Validation Failed",
			slog.String("method", r.Method),
			slog.String("url", r.URL.String()),
			slog.Bool("headerTokenExists", headerToken != ""),
			slog.Any("cookieError", cookieErrorForLog),
			slog.String("origin", r.Header.Get("Origin")),
		)
		utils.SendJSONError(w, "CSRF token validation failed", http.StatusForbidden)
	})
}
