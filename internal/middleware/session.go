package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"donortrack/internal/domain"
)

// SessionClaims is the payload of an event session token.
type SessionClaims struct {
	EventID string      `json:"event_id"`
	Role    domain.Role `json:"role"`
	Exp     int64       `json:"exp"`
}

var (
	errMalformedToken = errors.New("invalid token")
	errBadSignature   = errors.New("invalid signature")
	errExpiredToken   = errors.New("token expired")
)

type (
	accessKey struct{}
	expiryKey struct{}
)

// SignSession issues an HS256 token for claims.
func SignSession(secret string, claims SessionClaims) (string, error) {
	header := map[string]string{"alg": "HS256", "typ": "JWT"}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	data := base64.RawURLEncoding.EncodeToString(headerJSON) + "." + base64.RawURLEncoding.EncodeToString(payloadJSON)
	return data + "." + hmacSign(secret, data), nil
}

func hmacSign(secret, data string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySession checks signature, expiry and role of a token at now.
func VerifySession(secret, token string, now time.Time) (*SessionClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errMalformedToken
	}
	expected := hmacSign(secret, parts[0]+"."+parts[1])
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return nil, errBadSignature
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, errMalformedToken
	}
	var claims SessionClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, errMalformedToken
	}
	if claims.Exp == 0 || now.Unix() > claims.Exp {
		return nil, errExpiredToken
	}
	if _, err := domain.ParseRole(string(claims.Role)); err != nil || claims.EventID == "" {
		return nil, errMalformedToken
	}
	return &claims, nil
}

// Session resolves a bearer token into a domain.Access on the request
// context. Requests without a token pass through with no access; requests
// with a bad token are rejected. EventSource clients, which cannot set
// headers, may send the token as the access_token query parameter.
func Session(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := VerifySession(secret, token, time.Now())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}
			access := domain.Access{EventID: claims.EventID, Role: claims.Role}
			ctx := ContextWithAccess(r.Context(), access)
			ctx = context.WithValue(ctx, expiryKey{}, time.Unix(claims.Exp, 0))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && strings.TrimSpace(parts[1]) != "" {
			return strings.TrimSpace(parts[1]), true
		}
		return "", true
	}
	if t := r.URL.Query().Get("access_token"); t != "" {
		return t, true
	}
	return "", false
}

// AccessFromContext returns the caller's access, the zero value when none.
func AccessFromContext(ctx context.Context) domain.Access {
	if v, ok := ctx.Value(accessKey{}).(domain.Access); ok {
		return v
	}
	return domain.Access{}
}

// SessionExpiry returns when the caller's session token stops verifying.
func SessionExpiry(ctx context.Context) (time.Time, bool) {
	exp, ok := ctx.Value(expiryKey{}).(time.Time)
	return exp, ok
}

// ContextWithAccess stores access on ctx.
func ContextWithAccess(ctx context.Context, access domain.Access) context.Context {
	return context.WithValue(ctx, accessKey{}, access)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
