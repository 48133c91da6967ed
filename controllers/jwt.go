package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"os"
	"time"
)

// O login fica fora deste serviço; aqui só validamos tokens HS256 emitidos com o mesmo segredo.
// SignToken existe para o comando "zapcrm token" (dev) e para os testes.

func getJWTSecret(app *App) string {
	if app != nil && app.JwtSecret != "" {
		return app.JwtSecret
	}
	secret := getenv("JWT_SECRET", "")
	if secret == "" {
		secret = "CHANGE_ME"
	}
	return secret
}

// SignToken emite um token para (user, org) válido por ttl.
func SignToken(secret string, userID, orgID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	return signHS256JWT(secret, map[string]any{
		"sub": userID,
		"org": orgID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
}

func signHS256JWT(secret string, claims map[string]any) (string, error) {
	// Header
	header := map[string]any{"alg": "HS256", "typ": "JWT"}
	headB, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	// Payload
	payloadB, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	enc := base64.RawURLEncoding
	unsigned := enc.EncodeToString(headB) + "." + enc.EncodeToString(payloadB)

	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write([]byte(unsigned))
	sig := enc.EncodeToString(h.Sum(nil))
	return unsigned + "." + sig, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
