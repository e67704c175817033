package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid token")

// SessionClaims identify a logged-in user.
type SessionClaims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

// ActivationClaims carry a pending registration until the OTP is confirmed.
type ActivationClaims struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	OTPDigest    string `json:"otp"`
	jwt.RegisteredClaims
}

// ResetClaims carry a password reset request. Fingerprint is derived from the password
// hash at issue time, so the token stops working once the password changes.
type ResetClaims struct {
	Email       string `json:"email"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

func expiresIn(ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func sign(claims jwt.Claims, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parse(tokenString, secret string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

func GenerateSessionToken(userID, secret string, ttl time.Duration) (string, error) {
	return sign(SessionClaims{UserID: userID, RegisteredClaims: expiresIn(ttl)}, secret)
}

func ParseSessionToken(tokenString, secret string) (string, error) {
	var claims SessionClaims
	if err := parse(tokenString, secret, &claims); err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

func GenerateActivationToken(claims ActivationClaims, secret string, ttl time.Duration) (string, error) {
	claims.RegisteredClaims = expiresIn(ttl)
	return sign(claims, secret)
}

func ParseActivationToken(tokenString, secret string) (*ActivationClaims, error) {
	var claims ActivationClaims
	if err := parse(tokenString, secret, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

func GenerateResetToken(email, passwordHash, secret string, ttl time.Duration) (string, error) {
	claims := ResetClaims{
		Email:            email,
		Fingerprint:      Digest(secret, passwordHash),
		RegisteredClaims: expiresIn(ttl),
	}
	return sign(claims, secret)
}

func ParseResetToken(tokenString, secret string) (*ResetClaims, error) {
	var claims ResetClaims
	if err := parse(tokenString, secret, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// Digest returns the hex HMAC-SHA256 of parts joined with "|".
func Digest(secret string, parts ...string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	for i, p := range parts {
		if i > 0 {
			mac.Write([]byte("|"))
		}
		mac.Write([]byte(p))
	}
	return hex.EncodeToString(mac.Sum(nil))
}

// DigestEqual compares a digest in constant time.
func DigestEqual(digest, secret string, parts ...string) bool {
	return hmac.Equal([]byte(digest), []byte(Digest(secret, parts...)))
}
