package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Errors returned by the token functions. They carry no payload; callers
// only ever turn them into an HTTP-401.
var (
	ErrNoToken      = errors.New("no authorization header present")
	ErrTokenFormat  = errors.New("authorization header not in Bearer format")
	ErrTokenInvalid = errors.New("token is invalid or expired")
)

const tokenIssuer = "langlab"

// generateToken mints a session JWT for the operator. The signing key is the
// configured secret concatenated with the operator's password hash, so
// changing the password invalidates every previously issued token without
// any server-side session state.
func generateToken(secret, passwordHash []byte) (string, error) {
	claims := &jwt.MapClaims{
		"iss": tokenIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
		"sub": "operator",
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)

	tokStr, err := tok.SignedString(signingKey(secret, passwordHash))
	if err != nil {
		return "", err
	}
	return tokStr, nil
}

// validateToken checks a token string minted by generateToken.
func validateToken(tok string, secret, passwordHash []byte) error {
	_, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		return signingKey(secret, passwordHash), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer(tokenIssuer), jwt.WithLeeway(time.Minute))

	if err != nil {
		return ErrTokenInvalid
	}
	return nil
}

// getToken pulls the bearer token out of req's Authorization header.
func getToken(req *http.Request) (string, error) {
	authHeader := strings.TrimSpace(req.Header.Get("Authorization"))

	if authHeader == "" {
		return "", ErrNoToken
	}

	authParts := strings.SplitN(authHeader, " ", 2)
	if len(authParts) != 2 {
		return "", ErrTokenFormat
	}

	scheme := strings.TrimSpace(strings.ToLower(authParts[0]))
	token := strings.TrimSpace(authParts[1])

	if scheme != "bearer" {
		return "", ErrTokenFormat
	}

	return token, nil
}

func signingKey(secret, passwordHash []byte) []byte {
	var signKey []byte
	signKey = append(signKey, secret...)
	signKey = append(signKey, passwordHash...)
	return signKey
}
