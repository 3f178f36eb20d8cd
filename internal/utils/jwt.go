package utils // package utils provides helper functions for token creation and validation

import (
    "strconv" // string-to-int conversion for string subjects
    "time"    // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.  Access tokens are stateless bearer credentials
// encoded in the Authorization header when calling protected endpoints;
// there is no server-side session or revocation list behind them.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// Claims is the decoded payload of a valid access token: the subject user id
// and the email recorded at issue time.
type Claims struct {
    UserID uint64
    Email  string
}

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the user ID, the user's email, and a TTL in minutes.  The
// JWT carries standard claims: subject (sub), email, expiration (exp) and
// issued at (iat).
func NewAccessToken(secret string, userID uint64, email string, ttlMin int) (AccessToken, error) {
    // Calculate the expiration time by adding the TTL to the current UTC time.
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":   userID,
        "email": email,
        "exp":   exp.Unix(),
        "iat":   time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of a raw token string
// and extracts its claims.  The boolean result is false for malformed,
// expired or wrongly-signed tokens; verification failure is an expected
// outcome for callers, not an error.
func ParseAccessToken(secret, raw string) (Claims, bool) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        // Type assert the signing method to HMAC; reject others.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, jwt.ErrSignatureInvalid
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return Claims{}, false
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return Claims{}, false
    }
    var out Claims
    // JWT numbers decode as float64; tolerate string subjects from older tokens.
    switch sub := mc["sub"].(type) {
    case float64:
        out.UserID = uint64(sub)
    case string:
        if n, err := strconv.ParseUint(sub, 10, 64); err == nil {
            out.UserID = n
        }
    }
    if out.UserID == 0 {
        return Claims{}, false
    }
    if email, ok := mc["email"].(string); ok {
        out.Email = email
    }
    return out, true
}
