/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// EnvAuthSecret enables bearer-token auth on the API when set.
const EnvAuthSecret = "TS_AUTH_SECRET"

var errUnauthorized = errors.New("unauthorized")

type tokenClaims struct {
	Sub string `json:"sub"`
	Exp int64  `json:"exp"`
}

// SignToken issues an HMAC-signed token for subject valid for ttl.
func SignToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("auth secret is empty")
	}
	b, err := json.Marshal(tokenClaims{Sub: subject, Exp: time.Now().Add(ttl).Unix()})
	if err != nil {
		return "", err
	}
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write(b)
	return base64.RawURLEncoding.EncodeToString(b) + "." + base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

// VerifyToken checks signature and expiry and returns the subject.
func VerifyToken(secret, token string) (string, error) {
	payload, sig, ok := strings.Cut(token, ".")
	if !ok {
		return "", fmt.Errorf("%w: token format", errUnauthorized)
	}
	pb, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: token payload", errUnauthorized)
	}
	sb, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", fmt.Errorf("%w: token signature", errUnauthorized)
	}
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write(pb)
	if !hmac.Equal(h.Sum(nil), sb) {
		return "", fmt.Errorf("%w: bad signature", errUnauthorized)
	}
	var claims tokenClaims
	if err := json.Unmarshal(pb, &claims); err != nil {
		return "", fmt.Errorf("%w: bad claims", errUnauthorized)
	}
	if claims.Exp < time.Now().Unix() {
		return "", fmt.Errorf("%w: token expired", errUnauthorized)
	}
	return claims.Sub, nil
}

// requireToken rejects requests without a valid bearer token.
func requireToken(secret string) fiber.Handler {
	return func(c fiber.Ctx) error {
		auth := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		sub, err := VerifyToken(secret, strings.TrimSpace(token))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		c.Locals("subject", sub)
		return c.Next()
	}
}
