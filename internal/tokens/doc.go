// Package tokens mints and verifies the HS256 access/refresh token pair.
//
// Both token kinds carry the same claim set (sub, email, iat, exp, jti) and
// differ only in signing secret and lifetime, so a token can only ever be
// verified by the verifier of its own kind.
package tokens
