package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// Largos en bytes de los valores aleatorios emitidos por el servidor.
const (
	CodeBytes         = 32
	AccessTokenBytes  = 32
	RefreshTokenBytes = 48
)

// PKCEMethodS256 es el único code_challenge_method soportado.
const PKCEMethodS256 = "S256"

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateHex genera nBytes aleatorios codificados en hexadecimal.
func GenerateHex(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// SHA256Base64URL devuelve sha256(input) en base64url sin padding (para guardar en DB).
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// VerifyPKCE valida un code_verifier contra el challenge guardado.
// Solo S256; "plain" no se acepta.
func VerifyPKCE(verifier, challenge, method string) bool {
	if verifier == "" || challenge == "" || !strings.EqualFold(method, PKCEMethodS256) {
		return false
	}
	got := SHA256Base64URL(verifier)
	return subtle.ConstantTimeCompare([]byte(got), []byte(challenge)) == 1
}
