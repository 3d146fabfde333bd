package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// AlgEdDSA es el único algoritmo de firma emitido por el servidor.
const AlgEdDSA = "EdDSA"

// KeySet mantiene una sola clave activa. Sin rotación: la clave vive en un archivo local.
type KeySet struct {
	Priv ed25519.PrivateKey
	Pub  ed25519.PublicKey
	KID  string
	Alg  string // "EdDSA"
}

// keyFileData representa el archivo de clave en disco.
type keyFileData struct {
	KID       string    `json:"kid"`
	Algorithm string    `json:"algorithm"`
	Seed      string    `json:"seed"` // base64 std de la seed Ed25519 (32 bytes)
	CreatedAt time.Time `json:"created_at"`
}

// Generate genera una clave Ed25519 en memoria. Si kid es vacío se deriva uno por fecha.
func Generate(kid string) (*KeySet, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	if kid == "" {
		kid = "fg-" + time.Now().UTC().Format("20060102150405")
	}
	return &KeySet{Priv: priv, Pub: pub, KID: kid, Alg: AlgEdDSA}, nil
}

// LoadFile lee una clave escrita por WriteFile.
func LoadFile(path string) (*KeySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var kf keyFileData
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse key file: %w", err)
	}
	if kf.Algorithm != "" && kf.Algorithm != AlgEdDSA {
		return nil, fmt.Errorf("unsupported key algorithm %q", kf.Algorithm)
	}
	seed, err := base64.StdEncoding.DecodeString(kf.Seed)
	if err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed length %d", len(seed))
	}
	if kf.KID == "" {
		return nil, errors.New("key file without kid")
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &KeySet{
		Priv: priv,
		Pub:  priv.Public().(ed25519.PublicKey),
		KID:  kf.KID,
		Alg:  AlgEdDSA,
	}, nil
}

// WriteFile persiste la clave con permisos 0600.
// Escritura atómica: write tmp → rename.
func (k *KeySet) WriteFile(path string) error {
	kf := keyFileData{
		KID:       k.KID,
		Algorithm: AlgEdDSA,
		Seed:      base64.StdEncoding.EncodeToString(k.Priv.Seed()),
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create key directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadOrGenerate carga la clave de path; si no existe, genera una nueva y la escribe.
// Con path vacío la clave es efímera (solo dev).
func LoadOrGenerate(path, kid string) (*KeySet, bool, error) {
	if path == "" {
		k, err := Generate(kid)
		return k, true, err
	}
	k, err := LoadFile(path)
	if err == nil {
		return k, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}
	k, err = Generate(kid)
	if err != nil {
		return nil, false, err
	}
	if err := k.WriteFile(path); err != nil {
		return nil, false, fmt.Errorf("write generated key: %w", err)
	}
	return k, true, nil
}

// ----- JWKS (serialización) -----

type jwk struct {
	Kty string `json:"kty"` // "OKP"
	Crv string `json:"crv"` // "Ed25519"
	Kid string `json:"kid"`
	Alg string `json:"alg"` // "EdDSA"
	Use string `json:"use"` // "sig"
	X   string `json:"x"`   // base64url(pub)
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// JWKSJSON devuelve el JWKS (solo la pública) en JSON.
func (k *KeySet) JWKSJSON() []byte {
	j := jwks{
		Keys: []jwk{{
			Kty: "OKP",
			Crv: "Ed25519",
			Kid: k.KID,
			Alg: AlgEdDSA,
			Use: "sig",
			X:   base64.RawURLEncoding.EncodeToString(k.Pub),
		}},
	}
	b, _ := json.Marshal(j)
	return b
}
