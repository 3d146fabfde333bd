package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Leeway tolerado en exp/nbf/iat.
const Leeway = 30 * time.Second

// ParseEdDSA valida firma (EdDSA) con la clave del issuer, chequea iss
// (si expectedIss != "") y valida exp/nbf con Leeway.
// Devuelve las claims como map[string]any.
func ParseEdDSA(token string, i *Issuer, expectedIss string) (map[string]any, error) {
	return parse(token, i.Keyfunc(), []string{AlgEdDSA}, expectedIss)
}

// ParseHS256 valida un token firmado con un secreto compartido.
func ParseHS256(token string, secret []byte, expectedIss string) (map[string]any, error) {
	keyfunc := func(*jwtv5.Token) (any, error) { return secret, nil }
	return parse(token, keyfunc, []string{jwtv5.SigningMethodHS256.Alg()}, expectedIss)
}

func parse(token string, keyfunc jwtv5.Keyfunc, methods []string, expectedIss string) (map[string]any, error) {
	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods(methods),
		jwtv5.WithLeeway(Leeway),
	}
	if expectedIss != "" {
		opts = append(opts, jwtv5.WithIssuer(expectedIss))
	}
	tok, err := jwtv5.Parse(token, keyfunc, opts...)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenInvalidIssuer) {
			return nil, ErrInvalidIssuer
		}
		return nil, ErrInvalidJWT
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok || !tok.Valid {
		return nil, ErrInvalidJWT
	}
	out := make(map[string]any, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out, nil
}
