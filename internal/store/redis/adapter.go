// Package redis implementa un adapter de grants (códigos y tokens) sobre Redis.
// No provee clientes ni identidades: se usa como driver de grants junto a
// otro adapter principal.
//
// Claves (con prefijo configurable):
//
//	<prefix>code:<hash>  JSON del código, TTL hasta expires_at
//	<prefix>tok:<hash>   JSON del token, TTL hasta expires_at
//	<prefix>sub:<user>   SET con las claves anteriores del usuario (purge)
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
	"github.com/dropDatabas3/facegate/internal/store"
)

func init() {
	store.RegisterAdapter(&redisAdapter{})
}

// Margen sobre expires_at antes de que Redis descarte la entrada.
const expiryGrace = time.Minute

type redisAdapter struct{}

func (a *redisAdapter) Name() string { return "redis" }

func (a *redisAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.AdapterConnection, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verificar conexión
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "facegate:"
	}
	return New(rdb, prefix), nil
}

// Connection implementa store.AdapterConnection (solo Grants).
type Connection struct {
	client *redis.Client
	prefix string
}

// New envuelve un cliente existente.
func New(client *redis.Client, prefix string) *Connection {
	return &Connection{client: client, prefix: prefix}
}

func (c *Connection) Name() string { return "redis" }

func (c *Connection) Ping(ctx context.Context) error { return c.client.Ping(ctx).Err() }

func (c *Connection) Close() error { return c.client.Close() }

func (c *Connection) Clients() repository.ClientRepository { return nil }

func (c *Connection) Users() repository.UserRepository { return nil }

func (c *Connection) Templates() repository.TemplateRepository { return nil }

func (c *Connection) Enroller() repository.Enroller { return nil }

func (c *Connection) Grants() repository.GrantRepository { return c }

func (c *Connection) codeKey(hash string) string { return c.prefix + "code:" + hash }
func (c *Connection) tokKey(hash string) string { return c.prefix + "tok:" + hash }
func (c *Connection) subKey(user string) string { return c.prefix + "sub:" + user }

// saveScript hace SET NX + índice por sujeto en un solo paso.
// El TTL del índice nunca baja.
var saveScript = redis.NewScript(`
if redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2], 'NX') then
  redis.call('SADD', KEYS[2], KEYS[1])
  local cur = redis.call('PTTL', KEYS[2])
  if cur < tonumber(ARGV[2]) then
    redis.call('PEXPIRE', KEYS[2], ARGV[2])
  end
  return 1
end
return 0
`)

// takeScript lee y borra una clave y la quita del índice del sujeto en un
// solo paso. Con ARGV[1] no vacío solo borra si el kind coincide.
var takeScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then return false end
local g = cjson.decode(v)
if ARGV[1] ~= '' and g.kind ~= ARGV[1] then return false end
redis.call('DEL', KEYS[1])
if type(g.user_id) == 'string' then
  redis.call('SREM', ARGV[2] .. g.user_id, KEYS[1])
end
return v
`)

// purgeScript borra todas las claves indexadas para el sujeto.
var purgeScript = redis.NewScript(`
local members = redis.call('SMEMBERS', KEYS[1])
local codes, toks = 0, 0
for _, k in ipairs(members) do
  if redis.call('DEL', k) == 1 then
    if string.find(k, ARGV[1], 1, true) == 1 then codes = codes + 1 else toks = toks + 1 end
  end
end
redis.call('DEL', KEYS[1])
return {codes, toks}
`)

func ttlUntil(exp time.Time) time.Duration {
	d := time.Until(exp) + expiryGrace
	if d < time.Second {
		d = time.Second
	}
	return d
}

func (c *Connection) save(ctx context.Context, key, userID string, v any, exp time.Time) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ok, err := saveScript.Run(ctx, c.client, []string{key, c.subKey(userID)}, raw, ttlUntil(exp).Milliseconds()).Int()
	if err != nil {
		return err
	}
	if ok == 0 {
		return repository.ErrConflict
	}
	return nil
}

type codeJSON struct {
	ClientID            string    `json:"client_id"`
	UserID              string    `json:"user_id"`
	RedirectURI         string    `json:"redirect_uri"`
	Scope               string    `json:"scope"`
	Nonce               string    `json:"nonce"`
	CodeChallenge       string    `json:"code_challenge"`
	CodeChallengeMethod string    `json:"code_challenge_method"`
	AuthTime            time.Time `json:"auth_time"`
	ExpiresAt           time.Time `json:"expires_at"`
}

type tokenJSON struct {
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id"`
	ClientID  string    `json:"client_id"`
	Scope     string    `json:"scope"`
	Nonce     string    `json:"nonce"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *Connection) SaveCode(ctx context.Context, ac repository.AuthCode) error {
	return c.save(ctx, c.codeKey(ac.CodeHash), ac.UserID, codeJSON{
		ClientID: ac.ClientID, UserID: ac.UserID, RedirectURI: ac.RedirectURI, Scope: ac.Scope, Nonce: ac.Nonce,
		CodeChallenge: ac.CodeChallenge, CodeChallengeMethod: ac.CodeChallengeMethod,
		AuthTime: ac.AuthTime, ExpiresAt: ac.ExpiresAt,
	}, ac.ExpiresAt)
}

// take ejecuta takeScript; redis.Nil si la clave no existe o el kind no coincide.
func (c *Connection) take(ctx context.Context, key, kind string) ([]byte, error) {
	raw, err := takeScript.Run(ctx, c.client, []string{key}, kind, c.prefix+"sub:").Text()
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

// ConsumeCode es atómico en el servidor (takeScript).
func (c *Connection) ConsumeCode(ctx context.Context, codeHash string) (*repository.AuthCode, error) {
	raw, err := c.take(ctx, c.codeKey(codeHash), "")
	if err != nil {
		return nil, mapError(err)
	}
	var j codeJSON
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, fmt.Errorf("redis: decode code: %w", err)
	}
	return &repository.AuthCode{
		CodeHash: codeHash, ClientID: j.ClientID, UserID: j.UserID, RedirectURI: j.RedirectURI,
		Scope: j.Scope, Nonce: j.Nonce, CodeChallenge: j.CodeChallenge, CodeChallengeMethod: j.CodeChallengeMethod,
		AuthTime: j.AuthTime, ExpiresAt: j.ExpiresAt,
	}, nil
}

func (c *Connection) SaveToken(ctx context.Context, t repository.Token) error {
	return c.save(ctx, c.tokKey(t.TokenHash), t.UserID, tokenJSON{
		Kind: t.Kind, UserID: t.UserID, ClientID: t.ClientID, Scope: t.Scope, Nonce: t.Nonce,
		IssuedAt: t.IssuedAt, ExpiresAt: t.ExpiresAt,
	}, t.ExpiresAt)
}

func (c *Connection) GetToken(ctx context.Context, tokenHash string) (*repository.Token, error) {
	raw, err := c.client.Get(ctx, c.tokKey(tokenHash)).Bytes()
	if err != nil {
		return nil, mapError(err)
	}
	return decodeToken(tokenHash, raw)
}

func (c *Connection) ConsumeToken(ctx context.Context, tokenHash, kind string) (*repository.Token, error) {
	raw, err := c.take(ctx, c.tokKey(tokenHash), kind)
	if err != nil {
		return nil, mapError(err)
	}
	return decodeToken(tokenHash, raw)
}

func (c *Connection) DeleteToken(ctx context.Context, tokenHash string) error {
	if _, err := c.take(ctx, c.tokKey(tokenHash), ""); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (c *Connection) PurgeSubject(ctx context.Context, userID string) (int, int, error) {
	res, err := purgeScript.Run(ctx, c.client, []string{c.subKey(userID)}, c.prefix+"code:").Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("redis: unexpected purge reply %v", res)
	}
	return int(res[0]), int(res[1]), nil
}

func decodeToken(hash string, raw []byte) (*repository.Token, error) {
	var j tokenJSON
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, fmt.Errorf("redis: decode token: %w", err)
	}
	return &repository.Token{
		TokenHash: hash, Kind: j.Kind, UserID: j.UserID, ClientID: j.ClientID, Scope: j.Scope,
		Nonce: j.Nonce, IssuedAt: j.IssuedAt, ExpiresAt: j.ExpiresAt,
	}, nil
}

func mapError(err error) error {
	if errors.Is(err, redis.Nil) {
		return repository.ErrNotFound
	}
	return err
}
