package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field es un alias de zap.Field para no importar zap en cada capa.
type Field = zap.Field

// ---- HTTP ----

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field { return zap.String("request_id", v) }

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field { return zap.String("method", v) }

// Path crea un campo para el path del request.
func Path(v string) zap.Field { return zap.String("path", v) }

// Route crea un campo para el patrón de ruta (chi).
func Route(v string) zap.Field { return zap.String("route", v) }

// Status crea un campo para el status HTTP.
func Status(v int) zap.Field { return zap.Int("status", v) }

// Duration crea un campo para una duración.
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }

// Bytes crea un campo para los bytes escritos.
func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// UserAgent crea un campo para el User-Agent.
func UserAgent(v string) zap.Field { return zap.String("user_agent", v) }

// ---- OAuth / biometría ----

// ClientID crea un campo para el client_id OAuth.
func ClientID(v string) zap.Field { return zap.String("client_id", v) }

// UserID crea un campo para el ID de usuario (subject).
func UserID(v string) zap.Field { return zap.String("user_id", v) }

// GrantType crea un campo para el grant_type del token endpoint.
func GrantType(v string) zap.Field { return zap.String("grant_type", v) }

// Action crea un campo para la acción biométrica (enroll | authenticate).
func Action(v string) zap.Field { return zap.String("action", v) }

// Outcome crea un campo para el resultado de una operación.
func Outcome(v string) zap.Field { return zap.String("outcome", v) }

// Distance crea un campo para la distancia de matching.
func Distance(v float64) zap.Field { return zap.Float64("distance", v) }

// ---- Sistema ----

// Component crea un campo para el componente.
func Component(v string) zap.Field { return zap.String("component", v) }

// Op crea un campo para la operación actual.
func Op(v string) zap.Field { return zap.String("op", v) }

// Layer crea un campo para la capa (controller, service, repository).
func Layer(v string) zap.Field { return zap.String("layer", v) }

// Err crea un campo para un error.
func Err(err error) zap.Field { return zap.Error(err) }

// Count crea un campo para un conteo.
func Count(v int) zap.Field { return zap.Int("count", v) }

// ---- Genéricos ----

func Any(key string, v any) zap.Field { return zap.Any(key, v) }
func String(key, v string) zap.Field { return zap.String(key, v) }
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Float(key string, v float64) zap.Field { return zap.Float64(key, v) }
