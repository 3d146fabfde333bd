// Package logger provides the process-wide zap logger with context-based scoping.
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context scoping: cada request lleva un logger con request_id, method y path;
//     services y repositories lo recuperan con From(ctx).
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//
// Inicialización (una vez en cmd/facegate):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "facegate"})
//	defer logger.Sync()
//
// En controllers/services:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.token.authcode"))
//	log.Info("authorization_code exchanged", logger.ClientID(clientID))
//
// Nunca loguear códigos, tokens, secretos ni vectores biométricos en crudo.
package logger
