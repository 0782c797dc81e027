// Package logger provee un logger estructurado (zap) como singleton de proceso.
//
// Uso típico:
//
//	logger.Init(logger.Config{Env: "prod", Level: "info", ServiceName: "usersapp"})
//	defer logger.Sync()
//
//	log := logger.From(ctx) // scoped si el middleware lo inyectó
//	log.Info("user created", logger.UserID(id))
package logger
