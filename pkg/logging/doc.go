// Package logging provides structured logging for agrinode on top of Zap.
//
// Loggers are created from a Config and expose context-aware methods so
// request and poll correlation fields are attached automatically:
//
//	logger, err := logging.NewLogger(logging.NewDefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRequestID(ctx, "req_123")
//	logger.Info(ctx, "crop recommended", zap.String("crop", "rice"))
//
// Tests use NewTestLogger to assert on emitted entries.
package logging
