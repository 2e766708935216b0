// Package logger builds *slog.Logger instances for the profiler client and
// provides attribute helpers that keep key names consistent.
//
// New takes functional options for format (text or json), level, output,
// static attributes and context extractors. Extractors run through
// LogHandlerDecorator on every record; WithVisitorContext wires the visitor and
// session identifiers stored by ContextWithVisitor.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithLevelName(cfg.LogLevel),
//	    logger.WithFormatName(cfg.LogFormat),
//	    logger.WithComponent("profiler"),
//	    logger.WithVisitorContext(),
//	)
//
//	ctx = logger.ContextWithVisitor(ctx, ref, sid)
//	log.WarnContext(ctx, "push failed", logger.Endpoint(url), logger.Error(err))
//
// Helpers such as Error, VisitorRef and SessionID return an empty slog.Attr for
// empty input, so call sites need no nil checks.
package logger
