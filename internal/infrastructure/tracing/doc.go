/*
Package tracing provides request tracing for the HTTP and websocket API.

# Overview

Every request gets a span. Trace context is continued from the X-Trace-ID
and X-Span-ID headers when a caller sends them and echoed back in the
response, so a browser console, a proxy log and the server log can be
correlated.

# Usage

	tracer := tracing.New("console-workspace", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "ws.session")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

# Performance

Spans are buffered (1000) and logged by a single collector goroutine. A
full buffer drops spans instead of blocking requests.
*/
package tracing
