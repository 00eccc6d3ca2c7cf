package middleware

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

// Tracing opens a server span per request, continuing any trace the caller
// propagated in the headers.
func Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := opentracing.GlobalTracer()

		var opts []opentracing.StartSpanOption
		if parent, err := tracer.Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(r.Header)); err == nil {
			opts = append(opts, ext.RPCServerOption(parent))
		}

		span := tracer.StartSpan("http "+r.Method, opts...)
		defer span.Finish()

		ext.HTTPMethod.Set(span, r.Method)
		ext.HTTPUrl.Set(span, r.URL.Path)
		ext.Component.Set(span, "chi")

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(opentracing.ContextWithSpan(r.Context(), span)))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		ext.HTTPStatusCode.Set(span, uint16(status))
		if status >= http.StatusInternalServerError {
			ext.Error.Set(span, true)
		}
		span.SetOperationName("http " + r.Method + " " + routePattern(r))
	})
}
