// FilePath: api/middleware/api.middleware.logging.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	nuts "github.com/vaudience/go-nuts"
)

// logWriter forwards access log lines to the process logger
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	nuts.L.Infof("[HTTP] %s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// recoveryLogger reports recovered handler panics
type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	nuts.L.Errorf("[HTTP] Recovered from panic: %v", v)
}

// AccessLog writes one combined-format line per request
func AccessLog(next http.Handler) http.Handler {
	return handlers.CombinedLoggingHandler(logWriter{}, next)
}

// Recovery turns handler panics into 500 answers
func Recovery(next http.Handler) http.Handler {
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}))(next)
}

// CORS allows browsers on the given origins to call the read APIs and post readings
func CORS(origins []string) func(http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
}
