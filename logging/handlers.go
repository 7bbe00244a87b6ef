package logging

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/DataONEorg/d1-solr-extensions/config"
)

// Record the status of the request so we can log it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func GetLoggingHandler(config_obj *config.Config) func(http.Handler) http.Handler {
	logger := GetLogger(config_obj, &FrontendComponent)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{w, 200}
			defer func() {
				logger.WithFields(
					logrus.Fields{
						"method":     r.Method,
						"url":        r.URL.Path,
						"remote":     r.RemoteAddr,
						"user-agent": r.UserAgent(),
						"status":     rec.status,
					}).Info("")
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
