package logger

import (
	"bytes"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// bodies above the limit are logged truncated
	bodyLimit = 16 * 1024
	// request log type
	requestType = "request"
	truncated   = "TRUNCATED..."
)

// headers never written to the log
var redactedHeaders = map[string]bool{
	"Authorization": true,
	"Private-Token": true,
	"Cookie":        true,
}

// requestRecord is the request log of one HTTP call
type requestRecord struct {
	RequestID      string // AwsRequestID when running in Lambda
	Start          time.Time
	HTTPStatusCode int
	Stack          string
	Method         string
	Path           string
	Query          string
	RequestBody    string
	ResponseBody   string
	Headers        http.Header
}

func (r *requestRecord) fields() []zap.Field {
	fields := []zap.Field{
		zap.String("type", requestType),
		zap.String("method", r.Method),
		zap.String("path", r.Path),
		zap.String("query", r.Query),
		zap.Int("status", r.HTTPStatusCode),
		zap.Duration("duration", time.Since(r.Start)),
		zap.String("request_body", limit(r.RequestBody)),
		zap.String("response_body", limit(r.ResponseBody)),
		zap.Any("headers", r.Headers),
	}
	if r.RequestID != "" {
		fields = append(fields, zap.String("request_id", r.RequestID))
	}
	if r.Stack != "" {
		fields = append(fields, zap.String("stack", r.Stack))
	}
	return fields
}

// GinLogMiddleware writes one request log per HTTP call, even if a later handler panics
func GinLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// overwrite the gin.Context.Writer to log response body
		respLogWriter := &respLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = respLogWriter

		record := newRequestRecord(c)
		if lc, ok := lambdacontext.FromContext(c.Request.Context()); ok {
			record.RequestID = lc.AwsRequestID
		}

		defer func() {
			if r := recover(); r != nil {
				record.HTTPStatusCode = http.StatusInternalServerError
				record.Stack = string(debug.Stack())
				GetLogger().Error("request panicked", record.fields()...)
				// throw the panic to the later middlewares
				panic(r)
			}
		}()

		c.Next()

		record.HTTPStatusCode = c.Writer.Status()
		record.ResponseBody = respLogWriter.body.String()
		if record.HTTPStatusCode >= http.StatusInternalServerError {
			GetLogger().Error("request", record.fields()...)
			return
		}
		GetLogger().Info("request", record.fields()...)
	}
}

func limit(body string) string {
	if len(body) > bodyLimit {
		return truncated
	}
	return body
}

type respLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w respLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w respLogWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func newRequestRecord(c *gin.Context) *requestRecord {
	var requestBody []byte
	if c.Request.Body != nil {
		var err error
		requestBody, err = io.ReadAll(c.Request.Body)
		if err != nil {
			GetLogger().Warn("failed to read request body", zap.Error(err))
		}
		// reattach request body for later use
		c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
	}

	headers := http.Header{}
	for key, values := range c.Request.Header {
		if redactedHeaders[http.CanonicalHeaderKey(key)] {
			headers[key] = []string{"REDACTED"}
			continue
		}
		headers[key] = values
	}

	return &requestRecord{
		Start:       time.Now(),
		Method:      c.Request.Method,
		Path:        c.Request.URL.Path,
		Query:       c.Request.URL.RawQuery,
		RequestBody: strings.TrimSpace(string(requestBody)),
		Headers:     headers,
	}
}
