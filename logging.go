package apiclient

import (
	"net/http"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingComponents selects the fields included in the messages logged around
// each call.  An empty set turns request and error messages off.
type LoggingComponents uint

// Logging components.
const (
	LogMethod LoggingComponents = 1 << iota
	LogURL
	LogHeaders
	LogBody
	LogUUID
	LogLocation
	LogStatusCode
	LogDuration
	LogError
	// LogResponse adds an "api response" message after each response is received.
	LogResponse

	LogNone     LoggingComponents = 0
	LogBasic                      = LogMethod | LogURL | LogStatusCode | LogError
	LogStandard                   = LogBasic | LogUUID | LogLocation | LogDuration
	LogFull                       = LogStandard | LogHeaders | LogBody | LogResponse
)

// Has reports whether all the components in o are selected.
func (c LoggingComponents) Has(o LoggingComponents) bool {
	return c&o == o
}

// IsEmpty reports whether no component is selected.
func (c LoggingComponents) IsEmpty() bool {
	return c == LogNone
}

// FileIDLine is the source location of a call, used in log messages.
type FileIDLine struct {
	File string
	Line int
}

func (l FileIDLine) String() string {
	return l.File + ":" + strconv.Itoa(l.Line)
}

// callerLocation returns the location skip frames above its caller, shortened to
// "dir/file.go".
func callerLocation(skip int) FileIDLine {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return FileIDLine{File: "unknown"}
	}
	return FileIDLine{File: filepath.Join(filepath.Base(filepath.Dir(file)), filepath.Base(file)), Line: line}
}

var (
	loggerKey            = NewKey("logger", zap.L)
	logLevelKey          = NewKey("logLevel", func() zapcore.Level { return zapcore.InfoLevel })
	loggingComponentsKey = NewKey("loggingComponents", func() LoggingComponents { return LogStandard })
	fileIDLineKey        = NewKey[*FileIDLine]("fileIDLine", nil)
)

// Logger returns the logger receiving call messages.  Defaults to zap.L().
func (c Configs) Logger() *zap.Logger {
	if l := GetConfig(c, loggerKey); l != nil {
		return l
	}
	return zap.L()
}

// LogLevel returns the level of request and response messages.  Defaults to info.
func (c Configs) LogLevel() zapcore.Level {
	return GetConfig(c, logLevelKey)
}

// LoggingComponents returns the fields included in call messages.
func (c Configs) LoggingComponents() LoggingComponents {
	return GetConfig(c, loggingComponentsKey)
}

// FileIDLine returns the pinned source location, or nil.
func (c Configs) FileIDLine() *FileIDLine {
	return GetConfig(c, fileIDLineKey)
}

var sensitiveHeaders = []string{HeaderAuthorization, "Cookie", "Set-Cookie", "Proxy-Authorization", "X-Api-Key"}

func redactHeaders(h http.Header) http.Header {
	h2 := h.Clone()
	for _, name := range sensitiveHeaders {
		if h2.Get(name) != "" {
			h2.Set(name, "[REDACTED]")
		}
	}
	return h2
}

func (c LoggingComponents) requestFields(req *Request, body *RequestBody, id uuid.UUID, loc FileIDLine) []zap.Field {
	fields := make([]zap.Field, 0, 6)
	if c.Has(LogUUID) {
		fields = append(fields, zap.Stringer("uuid", id))
	}
	if c.Has(LogMethod) {
		fields = append(fields, zap.String("method", req.EffectiveMethod()))
	}
	if c.Has(LogURL) {
		fields = append(fields, zap.String("url", req.FullURL().Redacted()))
	}
	if c.Has(LogHeaders) && len(req.Header) > 0 {
		fields = append(fields, zap.Any("headers", redactHeaders(req.Header)))
	}
	if c.Has(LogBody) && body != nil {
		if body.IsFile() || !isPrintable(body.Data()) {
			fields = append(fields, zap.Stringer("body", body))
		} else {
			fields = append(fields, zap.ByteString("body", body.Data()))
		}
	}
	if c.Has(LogLocation) {
		fields = append(fields, zap.Stringer("location", loc))
	}
	return fields
}

func (c LoggingComponents) responseFields(resp *http.Response, data []byte, elapsed time.Duration, id uuid.UUID) []zap.Field {
	fields := make([]zap.Field, 0, 5)
	if c.Has(LogUUID) {
		fields = append(fields, zap.Stringer("uuid", id))
	}
	if c.Has(LogStatusCode) && resp != nil {
		fields = append(fields, zap.Int("status", resp.StatusCode))
	}
	if c.Has(LogDuration) {
		fields = append(fields, zap.Duration("duration", elapsed))
	}
	if c.Has(LogHeaders) && resp != nil && len(resp.Header) > 0 {
		fields = append(fields, zap.Any("headers", redactHeaders(resp.Header)))
	}
	if c.Has(LogBody) && data != nil {
		if isPrintable(data) {
			fields = append(fields, zap.ByteString("body", data))
		} else {
			fields = append(fields, zap.Int("bodySize", len(data)))
		}
	}
	return fields
}

func (c LoggingComponents) errorFields(id uuid.UUID, err error, loc FileIDLine) []zap.Field {
	fields := make([]zap.Field, 0, 3)
	if c.Has(LogUUID) {
		fields = append(fields, zap.Stringer("uuid", id))
	}
	if c.Has(LogError) {
		fields = append(fields, zap.Error(err))
	}
	if c.Has(LogLocation) {
		fields = append(fields, zap.Stringer("location", loc))
	}
	return fields
}

const maxLoggedBody = 4096

func isPrintable(b []byte) bool {
	if len(b) > maxLoggedBody {
		return false
	}
	return !strings.ContainsFunc(string(b), func(r rune) bool {
		return r == utf8.RuneError || (r < 0x20 && r != '\n' && r != '\r' && r != '\t')
	})
}

// logAt writes msg at level if the logger has it enabled.
func logAt(l *zap.Logger, level zapcore.Level, msg string, fields []zap.Field) {
	if ce := l.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}
