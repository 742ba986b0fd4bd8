package tally

import (
	"net/http"
	"strconv"
	"time"

	"tally-service/tally/application"
	"tally-service/tally/domain"
	"tally-service/tally/infra"

	"go.uber.org/zap"
)

type RateLimitOptions struct {
	Limiters            domain.LimiterStore
	KeyFn               KeyFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	RejectStatus        int
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
	// LimitReads aplica o limite também em GET; por padrão só escrita
	// (POST /grue, POST /reset) consome token.
	LimitReads bool
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

// requestClass separa leituras (GET/HEAD/OPTIONS) das escritas no placar.
func requestClass(r *http.Request) domain.Class {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return domain.ClassRead
	default:
		return domain.ClassWrite
	}
}

func RateLimit(opts RateLimitOptions) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.KeyFn == nil {
		opts.KeyFn = ClientKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}

	adm := application.Admission{
		Limiters:   opts.Limiters,
		RetryAfter: opts.RetryAfter,
		LimitReads: opts.LimitReads,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := requestClass(r)
			if !adm.Metered(class) {
				next.ServeHTTP(w, r)
				return
			}

			key := opts.KeyFn(r)
			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-Key", string(key))
				if ri, ok := opts.Limiters.(rateInfo); ok {
					w.Header().Set("X-RateLimit-RPS", strconv.FormatFloat(ri.RPS(), 'f', -1, 64))
					w.Header().Set("X-RateLimit-Burst", strconv.Itoa(ri.Burst()))
				}
			}

			dec := adm.Decide(key, class)
			if !dec.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(dec.RetryAfter.Seconds())))
				writeError(w, opts.RejectStatus, http.StatusText(opts.RejectStatus))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ConcurrencyOptions: MaxReads e MaxWrites são orçamentos separados; <= 0
// deixa a classe sem limite.
type ConcurrencyOptions struct {
	MaxReads       int
	MaxWrites      int
	RejectStatus   int
	AcquireTimeout time.Duration
}

// Concurrency limita requisições simultâneas por classe. Sem nenhum limite
// o middleware não faz nada.
func Concurrency(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.MaxReads <= 0 && opts.MaxWrites <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	adm := application.Admission{
		Slots:          infra.NewSlotBudget(opts.MaxReads, opts.MaxWrites),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := adm.Enter(r.Context(), requestClass(r))
			if err != nil {
				writeError(w, opts.RejectStatus, http.StatusText(opts.RejectStatus))
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}

// CORS libera qualquer origem, método e header. Preflight responde 204.
func CORS() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", "*")
			h.Set("Access-Control-Allow-Headers", "*")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// AccessLog registra método, rota (pattern do mux quando houver), status e
// duração. 5xx sai em error, o resto em info.
func AccessLog(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			path := r.Pattern
			if path == "" {
				path = r.URL.Path
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", path),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
			}
			if status >= http.StatusInternalServerError {
				logger.Error("http_req", fields...)
				return
			}
			logger.Info("http_req", fields...)
		})
	}
}
