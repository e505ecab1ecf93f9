package metrics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

// Server exposes /metrics and /health over fasthttp.
type Server struct {
	srv     *fasthttp.Server
	version string
	probes  []probe
}

type probe struct {
	name string
	fn   func() bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithProbe adds a dependency check to /health. A failing probe turns the
// response into 503 "degraded".
func WithProbe(name string, fn func() bool) ServerOption {
	return func(s *Server) {
		if fn != nil {
			s.probes = append(s.probes, probe{name: name, fn: fn})
		}
	}
}

// NewServer builds a Server for reg. It does not listen until Serve.
func NewServer(reg *Registry, version string, opts ...ServerOption) *Server {
	s := &Server{version: version}
	for _, o := range opts {
		o(s)
	}

	r := router.New()
	r.GET("/metrics", reg.Handler())
	r.GET("/health", s.handleHealth)

	s.srv = &fasthttp.Server{
		Handler:      applyMiddleware(r.Handler, recovery, timing),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler; tests drive it without a listener.
func (s *Server) Handler() fasthttp.RequestHandler { return s.srv.Handler }

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.ListenAndServe(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := s.srv.Shutdown(); err != nil {
			return err
		}
		return nil
	}
}

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	resp := healthResponse{Status: "ok", Version: s.version}
	code := fasthttp.StatusOK

	if len(s.probes) > 0 {
		resp.Checks = make(map[string]string, len(s.probes))
		for _, p := range s.probes {
			if p.fn() {
				resp.Checks[p.name] = "ok"
				continue
			}
			resp.Checks[p.name] = "down"
			resp.Status = "degraded"
			code = fasthttp.StatusServiceUnavailable
		}
	}

	body, _ := json.Marshal(resp)
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(code)
	ctx.SetBody(body)
}
