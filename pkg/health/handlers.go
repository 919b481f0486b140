// Package health serves the liveness and readiness probes of the HTTP transport.
package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// ReadinessCheck reports whether a dependency of the server can take traffic.
type ReadinessCheck func(ctx context.Context) error

type Checker interface {
	SetReady(ready bool)
	AddReadinessCheck(name string, check ReadinessCheck)
	Register(mux *http.ServeMux, livenessPath, readinessPath string)
	LivenessHandler(w http.ResponseWriter, r *http.Request)
	ReadinessHandler(w http.ResponseWriter, r *http.Request)
}

type namedCheck struct {
	name  string
	check ReadinessCheck
}

type checker struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks []namedCheck

	checkTimeout time.Duration
}

var _ Checker = &checker{}

func NewChecker() Checker {
	return &checker{checkTimeout: 2 * time.Second}
}

func (c *checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

// AddReadinessCheck adds a check that must pass, in addition to the ready flag,
// for the readiness probe to succeed.
func (c *checker) AddReadinessCheck(name string, check ReadinessCheck) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, namedCheck{name: name, check: check})
}

func (c *checker) Register(mux *http.ServeMux, livenessPath, readinessPath string) {
	mux.HandleFunc(livenessPath, c.LivenessHandler)
	mux.HandleFunc(readinessPath, c.ReadinessHandler)
}

func (c *checker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (c *checker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	if !c.ready.Load() {
		notReady(w, "not ready")
		return
	}

	c.mu.RLock()
	checks := c.checks
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), c.checkTimeout)
	defer cancel()
	for _, nc := range checks {
		if err := nc.check(ctx); err != nil {
			notReady(w, "not ready: "+nc.name+": "+err.Error())
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func notReady(w http.ResponseWriter, msg string) {
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(msg))
}
