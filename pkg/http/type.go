package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-hclog"
)

// ReadyCheck reports whether the daemon can take traffic - registry
// loaded, lock store reachable, config repository bootstrapped. A nil
// error means ready; Server has no opinion on what it checks.
type ReadyCheck func() error

// Server wraps up the build-event, status, and demo routers mounted in
// front of the arbiter core, plus the optional readiness probe an
// orchestrator polls before routing builds to this instance.
type Server struct {
	l hclog.Logger
	r chi.Router

	n *http.Server

	ready ReadyCheck
}
