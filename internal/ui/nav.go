package ui

import (
	"strings"
	"sync"

	"financeai/internal/session"
)

type Route string

const (
	RouteDashboard  Route = "/"
	RoutePlayground Route = "/ai-playground"
	RouteLogin      Route = "/login"
	RouteSignup     Route = "/signup"
)

// Routes lists every known route.
func Routes() []Route {
	return []Route{RouteDashboard, RoutePlayground, RouteLogin, RouteSignup}
}

// Protected reports whether the route requires a session.
func (r Route) Protected() bool {
	return r == RouteDashboard || r == RoutePlayground
}

// Navigator resolves paths against the route table and guards protected routes.
type Navigator struct {
	mu      sync.Mutex
	session *session.Store
	current Route
}

func NewNavigator(s *session.Store) *Navigator {
	return &Navigator{session: s, current: RouteLogin}
}

// Resolve maps path to the route that would actually be shown. Unknown paths
// fall back to the dashboard; protected routes without a token go to login.
func (n *Navigator) Resolve(path string) Route {
	route := RouteDashboard
	clean := strings.TrimRight(strings.TrimSpace(path), "/")
	if clean == "" {
		clean = "/"
	}
	for _, r := range Routes() {
		if string(r) == clean {
			route = r
			break
		}
	}
	if route.Protected() && !n.session.Authenticated() {
		return RouteLogin
	}
	return route
}

// Navigate resolves path and makes it the current route.
func (n *Navigator) Navigate(path string) Route {
	route := n.Resolve(path)
	n.mu.Lock()
	n.current = route
	n.mu.Unlock()
	return route
}

func (n *Navigator) Current() Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
