package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteAuthRegister = "/auth/register"
	RouteAuthLogin    = "/auth/login"
	RouteAuthRefresh  = "/auth/refresh"
	RouteAuthMe       = "/auth/me"
	RouteAuthLogout   = "/auth/logout"

	RouteHealth = "/health"
)
