package api

// Endpoint paths, relative to the API base URL.
const (
	RouteLogin          = "/auth/login"
	RouteRefreshToken   = "/users/refresh-token"
	RouteSignup         = "/account/signup"
	RouteChangePassword = "/users/change-password"
	RouteResetPassword  = "/users/reset-password"
	RouteMe             = "/users/me"
)
