// models/auth.go

package models

// Response is the standard API response envelope. Code carries a
// machine-readable error code for 4xx/5xx responses.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"fullName" validate:"required"`
}

type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

// GoogleLoginRequest carries the ID token obtained by the SPA from Google.
type GoogleLoginRequest struct {
	IDToken  string `json:"idToken" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName"`
	GoogleID string `json:"googleId" validate:"required"`
}

type LoginResponse struct {
	Token         string `json:"token"`
	RememberToken string `json:"rememberToken,omitempty"`
	User          User   `json:"user"`
}
