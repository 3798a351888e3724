package api

import (
	"time"

	taskdomain "github.com/example/taskboard/domain/task"
	userdomain "github.com/example/taskboard/domain/user"
)

// ErrorResponse is the standard error response shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is the response containing JWT tokens.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// UserResponse is a user without credentials.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserListResponse is the response for listing users.
type UserListResponse struct {
	Users []UserResponse `json:"users"`
}

// TaskListResponse is the response for listing tasks.
type TaskListResponse struct {
	Tasks []taskdomain.Task `json:"tasks"`
}

// UpdateStatusRequest is the request body for a status-only update.
type UpdateStatusRequest struct {
	Status taskdomain.Status `json:"status"`
}

// AddCommentRequest is the request body for adding a comment to a task.
type AddCommentRequest struct {
	Text string `json:"text"`
}

// ChatRequest is the request body for the assistant chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the assistant chat reply.
type ChatResponse struct {
	Response string `json:"response"`
}

func toUserResponse(u *userdomain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
