package application

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dkrest1/content-management-system-api/internal/domain"
)

type SignUpRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,bcryptsafe"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      AccountView `json:"user"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,bcryptsafe"`
}

// PasswordResetTicket is what the mailer needs; it never goes back over HTTP.
type PasswordResetTicket struct {
	Token     string
	Link      string
	ExpiresAt time.Time
}

type UpdateProfileRequest struct {
	Phone string `json:"phone" validate:"required,len=11,numeric"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,bcryptsafe"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,min=4,max=30"`
	Description string `json:"description" validate:"required,min=5,max=100"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitnil,min=4,max=30"`
	Description *string `json:"description" validate:"omitnil,min=5,max=100"`
}

type CreatePostRequest struct {
	Category string `json:"category" validate:"required,min=4,max=30"`
	Title    string `json:"title" validate:"required,min=5,max=100"`
	Body     string `json:"body" validate:"required,min=10,max=280"`
}

type UpdatePostRequest struct {
	Title *string `json:"title" validate:"omitnil,min=5,max=100"`
	Body  *string `json:"body" validate:"omitnil,min=10,max=280"`
}

// normalized trims the free-text fields before validation.
func (r CreatePostRequest) normalized() CreatePostRequest {
	r.Category = domain.NormalizeCategoryName(r.Category)
	r.Title = strings.TrimSpace(r.Title)
	r.Body = strings.TrimSpace(r.Body)
	return r
}

func (r UpdatePostRequest) normalized() UpdatePostRequest {
	r.Title = trimmedPtr(r.Title)
	r.Body = trimmedPtr(r.Body)
	return r
}

func (r CreateCategoryRequest) normalized() CreateCategoryRequest {
	r.Name = domain.NormalizeCategoryName(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	return r
}

func (r UpdateCategoryRequest) normalized() UpdateCategoryRequest {
	if r.Name != nil {
		name := domain.NormalizeCategoryName(*r.Name)
		r.Name = &name
	}
	r.Description = trimmedPtr(r.Description)
	return r
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	return &trimmed
}

// AccountView is the outward account shape. It has no password field.
type AccountView struct {
	ID        uuid.UUID `json:"_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"userRole"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewAccountView(a domain.Account) AccountView {
	return AccountView{
		ID:        a.AccountID,
		Username:  a.Username,
		Email:     a.Email,
		Phone:     a.Phone,
		Role:      a.Role.String(),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type CategoryView struct {
	ID          uuid.UUID `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewCategoryView(c domain.Category) CategoryView {
	return CategoryView{
		ID:          c.CategoryID,
		Name:        c.Name,
		Description: c.Description,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type PostAuthorView struct {
	ID       uuid.UUID `json:"_id"`
	Username string    `json:"username,omitempty"`
	Email    string    `json:"email,omitempty"`
}

type PostCategoryView struct {
	ID   uuid.UUID `json:"_id"`
	Name string    `json:"name,omitempty"`
}

type PostView struct {
	ID        uuid.UUID        `json:"_id"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	User      PostAuthorView   `json:"user"`
	Category  PostCategoryView `json:"category"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func NewPostView(p domain.PostDetail) PostView {
	return PostView{
		ID:    p.PostID,
		Title: p.Title,
		Body:  p.Body,
		User: PostAuthorView{
			ID:       p.AuthorID,
			Username: p.AuthorUsername,
			Email:    p.AuthorEmail,
		},
		Category: PostCategoryView{
			ID:   p.CategoryID,
			Name: p.CategoryName,
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// Outcome is the terminal state of one authorization decision.
type Outcome string

const (
	OutcomeAllow        Outcome = "allow"
	OutcomeForbid       Outcome = "forbid"
	OutcomeUnauthorized Outcome = "unauthorized"
)

// AuthorizationDecision is produced per request by Authorize.
type AuthorizationDecision struct {
	Account domain.Account
	Role    domain.Role
	Outcome Outcome
}

// RealtimeIdentity is what an admitted realtime connection is bound to.
type RealtimeIdentity struct {
	AccountID uuid.UUID
	Username  string
	Role      domain.Role
}
