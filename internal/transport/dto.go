package transport

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/Skotchmaster/authgate/internal/models"
	"github.com/Skotchmaster/authgate/internal/service"
	"github.com/Skotchmaster/authgate/internal/tokens"
)

// SignUpRequest carries no role: every account starts as USER.
type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (r SignUpRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	return validatePassword(r.Password)
}

func (r SignUpRequest) Input() service.SignUpInput {
	return service.SignUpInput{
		Email:     r.Email,
		Password:  r.Password,
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
	}
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SignInRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	return validatePassword(r.Password)
}

type UpdateUserRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

func (r UpdateUserRequest) Validate() error {
	if r.Email == nil && r.FirstName == nil && r.LastName == nil {
		return fmt.Errorf("%w: nothing to update", service.ErrValidation)
	}
	if r.Email != nil {
		return validateEmail(*r.Email)
	}
	return nil
}

func (r UpdateUserRequest) Input() service.UpdateUserInput {
	return service.UpdateUserInput{
		Email:     r.Email,
		FirstName: trimmed(r.FirstName),
		LastName:  trimmed(r.LastName),
	}
}

type TokenPairResponse = tokens.Pair

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type UserListResponse struct {
	Data []models.PublicUser `json:"data"`
	Meta PageMeta            `json:"meta"`
}

func NewUserListResponse(p service.Page) UserListResponse {
	return UserListResponse{
		Data: p.Items,
		Meta: PageMeta{Page: p.Page, Size: p.Size, Total: p.Total, TotalPages: p.TotalPages()},
	}
}

type SearchResponse struct {
	Total int64               `json:"total"`
	Data  []models.PublicUser `json:"data"`
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", service.ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: email is not a valid address", service.ErrValidation)
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", service.ErrValidation)
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
