package handler

import (
	"github.com/labstack/echo/v4"

	"sellnext/internal/usecase"
	"sellnext/pkg/response"
)

type AuthHandler struct {
	authUseCase *usecase.AuthUseCase
}

func NewAuthHandler(authUseCase *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
	}
}

type signupRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=7,max=20"`
	Location string `json:"location" validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,password"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateProfileRequest struct {
	FullName  *string `json:"full_name" validate:"omitempty,min=2,max=50"`
	Phone     *string `json:"phone" validate:"omitempty,min=7,max=20"`
	Location  *string `json:"location" validate:"omitempty,min=2,max=100"`
	AvatarURL *string `json:"avatar" validate:"omitempty,max=500"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
}

func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.authUseCase.Signup(c.Request().Context(), usecase.SignupInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Location: req.Location,
		Password: req.Password,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, "User created successfully", result)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.authUseCase.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessWithMessage(c, "Login successful", result)
}

func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.authUseCase.GetUserByID(c.Request().Context(), currentUserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"user": user})
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.authUseCase.UpdateProfile(c.Request().Context(), currentUserID(c), usecase.UpdateProfileInput{
		FullName:  req.FullName,
		Phone:     req.Phone,
		Location:  req.Location,
		AvatarURL: req.AvatarURL,
		Bio:       req.Bio,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessWithMessage(c, "Profile updated successfully", map[string]interface{}{"user": user})
}

func (h *AuthHandler) GetPublicProfile(c echo.Context) error {
	profile, err := h.authUseCase.GetPublicProfile(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"user": profile})
}
