package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduportal-api/internal/dto"
	"github.com/noah-isme/eduportal-api/internal/models"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
	"github.com/noah-isme/eduportal-api/pkg/response"
)

type registrar interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error)
	SuccessMessage() string
}

type authenticator interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Identity(ctx context.Context, claims *models.SessionClaims) (*models.Identity, error)
}

// AuthHandler wires HTTP endpoints to registration and authentication.
type AuthHandler struct {
	registration registrar
	auth         authenticator
	principals   principalResolver
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(registration registrar, auth authenticator, principals principalResolver) *AuthHandler {
	return &AuthHandler{registration: registration, auth: auth, principals: principals}
}

// Register godoc
// @Summary Register an account
// @Description Create an account and its role profile in one transaction
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.registration.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, h.registration.SuccessMessage(), res)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Me godoc
// @Summary Current session
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	identity, err := h.auth.Identity(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, dto.MeResponse{
		User:             *identity,
		TeacherProfileID: p.TeacherProfileID,
		StudentProfileID: p.StudentProfileID,
		ParentProfileID:  p.ParentProfileID,
		SchoolID:         p.SchoolID,
		DistrictID:       p.DistrictID,
	}, nil)
}
