// internal/handlers/admin/admin_handler.go
package admin

import (
	"net/http"
	"strconv"

	"jobboard-service/internal/domain/auth"
	"jobboard-service/internal/middleware"
	"jobboard-service/internal/pkg/response"
	adminUsecase "jobboard-service/internal/service/admin"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler serves user management. Every route sits behind AdminOnly.
type AdminHandler struct {
	adminService *adminUsecase.AdminService
	logger       *zap.Logger
}

func NewAdminHandler(adminService *adminUsecase.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		logger:       logger,
	}
}

func (h *AdminHandler) CreateUser(c *gin.Context) {
	actor := middleware.MustGetPrincipal(c)

	var req auth.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	p, err := h.adminService.CreateUser(c.Request.Context(), actor, &req)
	if err != nil {
		h.logger.Warn("create user failed", zap.Int64("actor_id", actor.ID), zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "user created", auth.NewUserInfo(p))
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor := middleware.MustGetPrincipal(c)

	id, ok := userID(c)
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), actor, id); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "user deleted", nil)
}

func (h *AdminHandler) ChangeRole(c *gin.Context) {
	actor := middleware.MustGetPrincipal(c)

	id, ok := userID(c)
	if !ok {
		return
	}

	var req auth.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.adminService.ChangeRole(c.Request.Context(), actor, id, req.Role); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "role updated", nil)
}

func userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ValidationError(c, "invalid user id", nil)
		return 0, false
	}
	return id, true
}
