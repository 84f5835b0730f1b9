// File: /controllers/user_controller.go
package controllers

import (
	"net/http"
	"strings"

	"campus-events-api/models"
	"campus-events-api/services"
	"campus-events-api/utils"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin creator user"`
}

func (uc *UserController) GetUsers(c *gin.Context) {
	users, err := uc.users.GetAll(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// SearchUsers pages through the directory.
// Query: search, firstName, lastName, email, role, page, pageSize.
func (uc *UserController) SearchUsers(c *gin.Context) {
	var filters models.UserSearchFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	users, total, applied, err := uc.users.Search(c.Request.Context(), filters)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendPaginated(c, users, applied.Page, applied.PageSize, total)
}

func (uc *UserController) GetUser(c *gin.Context) {
	user, err := uc.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Summary())
}

func (uc *UserController) UpdateUser(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var patch models.UserProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}
	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		patch.Email = &email
	}
	if patch.FirstName != nil && strings.TrimSpace(*patch.FirstName) == "" {
		utils.SendValidationError(c, "firstName cannot be empty")
		return
	}
	if patch.LastName != nil && strings.TrimSpace(*patch.LastName) == "" {
		utils.SendValidationError(c, "lastName cannot be empty")
		return
	}

	user, err := uc.users.UpdateProfile(c.Request.Context(), c.Param("id"), patch, caller)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "User updated successfully", user.Summary())
}

func (uc *UserController) UpdateRole(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	user, err := uc.users.UpdateRole(c.Request.Context(), c.Param("id"), models.Role(req.Role), caller)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "User role updated successfully", user.Summary())
}

func (uc *UserController) DeleteUser(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	if err := uc.users.Delete(c.Request.Context(), c.Param("id"), caller); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "User deleted successfully", nil)
}
