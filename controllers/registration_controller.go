package controllers

import (
	"net/http"

	"campus-events-api/middleware"
	"campus-events-api/models"
	"campus-events-api/services"
	"campus-events-api/utils"

	"github.com/gin-gonic/gin"
)

type RegistrationController struct {
	registrations *services.RegistrationService
}

func NewRegistrationController(registrations *services.RegistrationService) *RegistrationController {
	return &RegistrationController{registrations: registrations}
}

type AttendanceRequest struct {
	IsAttended *bool `json:"isAttended" binding:"required"`
}

func (rc *RegistrationController) register(c *gin.Context, attended bool) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req models.RegistrationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	// Only admins may register someone other than themselves.
	if req.UserID == "" || !caller.IsAdmin() {
		req.UserID = caller.ID
	}
	if attended {
		req.IsAttended = true
	}

	registration, err := rc.registrations.Register(c.Request.Context(), req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendCreated(c, "Registered successfully", registration)
}

func (rc *RegistrationController) Register(c *gin.Context) {
	rc.register(c, false)
}

// Attend registers the caller and marks them present in one step.
func (rc *RegistrationController) Attend(c *gin.Context) {
	rc.register(c, true)
}

func (rc *RegistrationController) GetByActivity(c *gin.Context) {
	registrations, err := rc.registrations.ListByActivity(c.Request.Context(), c.Param("activityId"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, registrations)
}

func (rc *RegistrationController) GetByUser(c *gin.Context) {
	registrations, err := rc.registrations.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, registrations)
}

func (rc *RegistrationController) GetUserEvents(c *gin.Context) {
	events, err := rc.registrations.ListUserEvents(c.Request.Context(), c.Param("userId"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (rc *RegistrationController) GetAttendees(c *gin.Context) {
	attendees, err := rc.registrations.AttendeesOf(c.Request.Context(), c.Param("activityId"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, attendees)
}

func (rc *RegistrationController) Unregister(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	if err := rc.registrations.DeleteByID(c.Request.Context(), c.Param("id"), caller); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Unregistered successfully", nil)
}

// UnregisterFromEvent removes the caller's own registration for an activity.
func (rc *RegistrationController) UnregisterFromEvent(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	if err := rc.registrations.DeleteByUserAndActivity(c.Request.Context(), userID, c.Param("activityId")); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Unregistered successfully", nil)
}

func (rc *RegistrationController) MarkAttendance(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	registration, err := rc.registrations.MarkAttendance(c.Request.Context(), c.Param("id"), *req.IsAttended, caller)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Attendance updated successfully", registration)
}

func (rc *RegistrationController) GetStats(c *gin.Context) {
	stats, err := rc.registrations.Stats(c.Request.Context(), c.Param("activityId"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
