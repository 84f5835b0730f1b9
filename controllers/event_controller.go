// File: /controllers/event_controller.go
package controllers

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"campus-events-api/middleware"
	"campus-events-api/models"
	"campus-events-api/services"
	"campus-events-api/utils"

	"github.com/gin-gonic/gin"
)

type EventController struct {
	activities *services.ActivityService
}

func NewEventController(activities *services.ActivityService) *EventController {
	return &EventController{activities: activities}
}

// splitCSV turns "a, b,,c" into [a b c].
func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func mustCaller(c *gin.Context) (services.Caller, bool) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		utils.SendError(c, http.StatusUnauthorized, "Authentication required")
	}
	return caller, ok
}

// uploadFromHeader opens a multipart file for the media service. The
// caller closes the returned file.
func uploadFromHeader(header *multipart.FileHeader) (*services.UploadFile, multipart.File, error) {
	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return &services.UploadFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, file, nil
}

// GetEvents lists visible activities.
// Query: page, numberOfEventsToGet, isArchived, tags (comma separated).
func (ec *EventController) GetEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("numberOfEventsToGet", strconv.Itoa(services.DefaultActivityPageSize)))
	archived, _ := strconv.ParseBool(c.DefaultQuery("isArchived", "false"))

	filters := models.ActivityFilters{
		Page:       page,
		PageSize:   pageSize,
		IsArchived: archived,
		Tags:       splitCSV(c.Query("tags")),
	}

	activities, total, applied, err := ec.activities.List(c.Request.Context(), filters)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendPaginated(c, activities, applied.Page, applied.PageSize, total)
}

func (ec *EventController) GetEvent(c *gin.Context) {
	activity, err := ec.activities.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}

func (ec *EventController) GetUserEvents(c *gin.Context) {
	activities, err := ec.activities.GetByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, activities)
}

func (ec *EventController) SearchEvents(c *gin.Context) {
	activities, err := ec.activities.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, activities)
}

// CreateEvent accepts multipart/form-data (optional coverImage part) or JSON.
func (ec *EventController) CreateEvent(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var fields models.ActivityFields
	var cover *services.UploadFile

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&fields); err != nil {
			utils.SendValidationError(c, err.Error())
			return
		}
		if raw := c.PostForm("socialMedia"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &fields.SocialMedia); err != nil {
				utils.SendValidationError(c, "socialMedia must be a JSON object")
				return
			}
		}

		if header, err := c.FormFile("coverImage"); err == nil {
			upload, file, err := uploadFromHeader(header)
			if err != nil {
				utils.SendError(c, http.StatusBadRequest, "Could not read cover image")
				return
			}
			defer file.Close()
			cover = upload
		} else if err != http.ErrMissingFile {
			utils.SendError(c, http.StatusBadRequest, "Could not read cover image")
			return
		}
	} else if err := c.ShouldBindJSON(&fields); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	activity, err := ec.activities.Create(c.Request.Context(), fields, caller, cover)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendCreated(c, "Activity created successfully", activity)
}

func (ec *EventController) UpdateEvent(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var patch models.ActivityPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	activity, err := ec.activities.Update(c.Request.Context(), c.Param("id"), patch, caller)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Activity updated successfully", activity)
}

func (ec *EventController) DeleteEvent(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	if err := ec.activities.Delete(c.Request.Context(), c.Param("id"), caller); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Activity deleted successfully", nil)
}

type flagOp func(ctx context.Context, id string, caller services.Caller) error

// flagHandler serves the hide/archive family of endpoints.
func (ec *EventController) flagHandler(op flagOp, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := mustCaller(c)
		if !ok {
			return
		}
		if err := op(c.Request.Context(), c.Param("id"), caller); err != nil {
			utils.SendAppError(c, err)
			return
		}
		utils.SendSuccess(c, message, nil)
	}
}

func (ec *EventController) ArchiveEvent() gin.HandlerFunc {
	return ec.flagHandler(ec.activities.Archive, "Activity archived successfully")
}

func (ec *EventController) UnarchiveEvent() gin.HandlerFunc {
	return ec.flagHandler(ec.activities.Unarchive, "Activity unarchived successfully")
}

func (ec *EventController) HideEvent() gin.HandlerFunc {
	return ec.flagHandler(ec.activities.Hide, "Activity hidden successfully")
}

func (ec *EventController) UnhideEvent() gin.HandlerFunc {
	return ec.flagHandler(ec.activities.Unhide, "Activity unhidden successfully")
}

func (ec *EventController) UpdateCoverImage(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	header, err := c.FormFile("coverImage")
	if err != nil {
		utils.SendValidationError(c, "coverImage file is required")
		return
	}
	upload, file, err := uploadFromHeader(header)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Could not read cover image")
		return
	}
	defer file.Close()

	activity, err := ec.activities.UpdateCoverImage(c.Request.Context(), c.Param("id"), *upload, caller)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Cover image updated successfully", activity)
}

func (ec *EventController) AddAttendee(c *gin.Context) {
	var req models.AttendeeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	activity, err := ec.activities.AddAttendee(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Attendee added successfully", activity)
}

func (ec *EventController) RemoveAttendee(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.SendValidationError(c, "index must be an integer")
		return
	}

	activity, err := ec.activities.RemoveAttendee(c.Request.Context(), c.Param("id"), index)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Attendee removed successfully", activity)
}
