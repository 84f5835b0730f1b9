package controllers

import (
	"mime"
	"net/http"
	"strings"

	"campus-events-api/services"
	"campus-events-api/utils"

	"github.com/gin-gonic/gin"
)

type MediaController struct {
	media *services.MediaService
}

func NewMediaController(media *services.MediaService) *MediaController {
	return &MediaController{media: media}
}

func mediaKey(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("key"), "/")
}

// GetMedia streams a stored object back with its content type.
func (mc *MediaController) GetMedia(c *gin.Context) {
	key := mediaKey(c)
	if key == "" {
		utils.SendValidationError(c, "File key is required")
		return
	}

	object, err := mc.media.Fetch(c.Request.Context(), key)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": object.Filename}))
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, object.ContentType, object.Body)
}

func (mc *MediaController) DeleteMedia(c *gin.Context) {
	key := mediaKey(c)
	if key == "" {
		utils.SendValidationError(c, "File key is required")
		return
	}

	if err := mc.media.Remove(c.Request.Context(), key); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "File deleted successfully", nil)
}
