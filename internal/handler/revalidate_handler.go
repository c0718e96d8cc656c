package handler

import (
	"errors"
	"net/http"

	"github.com/blogdesk/internal/panel"
	"github.com/blogdesk/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Revalidate clears the edited flag of the posted ids and drops their cached pages.
//
//	POST {"editedBlogIds": [3, 7]}
func (a *API) Revalidate(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		respondMessage(c, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	var req panel.RevalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.EditedBlogIDs) == 0 {
		respondMessage(c, http.StatusBadRequest, "No edited blogs to revalidate")
		return
	}

	if _, err := a.revalidator.Revalidate(c.Request.Context(), req.EditedBlogIDs); err != nil {
		switch {
		case errors.Is(err, service.ErrNoEditedPosts):
			respondMessage(c, http.StatusBadRequest, "No edited blogs to revalidate")
		case errors.Is(err, service.ErrStore):
			c.JSON(http.StatusInternalServerError, panel.RevalidateResponse{
				Message: "Error updating blogs",
				Error:   err.Error(),
			})
		default:
			log.Error().Err(err).Msg("revalidation failed")
			respondMessage(c, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	respondMessage(c, http.StatusOK, panel.SuccessMessage)
}
