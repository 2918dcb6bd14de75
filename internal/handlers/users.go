package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/decision-board/backend/internal/models"
)

type UserHandler struct {
	accounts  Accounts
	maxUpload int64
}

// publicProfile omits contact details from another user's profile.
type publicProfile struct {
	models.Author
	Gender  *string `json:"gender"`
	Country string  `json:"country"`
	Bio     string  `json:"bio"`
}

func (h *UserHandler) GetUserProfile(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid user ID")
		return
	}
	u, err := h.accounts.Profile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, publicProfile{Author: u.Author(), Gender: u.Gender, Country: u.Country, Bio: u.Bio})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	var upd models.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err.Error())
		return
	}
	u, err := h.accounts.UpdateProfile(c.Request.Context(), userID, upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// UploadAvatar replaces the caller's avatar with the multipart "avatar" file.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	fh, err := c.FormFile("avatar")
	if err != nil {
		if tooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload too large", "code": CodeInvalidInput})
			return
		}
		badRequest(c, "avatar file is required")
		return
	}
	up, closeFn, err := openUpload(fh)
	if err != nil {
		badRequest(c, "Could not read avatar")
		return
	}
	defer closeFn()

	u, err := h.accounts.UpdateAvatar(c.Request.Context(), userID, *up)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
