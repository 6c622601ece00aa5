package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/avatargate/internal/common"
	"github.com/dmitrijs2005/avatargate/internal/server/metrics"
	"github.com/gin-gonic/gin"
)

const avatarField = "avatar"

// multipart framing allowance on top of the avatar itself
const multipartOverhead = 64 << 10

func (h *handler) signup(c *gin.Context) {
	_, err := h.Users.Signup(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		h.Metrics.ObserveSignup(result(err, common.ErrorValidation, common.ErrorAlreadyExists))
		h.writeError(c, err)
		return
	}
	h.Metrics.ObserveSignup(metrics.ResultSuccess)
	c.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
}

func (h *handler) login(c *gin.Context) {
	token, err := h.Users.Login(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		h.Metrics.ObserveLogin(result(err, common.ErrorUnauthorized))
		h.writeError(c, err)
		return
	}
	h.Metrics.ObserveLogin(metrics.ResultSuccess)
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": common.TokenType})
}

func (h *handler) protected(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "This is a protected route",
		"user":    c.GetString(subjectKey),
	})
}

func (h *handler) uploadAvatar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxAvatarBytes+multipartOverhead)

	fh, err := c.FormFile(avatarField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(c, h.avatarTooLarge())
			return
		}
		h.writeError(c, common.WithDetail(common.ErrorValidation, "Missing avatar file"))
		return
	}
	if fh.Size > h.MaxAvatarBytes {
		h.writeError(c, h.avatarTooLarge())
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.writeError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	if _, err := h.Avatars.Upload(c.Request.Context(), c.GetString(subjectKey), fh.Filename, f); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Avatar uploaded successfully"})
}

func (h *handler) getAvatar(c *gin.Context) {
	a, err := h.Avatars.Get(c.Request.Context(), c.GetString(subjectKey))
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer a.Body.Close()

	c.DataFromReader(http.StatusOK, -1, a.ContentType, a.Body, nil)
}

func (h *handler) avatarTooLarge() error {
	return common.WithDetail(common.ErrorValidation,
		fmt.Sprintf("Avatar file too large. The limit is %d bytes.", h.MaxAvatarBytes))
}

// result labels err as rejected when it is one of the client errors in
// expected, and as error otherwise.
func result(err error, expected ...error) string {
	for _, e := range expected {
		if errors.Is(err, e) {
			return metrics.ResultRejected
		}
	}
	return metrics.ResultError
}
