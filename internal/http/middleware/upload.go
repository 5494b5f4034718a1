package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/sign-recognition/internal/models"
)

// multipartOverhead leaves room for boundaries and form fields around the
// image part.
const multipartOverhead = 1 << 20

// RequireImageUpload rejects requests that cannot carry an image part and
// caps the body size.
func RequireImageUpload(maxFileSize int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !strings.HasPrefix(ctx.GetHeader("Content-Type"), "multipart/form-data") {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "No image"})
			return
		}

		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxFileSize+multipartOverhead)
		ctx.Next()
	}
}
