package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/face-auth/internal/auth"
	"github.com/example/face-auth/internal/usecase"
)

// MaxUploadSize caps the face image upload at 8 MiB.
const MaxUploadSize = 8 << 20

// RegisterRoutes wires the HTTP handlers to the Gin router. bearer protects
// the routes that require a valid token; requestTimeout bounds the slow parts
// of each flow (model call, storage).
func RegisterRoutes(router *gin.Engine, uc *usecase.AuthUseCase, bearer gin.HandlerFunc, requestTimeout time.Duration) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/signup", func(c *gin.Context) {
		username := c.PostForm("username")
		email := c.PostForm("email")
		password := c.PostForm("password")
		if username == "" || email == "" || password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required"})
			return
		}

		imageBytes, ok := readFaceUpload(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		signed, err := uc.Enroll(ctx, usecase.EnrollmentInput{
			Username: username,
			Email:    email,
			Password: password,
			Image:    imageBytes,
		})
		if err != nil {
			writeFlowError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"access_token": signed, "token_type": "bearer"})
	})

	router.POST("/signin", func(c *gin.Context) {
		username := c.PostForm("username")
		password := c.PostForm("password")
		if username == "" || password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}

		imageBytes, ok := readFaceUpload(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		signed, err := uc.SignIn(ctx, usecase.SignInInput{
			Username: username,
			Password: password,
			Image:    imageBytes,
		})
		if err != nil {
			writeFlowError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"access_token": signed, "token_type": "bearer"})
	})

	// Tokens are stateless: logout is an acknowledgment, not an invalidation.
	router.POST("/logout", bearer, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "Logged out"})
	})

	router.GET("/me", bearer, func(c *gin.Context) {
		identity, ok := auth.GetIdentity(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": identity.Username, "email": identity.Email})
	})

	router.GET("/users", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		users, err := uc.ListUsers(ctx)
		if err != nil {
			writeFlowError(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	})

	router.GET("/metrics/summary", bearer, func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		summary, err := uc.GetMetricsSummary(ctx)
		if err != nil {
			writeFlowError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	})
}

// readFaceUpload pulls the "face" file out of the multipart form, enforcing
// the size cap and that the part claims to be an image. Writes the response
// itself on failure.
func readFaceUpload(c *gin.Context) ([]byte, bool) {
	file, err := c.FormFile("face")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "face image file is required"})
		return nil, false
	}
	if file.Size > MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds upload limit"})
		return nil, false
	}
	if contentType := file.Header.Get("Content-Type"); contentType != "" && !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported content type"})
		return nil, false
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to open image"})
		return nil, false
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
		return nil, false
	}
	return data, true
}

// writeFlowError maps the domain taxonomy onto HTTP statuses. Anything
// outside the taxonomy is internal and gets a generic message.
func writeFlowError(c *gin.Context, err error) {
	var badInput *usecase.BadInputError
	var faceErr *usecase.FaceProcessingError

	switch {
	case errors.Is(err, usecase.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrInvalidCredentials), errors.Is(err, usecase.ErrFaceMismatch):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.As(err, &badInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": badInput.Error()})
	case errors.As(err, &faceErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": faceErr.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
