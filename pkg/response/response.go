package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduportal-api/internal/models"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Message    string                 `json:"message,omitempty"`
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// ErrorContextKey stores the unmasked error on the gin context for the access log.
const ErrorContextKey = "responseError"

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	noStore(c)
	envelope := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created and a human readable message.
func Created(c *gin.Context, message string, data interface{}) {
	noStore(c)
	c.JSON(http.StatusCreated, Envelope{Message: message, Data: data})
}

// Error sends an error response converting the error to the common structure.
// Internal failures are reduced to the generic message so storage details never
// reach the caller.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Set(ErrorContextKey, err)

	public := *appErr
	if public.Status >= http.StatusInternalServerError && public.Code != appErrors.ErrServiceUnavailable.Code {
		public.Code = appErrors.ErrInternal.Code
		public.Message = appErrors.ErrInternal.Message
	}
	public.Err = nil

	noStore(c)
	c.JSON(public.Status, Envelope{Message: public.Message, Error: &public})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Attachment writes a downloadable file.
func Attachment(c *gin.Context, filename, contentType string, body []byte) {
	noStore(c)
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, contentType, body)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
