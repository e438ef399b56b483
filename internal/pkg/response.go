package pkg

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/order360/internal/domain"
)

// Response is the JSON envelope of every API response.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ValidationErrorResponse carries per-field messages for a rejected request.
type ValidationErrorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

const msgInternal = "internal error"

// Success sends a 200 response with data. Paginated results are sent the same
// way, with a domain.PageResult (or a type embedding it) as data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Message: "success", Data: data})
}

// Created sends a 201 response with the stored resource.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Code: http.StatusCreated, Message: "created", Data: data})
}

// Error sends err as a JSON error response. The status comes from the
// AppError code; the message is the operator-safe text, so backend payloads
// and internal causes never reach the client. Server-side failures are logged.
func Error(c *gin.Context, err error) {
	status := domain.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()),
			slog.Int("status", status),
			slog.Any("error", err))
	}

	c.JSON(status, Response{
		Code:    status,
		Message: SafeMessage(err, msgInternal),
	})
}

// BindAndValidate binds the request into obj. On failure it sends a 400
// response and returns false:
//
//	if !pkg.BindAndValidate(c, &req) { return }
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		ValidationError(c, err, obj)
		return false
	}
	return true
}

// ValidationError sends a 400 response for a binding error. Field errors are
// keyed by the json (or form) name of the field when obj is given.
func ValidationError(c *gin.Context, err error, obj any) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, Response{
			Code:    http.StatusBadRequest,
			Message: "invalid request body",
		})
		return
	}

	names := fieldNames(obj)
	fieldErrors := make(map[string]string, len(ve))
	for _, fe := range ve {
		name, ok := names[fe.StructField()]
		if !ok {
			name = strings.ToLower(fe.Field())
		}
		fieldErrors[name] = describe(fe)
	}

	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Code:    http.StatusBadRequest,
		Message: "validation error",
		Errors:  fieldErrors,
	})
}

// describe turns a failed validation rule into a short message.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	if fe.Param() != "" {
		return "failed " + fe.Tag() + "=" + fe.Param()
	}
	return "failed " + fe.Tag()
}

// fieldNames maps struct field names of obj to their json tag names, falling
// back to form tags. It returns nil for non-struct values.
func fieldNames(obj any) map[string]string {
	if obj == nil {
		return nil
	}
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	m := make(map[string]string, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if name := tagName(f.Tag.Get("json")); name != "" {
			m[f.Name] = name
		} else if name := tagName(f.Tag.Get("form")); name != "" {
			m[f.Name] = name
		}
	}
	return m
}

// tagName returns the name part of a json or form struct tag.
func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}
