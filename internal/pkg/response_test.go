package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/order360/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type viewInput struct {
	Name     string `json:"name" form:"name" binding:"required,max=10"`
	Channel  string `form:"channel" binding:"omitempty,oneof=Online Shop"`
	PageSize int    `json:"pageSize,omitempty" binding:"omitempty,min=1,max=100"`
	Email    string `binding:"omitempty,email"`
}

func newResponseContext(method, body, contentType string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, "/api/v1/views", strings.NewReader(body))
	if contentType != "" {
		c.Request.Header.Set("Content-Type", contentType)
	}
	return c, w
}

func decodeResponse[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return v
}

func TestSuccessAndCreated(t *testing.T) {
	c, w := newResponseContext(http.MethodGet, "", "")
	Success(c, NewPageResult([]string{"a"}, 1, domain.PageRequest{Page: 1, PageSize: 10}))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	resp := decodeResponse[struct {
		Code    int                       `json:"code"`
		Message string                    `json:"message"`
		Data    domain.PageResult[string] `json:"data"`
	}](t, w)
	if resp.Code != http.StatusOK || resp.Message != "success" || resp.Data.Total != 1 || resp.Data.Items[0] != "a" {
		t.Errorf("response = %+v", resp)
	}

	c, w = newResponseContext(http.MethodPost, "", "")
	Created(c, map[string]uint{"id": 7})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; want 201", w.Code)
	}
	if r := decodeResponse[Response](t, w); r.Code != http.StatusCreated || r.Data == nil {
		t.Errorf("response = %+v", r)
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", domain.NewAppError(domain.CodeNotFound, "saved view not found", nil), http.StatusNotFound, "saved view not found"},
		{"conflict", domain.NewAppError(domain.CodeAlreadyExists, "name taken", nil), http.StatusConflict, "name taken"},
		{"validation", domain.NewAppError(domain.CodeValidation, "invalid id: x", nil), http.StatusBadRequest, "invalid id: x"},
		{"wrapped validation", fmt.Errorf("decode: %w", domain.NewAppError(domain.CodeValidation, "bad", nil)), http.StatusBadRequest, "bad"},
		{"upstream hides payload", domain.NewAppError(domain.CodeUpstream, "GET /orders: 503 <html>", nil), http.StatusBadGateway, MsgUpstream},
		{"unauthorized upstream", domain.NewAppError(domain.CodeUnauthorized, "token rejected", nil), http.StatusBadGateway, MsgUnauthorized},
		{"internal hides cause", domain.NewAppError(domain.CodeInternal, "sql: no such table", nil), http.StatusInternalServerError, "internal error"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newResponseContext(http.MethodGet, "", "")
			Error(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d; want %d", w.Code, tt.wantStatus)
			}
			resp := decodeResponse[Response](t, w)
			if resp.Code != tt.wantStatus || resp.Message != tt.wantMsg || resp.Data != nil {
				t.Errorf("response = %+v; want code %d message %q", resp, tt.wantStatus, tt.wantMsg)
			}
		})
	}
}

func TestBindAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantOK      bool
		wantErrors  map[string]string
	}{
		{
			name:        "valid",
			body:        `{"name":"mine","pageSize":20}`,
			contentType: "application/json",
			wantOK:      true,
		},
		{
			name:        "missing name",
			body:        `{}`,
			contentType: "application/json",
			wantErrors:  map[string]string{"name": "is required"},
		},
		{
			name:        "too long and out of range",
			body:        `{"name":"a very long view name","pageSize":500}`,
			contentType: "application/json",
			wantErrors: map[string]string{
				"name":     "must be at most 10 characters",
				"pageSize": "must be at most 100",
			},
		},
		{
			name:        "form names and untagged fields",
			body:        "name=mine&channel=Mail&Email=nope",
			contentType: "application/x-www-form-urlencoded",
			wantErrors: map[string]string{
				"channel": "must be one of Online, Shop",
				"email":   "failed email",
			},
		},
		{
			name:        "malformed json",
			body:        `{"name":`,
			contentType: "application/json",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newResponseContext(http.MethodPost, tt.body, tt.contentType)
			var in viewInput
			ok := BindAndValidate(c, &in)

			if ok != tt.wantOK {
				t.Fatalf("BindAndValidate() = %v; want %v (body %s)", ok, tt.wantOK, w.Body.String())
			}
			if ok {
				if in.Name != "mine" {
					t.Errorf("bound = %+v", in)
				}
				return
			}
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d; want 400", w.Code)
			}
			resp := decodeResponse[ValidationErrorResponse](t, w)
			if tt.wantErrors == nil {
				if resp.Message != "invalid request body" || len(resp.Errors) != 0 {
					t.Errorf("response = %+v", resp)
				}
				return
			}
			if resp.Message != "validation error" || len(resp.Errors) != len(tt.wantErrors) {
				t.Errorf("response = %+v", resp)
			}
			for field, msg := range tt.wantErrors {
				if resp.Errors[field] != msg {
					t.Errorf("Errors[%q] = %q; want %q", field, resp.Errors[field], msg)
				}
			}
		})
	}
}

func TestFieldNames(t *testing.T) {
	got := fieldNames(&viewInput{})
	want := map[string]string{"Name": "name", "Channel": "channel", "PageSize": "pageSize"}
	if len(got) != len(want) {
		t.Fatalf("fieldNames() = %v; want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("fieldNames()[%q] = %q; want %q", k, got[k], v)
		}
	}
	if fieldNames("x") != nil || fieldNames(nil) != nil {
		t.Error("non-struct values should map to nil")
	}
}
