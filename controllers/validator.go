package controllers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/boozebuddy/backend/pkg/slug"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// RequestValidator handles all input validation
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// BindJSON decodes the body into dst and runs its struct tags.
func (rv *RequestValidator) BindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := rv.validate.Struct(dst); err != nil {
		return describe(err)
	}
	return nil
}

// ParseUUIDParam reads a path parameter as a UUID.
func (rv *RequestValidator) ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// ParseOptionalUUIDQuery returns uuid.Nil when the query parameter is absent.
func (rv *RequestValidator) ParseOptionalUUIDQuery(c *gin.Context, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func (rv *RequestValidator) ParseStoreSlugParam(c *gin.Context, name string) (slug.StoreSlug, error) {
	s, err := slug.ParseStoreSlug(c.Param(name))
	if err != nil {
		return "", fmt.Errorf("invalid %s", name)
	}
	return s, nil
}

// describe flattens validator errors into "field: rule" pairs.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(parts, ", "))
}
