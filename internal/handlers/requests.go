package handlers

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// CatalogRequest is the query of the catalog page.
type CatalogRequest struct {
	Page   int    `query:"page" validate:"gte=0"`
	Sort   string `query:"sort" validate:"omitempty,oneof=latest popular likes"`
	Search string `query:"search" validate:"max=200"`
}

// CommentRequest is the body of a new comment. Blank content is rejected
// by the detail page so the notice matches the other clients.
type CommentRequest struct {
	Content string `form:"content" validate:"max=5000"`
}

// UploadDetailsRequest is the second step of the upload form.
type UploadDetailsRequest struct {
	Name        string `form:"name" validate:"max=200"`
	Description string `form:"description" validate:"max=2000"`
	IsPublic    bool   `form:"is_public"`
}

// VisibilityRequest is the wanted visibility of an own preset.
type VisibilityRequest struct {
	Public bool `form:"public"`
}
