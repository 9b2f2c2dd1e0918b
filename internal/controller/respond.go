// Package controller holds shared HTTP helpers for the admin and user
// controllers.
package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Bandicoots/internal/apperr"
	"github.com/lshigami/Bandicoots/internal/dto"
)

// RespondError maps the engine's error taxonomy to HTTP statuses.
// Validation and policy errors surface verbatim; they are expected
// outcomes, not server faults.
func RespondError(c *gin.Context, err error) {
	var validation *apperr.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation failed",
			Details: validation.Issues,
		})
		return
	}

	var notFound *apperr.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: notFound.Error()})
		return
	}

	var policy *apperr.PolicyViolation
	if errors.As(err, &policy) {
		status := http.StatusConflict
		if policy.Code == apperr.CodeForbidden {
			status = http.StatusForbidden
		}
		body := dto.ErrorResponse{Error: policy.Message, Code: policy.Code}
		if policy.AvailableAt != nil {
			body.Details = gin.H{"available_at": policy.AvailableAt}
		}
		c.JSON(status, body)
		return
	}

	var integrity *apperr.IntegrityError
	if errors.As(err, &integrity) {
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: integrity.Message, Code: integrity.Code})
		return
	}

	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
}

// ParseUintParam reads a path parameter as an unsigned integer.
func ParseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(value), true
}
