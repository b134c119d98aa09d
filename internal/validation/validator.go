// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

// Package validation provides struct validation using
// go-playground/validator v10. It exposes a thread-safe singleton
// validator; payload structs declare their rules with `validate` tags.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field validation failure.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

// Error returns a human-readable message for the failed field.
func (e *FieldError) Error() string {
	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "ip":
		return fmt.Sprintf("%s must be a valid IP address", e.Field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field, e.Param)
	case "min":
		return fmt.Sprintf("%s must be at least %s", e.Field, e.Param)
	default:
		return fmt.Sprintf("%s failed %s validation", e.Field, e.Tag)
	}
}

// PayloadError is a collection of field validation failures.
type PayloadError struct {
	Fields []FieldError
}

func (pe *PayloadError) Error() string {
	if len(pe.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(pe.Fields))
	for i := range pe.Fields {
		messages[i] = pe.Fields[i].Error()
	}
	return strings.Join(messages, "; ")
}

// GetValidator returns the singleton validator instance. The validator
// caches struct metadata, so a single shared instance is the cheap and
// thread-safe way to use it.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct validates s against its `validate` tags. Returns nil
// on success or a *PayloadError listing every failed field.
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: s was not a struct.
		return fmt.Errorf("validation: %w", err)
	}

	pe := &PayloadError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		pe.Fields = append(pe.Fields, FieldError{
			Field: strings.ToLower(fe.Field()),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return pe
}
