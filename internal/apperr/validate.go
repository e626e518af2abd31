// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apperr

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Check runs v's rules and converts ozzo field errors into a
// *ValidationError. Other errors are returned unchanged.
func Check(v validation.Validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make(map[string]string, len(errs))
	for field, fieldErr := range errs {
		if fieldErr != nil {
			fields[field] = fieldErr.Error()
		}
	}
	return NewValidationError(fields)
}
