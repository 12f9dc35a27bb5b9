// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

// Package validation validates request bodies with go-playground/validator v10.
//
// A single validator instance is shared by all handlers. Errors name fields by
// their JSON tag (birthDate, not BirthDate) and convert to the API's
// VALIDATION_ERROR shape with ToAPIError.
//
// Custom tags:
//
//	adult       YYYY-MM-DD birth date of someone at least MinimumAge years old
//	e164strict  E.164 phone number with the leading plus
//
//	type PhoneLoginRequest struct {
//	    PhoneNumber string `json:"phoneNumber" validate:"required,e164strict"`
//	}
//
// Built-in tags carry the rest.
package validation
