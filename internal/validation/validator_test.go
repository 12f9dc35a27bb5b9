// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/mix/internal/models"
)

func fixedNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func validProfile() models.ProfileUpdate {
	return models.ProfileUpdate{
		Name:         "Ana",
		BirthDate:    "1995-06-15",
		Gender:       "woman",
		InterestedIn: "everyone",
		Bio:          "Climber, cook.",
		Photos:       []string{"https://cdn.example.com/a.jpg"},
		Interests:    []string{"climbing"},
	}
}

func TestValidateStruct_Adult(t *testing.T) {
	fixedNow(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	tests := []struct {
		name      string
		birthDate string
		wantErr   bool
	}{
		{"well over 18", "1990-01-01", false},
		{"18 today", "2008-03-10", false},
		{"18 tomorrow", "2008-03-11", true},
		{"child", "2015-01-01", true},
		{"future", "2030-01-01", true},
		{"implausibly old", "1890-01-01", true},
		{"wrong layout", "10/03/1990", true},
		{"garbage", "yesterday", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			p.BirthDate = tt.birthDate
			err := ValidateStruct(&p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && err.Errors()[0].Field() != "birthDate" {
				t.Errorf("field = %q, want birthDate", err.Errors()[0].Field())
			}
		})
	}
}

func TestValidateStruct_Profile(t *testing.T) {
	fixedNow(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	tests := []struct {
		name      string
		mutate    func(p *models.ProfileUpdate)
		wantField string
		wantTag   string
	}{
		{"valid", func(p *models.ProfileUpdate) {}, "", ""},
		{"missing name", func(p *models.ProfileUpdate) { p.Name = "" }, "name", "required"},
		{"bad gender", func(p *models.ProfileUpdate) { p.Gender = "robot" }, "gender", "oneof"},
		{"bad interest target", func(p *models.ProfileUpdate) { p.InterestedIn = "cats" }, "interestedIn", "oneof"},
		{"long bio", func(p *models.ProfileUpdate) { p.Bio = strings.Repeat("x", 501) }, "bio", "max"},
		{"bad photo url", func(p *models.ProfileUpdate) { p.Photos = []string{"not a url"} }, "photos[0]", "url"},
		{"too many photos", func(p *models.ProfileUpdate) {
			p.Photos = []string{"https://a/1", "https://a/2", "https://a/3", "https://a/4", "https://a/5", "https://a/6", "https://a/7"}
		}, "photos", "max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)
			err := ValidateStruct(&p)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			got := err.Errors()[0]
			if got.Field() != tt.wantField || got.Tag() != tt.wantTag {
				t.Errorf("got %s/%s, want %s/%s", got.Field(), got.Tag(), tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestValidateStruct_Phone(t *testing.T) {
	tests := []struct {
		phone   string
		wantErr bool
	}{
		{"+14155550123", false},
		{"+447700900123", false},
		{"4155550123", true},
		{"14155550123", true},
		{"+04155550123", true},
		{"+1234567890123456", true},
		{"+1 415 555 0123", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			req := models.PhoneLoginRequest{PhoneNumber: tt.phone}
			if err := ValidateStruct(&req); (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct(%q) error = %v, wantErr %v", tt.phone, err, tt.wantErr)
			}
		})
	}
}

func TestValidateStruct_PhoneWithoutPlus(t *testing.T) {
	err := ValidateStruct(&models.PhoneLoginRequest{PhoneNumber: "14155550123"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	got := err.Errors()[0]
	if got.Tag() != "e164strict" {
		t.Errorf("tag = %q, want e164strict", got.Tag())
	}
	if want := "phoneNumber must be a phone number in international format, e.g. +14155550123"; got.Error() != want {
		t.Errorf("message = %q, want %q", got.Error(), want)
	}
}

func TestRequestValidationError_ToAPIError(t *testing.T) {
	single := ValidateStruct(&models.PhoneLoginRequest{PhoneNumber: "nope"}).ToAPIError()
	if single.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", single.Code)
	}
	if single.Details["field"] != "phoneNumber" {
		t.Errorf("Details = %v", single.Details)
	}
	if !strings.Contains(single.Message, "phoneNumber") {
		t.Errorf("Message = %q", single.Message)
	}

	multi := ValidateStruct(&models.SwipeRequest{}).ToAPIError()
	fields, ok := multi.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Fatalf("Details = %v, want two fields", multi.Details)
	}
	if !strings.Contains(multi.Message, "; ") {
		t.Errorf("Message = %q, want joined messages", multi.Message)
	}
}

func TestTranslateError_Messages(t *testing.T) {
	req := models.SendMessageRequest{Content: strings.Repeat("x", 2001)}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "content must be at most 2000 characters" {
		t.Errorf("message = %q", got)
	}
}
