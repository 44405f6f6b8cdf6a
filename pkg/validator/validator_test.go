package validator

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
)

type locationPayload struct {
	Name         string  `json:"name" validate:"required"`
	Lat          float64 `json:"lat" validate:"latitude"`
	Lon          float64 `json:"lon" validate:"longitude"`
	RadiusMeters float64 `json:"radiusMeters" validate:"gt=0"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := locationPayload{
		Name:         "HQ",
		Lat:          12.971599,
		Lon:          77.594566,
		RadiusMeters: 100,
	}

	if err := ValidateStruct(payload); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	payload := locationPayload{
		Name:         "",
		Lat:          120,
		Lon:          10,
		RadiusMeters: 0,
	}

	err := ValidateStruct(payload)
	if err == nil {
		t.Fatal("expected validation error")
	}

	vErrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(vErrs) != 3 {
		t.Fatalf("expected 3 validation errors, got %d", len(vErrs))
	}

	foundRadius := false
	for _, v := range vErrs {
		if v.Field == "radiusMeters" {
			foundRadius = true
		}
	}
	if !foundRadius {
		t.Fatal("expected radiusMeters field to be present in validation errors")
	}
}

func TestDomainRules(t *testing.T) {
	type filter struct {
		Status string `json:"status" validate:"session_status"`
		Type   string `json:"type" validate:"report_type"`
	}

	if err := ValidateStruct(filter{Status: "heartbeat_timeout", Type: "weekly"}); err != nil {
		t.Fatalf("expected known values to pass, got %v", err)
	}
	if err := ValidateStruct(filter{}); err != nil {
		t.Fatalf("expected empty values to pass, got %v", err)
	}

	err := ValidateStruct(filter{Status: "suspended", Type: "hourly"})
	if err == nil {
		t.Fatal("expected unknown values to fail")
	}
	msg := Describe(err)
	if !strings.Contains(msg, "status must be a known session status") {
		t.Fatalf("unexpected description %q", msg)
	}
	if !strings.Contains(msg, "type must be daily, weekly, monthly or yearly") {
		t.Fatalf("unexpected description %q", msg)
	}
}

func TestDescribePrettifiesCamelCase(t *testing.T) {
	err := ValidateStruct(locationPayload{Name: "HQ", RadiusMeters: -1})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := Describe(err); got != "radius meters must be greater than 0" {
		t.Fatalf("unexpected description %q", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("fence", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "fence"
	})
	if err != nil {
		t.Fatalf("register validation: %v", err)
	}

	type custom struct {
		Value string `validate:"fence"`
	}

	if err := ValidateStruct(custom{Value: "fence"}); err != nil {
		t.Fatalf("expected validation to pass, got %v", err)
	}
	if err := ValidateStruct(custom{Value: "other"}); err == nil {
		t.Fatal("expected validation to fail for non-matching value")
	}
}
