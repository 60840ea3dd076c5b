package validation

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Title   string  `json:"title" validate:"required,max=5"`
	ISBN    string  `json:"isbn,omitempty" validate:"omitempty,isbn"`
	IDs     []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
	Copies  int     `json:"copies" validate:"gte=0"`
	Ignored string  `json:"-"`
}

func TestStruct_Valid(t *testing.T) {
	v := New()
	err := Struct(v, &sample{Title: "Dune", ISBN: "9780306406157", IDs: []int64{1, 2}})
	if err != nil {
		t.Fatalf("expected valid sample, got %v", err)
	}
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	v := New()
	err := Struct(v, &sample{Title: "", ISBN: "123", IDs: []int64{0}, Copies: -1})

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}

	fields := make(map[string]string)
	for _, e := range verrs {
		fields[e.Field] = e.Message
	}

	expected := map[string]string{
		"title":  "title is required",
		"isbn":   "isbn must be a valid ISBN-10 or ISBN-13",
		"ids[0]": "ids[0] must be greater than 0",
		"copies": "copies must be greater than or equal to 0",
	}
	for field, msg := range expected {
		if fields[field] != msg {
			t.Errorf("field %s: expected %q, got %q", field, msg, fields[field])
		}
	}
}

func TestValidationErrors_DetailsAndError(t *testing.T) {
	errs := ValidationErrors{
		{Field: "title", Message: "title is required"},
		{Field: "ids", Message: "ids is required"},
	}

	details := errs.Details()
	fields, ok := details["fields"].(map[string]any)
	if !ok || len(fields) != 2 {
		t.Fatalf("expected 2 fields in details, got %v", details)
	}
	if !strings.Contains(errs.Error(), "2 error(s)") {
		t.Errorf("unexpected error string %q", errs.Error())
	}
}

func TestAppError(t *testing.T) {
	v := New()
	err := Struct(v, &sample{Title: "Dune"})

	appErr := AppError("Sample validation failed", err)
	if appErr.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %s", appErr.Code)
	}
	fields, ok := appErr.Details["fields"].(map[string]any)
	if !ok {
		t.Fatalf("expected fields map in details, got %v", appErr.Details)
	}
	if _, ok := fields["ids"]; !ok {
		t.Errorf("expected ids field in details, got %v", fields)
	}

	plain := AppError("Sample validation failed", errors.New("boom"))
	if plain.Details["error"] != "boom" {
		t.Errorf("expected raw error in details, got %v", plain.Details)
	}
}
