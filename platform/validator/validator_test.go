package validator

import (
	"errors"
	"testing"
)

type sample struct {
	SiteID string `form:"siteId" validate:"omitempty,uuid"`
	Notes  string `json:"notes,omitempty" validate:"max=3"`
	Hidden string `json:"-" validate:"required"`
}

func TestDetailsUsesWireNames(t *testing.T) {
	err := New().Struct(sample{SiteID: "abc", Notes: "too long"})
	got := Details(err)

	want := map[string]string{"siteId": "uuid", "notes": "max=3", "Hidden": "required"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for field, rule := range want {
		if got[field] != rule {
			t.Fatalf("field %s: expected %q, got %q (all: %v)", field, rule, got[field], got)
		}
	}
}

func TestDetailsIgnoresOtherErrors(t *testing.T) {
	if got := Details(errors.New("boom")); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
