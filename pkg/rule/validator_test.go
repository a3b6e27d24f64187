package rule_test

import (
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/yeisme/papervault/pkg/internal/types"
	"github.com/yeisme/papervault/pkg/rule"
)

type uploadForm struct {
	Branch   string `rule:"required,pathseg"`
	Semester string `rule:"required,pathseg"`
	Subject  string `rule:"required,pathseg"`
	Type     string `rule:"oneof=PYQ CT Notes"`
}

func TestEngineShared(t *testing.T) {
	if rule.Engine() == nil {
		t.Fatal("Engine() returned nil")
	}

	if rule.Engine() != rule.Engine() {
		t.Error("Engine() should return the same instance")
	}
}

func TestValidateStruct_UploadForm(t *testing.T) {
	ok := uploadForm{Branch: "CSE", Semester: "3", Subject: "Data Structures", Type: "PYQ"}
	if err := rule.ValidateStruct(ok); err != nil {
		t.Fatalf("valid form rejected: %v", err)
	}

	cases := map[string]uploadForm{
		"empty branch":   {Semester: "3", Subject: "DSA", Type: "PYQ"},
		"traversal":      {Branch: "..", Semester: "3", Subject: "DSA", Type: "PYQ"},
		"slash":          {Branch: "CSE", Semester: "3/4", Subject: "DSA", Type: "PYQ"},
		"lowercase type": {Branch: "CSE", Semester: "3", Subject: "DSA", Type: "pyq"},
		"unknown type":   {Branch: "CSE", Semester: "3", Subject: "DSA", Type: "Slides"},
	}

	for name, form := range cases {
		if err := rule.ValidateStruct(form); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestValidateStruct_LoginRequest(t *testing.T) {
	if err := rule.ValidateStruct(types.LoginRequest{Username: "admin", Password: "pw"}); err != nil {
		t.Fatalf("valid login rejected: %v", err)
	}

	errs := rule.Errors(rule.ValidateStruct(types.LoginRequest{Username: "admin"}))
	if _, ok := errs["Password"]; !ok {
		t.Errorf("expected Password in %v", errs)
	}

	if _, ok := errs["Username"]; ok {
		t.Errorf("Username should pass, got %v", errs)
	}
}

func TestValidateVar(t *testing.T) {
	checks := []struct {
		value any
		tag   string
		ok    bool
	}{
		{"localhost:6379", "hostname_port", true},
		{"localhost", "hostname_port", false},
		{0.5, "gte=0,lte=1", true},
		{1.5, "gte=0,lte=1", false},
		{"https://cdn.example.com", "omitempty,url", true},
		{"", "omitempty,url", true},
		{"not a url", "omitempty,url", false},
	}

	for _, c := range checks {
		err := rule.ValidateVar(c.value, c.tag)
		if (err == nil) != c.ok {
			t.Errorf("ValidateVar(%v, %q) = %v, want ok=%v", c.value, c.tag, err, c.ok)
		}
	}
}

func TestPathSegment(t *testing.T) {
	for _, s := range []string{"CSE", "Data Structures", "3", "a.b", "2023.pdf"} {
		if err := rule.ValidateVar(s, "pathseg"); err != nil {
			t.Errorf("expected %q to be a valid segment, got %v", s, err)
		}
	}

	for _, s := range []string{"", ".", "..", "a/b", `a\b`, "x\x00y"} {
		if rule.IsPathSegment(s) {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestRegisterValidationAndAlias(t *testing.T) {
	err := rule.RegisterValidation("pdfname", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) > 4 && s[len(s)-4:] == ".pdf"
	})
	if err != nil {
		t.Fatalf("register validation: %v", err)
	}

	rule.RegisterAlias("pdffile", "required,pathseg,pdfname")

	if err := rule.ValidateVar("notes.pdf", "pdffile"); err != nil {
		t.Errorf("expected notes.pdf to pass, got %v", err)
	}

	for _, s := range []string{"notes.txt", "a/b.pdf", ""} {
		if err := rule.ValidateVar(s, "pdffile"); err == nil {
			t.Errorf("expected %q to fail", s)
		}
	}
}

func TestErrors(t *testing.T) {
	errs := rule.Errors(rule.ValidateStruct(uploadForm{Branch: "CSE", Semester: "3", Subject: "DSA", Type: "X"}))
	if msg := errs["Type"]; msg != "failed on oneof=PYQ CT Notes" {
		t.Errorf("unexpected Type message %q", msg)
	}

	if len(errs) != 1 {
		t.Errorf("expected only Type to fail, got %v", errs)
	}

	if rule.Errors(nil) != nil {
		t.Error("nil error should format to nil")
	}
}
