package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPostFormCaption(t *testing.T) {
	cases := []struct {
		caption string
		want    FieldErrors
	}{
		{"Hello", nil},
		{"Hi", FieldErrors{"caption": MsgTooShort}},
		{"", FieldErrors{"caption": MsgTooShort}},
		{"héllo", nil},
		{strings.Repeat("a", 2200), nil},
		{strings.Repeat("a", 2201), FieldErrors{"caption": MsgTooLong}},
	}
	for i, c := range cases {
		err := Validate(PostForm{Caption: c.caption})
		if c.want == nil {
			if err != nil {
				t.Fatalf("case %d expected ok, got err: %v", i, err)
			}
			continue
		}
		var fe FieldErrors
		if !errors.As(err, &fe) {
			t.Fatalf("case %d expected FieldErrors, got %v", i, err)
		}
		if diff := cmp.Diff(c.want, fe); diff != "" {
			t.Fatalf("case %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestSignupForm(t *testing.T) {
	cases := []struct {
		form SignupForm
		want FieldErrors
	}{
		{SignupForm{"Jo", "jo", "jo@example.com", "secret123"}, nil},
		{SignupForm{"J", "jo", "jo@example.com", "secret123"}, FieldErrors{"name": MsgTooShort}},
		{SignupForm{"Jo", "j", "jo@example.com", "secret123"}, FieldErrors{"username": MsgTooShort}},
		{SignupForm{"Jo", "jo", "not-an-email", "secret123"}, FieldErrors{"email": MsgInvalidEmail}},
		{SignupForm{"Jo", "jo", "jo@example.com", "short"}, FieldErrors{"password": MsgTooShort}},
		{SignupForm{}, FieldErrors{
			"name":     MsgTooShort,
			"username": MsgTooShort,
			"email":    MsgInvalidEmail,
			"password": MsgTooShort,
		}},
	}
	for i, c := range cases {
		err := Validate(c.form)
		var got FieldErrors
		if err != nil && !errors.As(err, &got) {
			t.Fatalf("case %d unexpected error type: %v", i, err)
		}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Fatalf("case %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestSigninForm(t *testing.T) {
	if err := Validate(SigninForm{Email: "a@b.co", Password: "12345678"}); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := Validate(SigninForm{Email: "a@b.co", Password: "1234567"}); err == nil {
		t.Fatalf("expected short password to fail")
	}
}

func TestProfileForm(t *testing.T) {
	ok := ProfileForm{Name: "Ann", Username: "ann", Email: "ann@example.com", Bio: "hello there"}
	if err := Validate(ok); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := ok
	bad.Bio = "hey"
	var fe FieldErrors
	if err := Validate(bad); !errors.As(err, &fe) || fe["bio"] != MsgTooShort {
		t.Fatalf("expected bio Too Short, got %v", err)
	}
}

func TestFieldErrorsMessageIsStable(t *testing.T) {
	fe := FieldErrors{"b": "two", "a": "one"}
	if got, want := fe.Error(), "validation failed: a: one, b: two"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
