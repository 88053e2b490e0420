package tasks

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var allowOptionals = cmp.AllowUnexported(Optional[string]{}, Optional[Status]{})

func TestPrepareCreate(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		want    NewTask
		wantErr bool
	}{
		{
			name: "title only",
			in:   Input{Title: Some("Buy milk")},
			want: NewTask{Title: "Buy milk"},
		},
		{
			name: "trimmed with description",
			in:   Input{Title: Some("  Buy milk "), Description: Some(" semi-skimmed ")},
			want: NewTask{Title: "Buy milk", Description: strPtr("semi-skimmed")},
		},
		{
			name: "blank description dropped",
			in:   Input{Title: Some("x"), Description: Some("   ")},
			want: NewTask{Title: "x"},
		},
		{
			name: "status ignored",
			in:   Input{Title: Some("x"), Status: Some("done")},
			want: NewTask{Title: "x"},
		},
		{name: "missing title", in: Input{}, wantErr: true},
		{name: "empty title", in: Input{Title: Some("")}, wantErr: true},
		{name: "whitespace title", in: Input{Title: Some(" \t ")}, wantErr: true},
		{name: "title too long", in: Input{Title: Some(strings.Repeat("a", 101))}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PrepareCreate(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("err = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPrepareCreateAcceptsMaxLengthTitle(t *testing.T) {
	title := strings.Repeat("é", maxTitleLen)
	if _, err := PrepareCreate(Input{Title: Some(title)}); err != nil {
		t.Fatalf("100 rune title rejected: %v", err)
	}
}

func TestPrepareUpdate(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		want    Fields
		wantErr error
	}{
		{
			name: "status done",
			in:   Input{Status: Some("done")},
			want: Fields{Status: Some(StatusDone)},
		},
		{
			name: "status normalised",
			in:   Input{Status: Some(" Pending ")},
			want: Fields{Status: Some(StatusPending)},
		},
		{
			name: "title and description",
			in:   Input{Title: Some(" new "), Description: Some("d")},
			want: Fields{Title: Some("new"), Description: Some("d")},
		},
		{
			name: "blank description clears",
			in:   Input{Description: Some("  ")},
			want: Fields{Description: Some("")},
		},
		{name: "nothing", in: Input{}, wantErr: ErrNoFields},
		{name: "empty title", in: Input{Title: Some(" ")}, wantErr: ErrValidation},
		{name: "unknown status", in: Input{Status: Some("archived")}, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PrepareUpdate(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got, allowOptionals); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{&ValidationError{Field: "titulo", Message: msgTitleRequired}, 400, msgTitleRequired},
		{ErrNoFields, 400, msgNothingToSet},
		{ErrMalformedBody, 400, msgInvalidJSON},
		{ErrNotFound, 404, msgTaskNotFound},
		{ErrWrite, 500, "fallback"},
		{ErrStoreUnavailable, 500, "fallback"},
	}
	for _, tt := range tests {
		status, msg := statusFor(tt.err, "fallback")
		if status != tt.wantStatus || msg != tt.wantMsg {
			t.Errorf("statusFor(%v) = %d %q, want %d %q", tt.err, status, msg, tt.wantStatus, tt.wantMsg)
		}
	}
}
