package validation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type bookingInput struct {
	ProviderID int64  `validate:"gt=0"`
	Date       string `validate:"required,timestamp"`
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{name: "utc", value: "2026-10-20T14:00:00Z", want: time.Date(2026, 10, 20, 14, 0, 0, 0, time.UTC)},
		{name: "offset", value: "2026-10-20T14:00:00-03:00", want: time.Date(2026, 10, 20, 17, 0, 0, 0, time.UTC)},
		{name: "fractional seconds", value: "2026-10-20T14:30:15.250Z", want: time.Date(2026, 10, 20, 14, 30, 15, 250000000, time.UTC)},
		{name: "surrounding spaces", value: "  2026-10-20T14:00:00Z ", want: time.Date(2026, 10, 20, 14, 0, 0, 0, time.UTC)},
		{name: "empty", value: "", wantErr: true},
		{name: "date only", value: "2026-10-20", wantErr: true},
		{name: "garbage", value: "tomorrow", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseTimestamp(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseTimestamp(%q) expected error", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) error = %v", tt.value, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    bookingInput
		wantErr  bool
		contains []string
	}{
		{name: "valid", input: bookingInput{ProviderID: 5, Date: "2026-10-20T14:00:00Z"}},
		{name: "missing provider", input: bookingInput{Date: "2026-10-20T14:00:00Z"}, wantErr: true, contains: []string{"provider_id must be greater than 0"}},
		{name: "negative provider", input: bookingInput{ProviderID: -1, Date: "2026-10-20T14:00:00Z"}, wantErr: true, contains: []string{"provider_id"}},
		{name: "missing date", input: bookingInput{ProviderID: 5}, wantErr: true, contains: []string{"date is required"}},
		{name: "bad date", input: bookingInput{ProviderID: 5, Date: "soon"}, wantErr: true, contains: []string{"date must be an RFC 3339 timestamp"}},
		{name: "both invalid", input: bookingInput{Date: "soon"}, wantErr: true, contains: []string{"provider_id", "date"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate.Struct(tt.input)
			if !tt.wantErr {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			msg := Describe(err)
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Describe() = %q, missing %q", msg, want)
				}
			}
		})
	}
}

func TestDescribe_NonValidatorError(t *testing.T) {
	t.Parallel()

	if got := Describe(errors.New("plain")); got != "plain" {
		t.Errorf("Describe() = %q, want %q", got, "plain")
	}
}
