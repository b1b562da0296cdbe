package repository

import (
	"errors"
	"testing"

	"gorm.io/gorm"
)

func TestTranslateErrorMapsGormSentinels(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"duplicate key", gorm.ErrDuplicatedKey, ErrDuplicate},
		{"not found", gorm.ErrRecordNotFound, ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := translateError(tc.in); !errors.Is(got, tc.want) {
				t.Fatalf("translateError(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestTranslateErrorPassesThroughUnknownErrors(t *testing.T) {
	underlying := errors.New("connection reset")
	if got := translateError(underlying); !errors.Is(got, underlying) {
		t.Fatalf("expected passthrough, got %v", got)
	}
}

func TestTableNames(t *testing.T) {
	if got := (User{}).TableName(); got != "users" {
		t.Fatalf("unexpected users table name: %s", got)
	}
	if got := (AuthEvent{}).TableName(); got != "auth_events" {
		t.Fatalf("unexpected auth_events table name: %s", got)
	}
}
