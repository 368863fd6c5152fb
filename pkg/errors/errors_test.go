package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidStrategy, "unknown strategy %q", "spiral")

	if err.Code != ErrCodeInvalidStrategy {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidStrategy)
	}
	if err.Message != `unknown strategy "spiral"` {
		t.Errorf("Message = %v", err.Message)
	}
	want := `INVALID_STRATEGY: unknown strategy "spiral"`
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeStore, cause, "failed to save version")

	if err.Code != ErrCodeStore {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeStore)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"MatchingCode", New(ErrCodeConflict, "x"), ErrCodeConflict, true},
		{"DifferentCode", New(ErrCodeConflict, "x"), ErrCodeNotFound, false},
		{"PlainError", errors.New("plain"), ErrCodeConflict, false},
		{"WrappedMatch", Wrap(ErrCodeCache, errors.New("io"), "x"), ErrCodeCache, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeInvalidSyntax, "x")); got != ErrCodeInvalidSyntax {
		t.Errorf("GetCode = %v, want %v", got, ErrCodeInvalidSyntax)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInternal, "boom")); got != "boom" {
		t.Errorf("UserMessage = %v, want boom", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage = %v, want plain", got)
	}
}

func TestValidateWorkflowName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Simple", "order-pipeline", false},
		{"WithSpaces", "Order Pipeline v2", false},
		{"Empty", "", true},
		{"Traversal", "../etc/passwd", true},
		{"Slash", "a/b", true},
		{"Backslash", `a\b`, true},
		{"Control", "a\x07b", true},
		{"TooLong", string(make([]byte, 300)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWorkflowName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWorkflowName(%q) = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
