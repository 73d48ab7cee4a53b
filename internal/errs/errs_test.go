package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("name required: %w", ErrValidation), http.StatusBadRequest, "validation_error"},
		{fmt.Errorf("slot taken: %w", ErrConflict), http.StatusConflict, "conflict"},
		{fmt.Errorf("no such session: %w", ErrNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("session completed: %w", ErrInvalidState), http.StatusUnprocessableEntity, "invalid_state"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.status {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.status)
		}
		if got := Code(tc.err); got != tc.code {
			t.Errorf("Code(%v) = %q, want %q", tc.err, got, tc.code)
		}
	}
}

func TestWrappedErrorsStayMatchable(t *testing.T) {
	err := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", ErrInvalidState))
	if !errors.Is(err, ErrInvalidState) {
		t.Error("double-wrapped sentinel must still match")
	}
	if HTTPStatus(err) != http.StatusUnprocessableEntity {
		t.Error("double-wrapped sentinel must still map to 422")
	}
}
