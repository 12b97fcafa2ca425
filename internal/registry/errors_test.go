package registry

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{BadRequest("bad"), http.StatusBadRequest},
		{NotFound("missing %s", "thing"), http.StatusNotFound},
		{PayloadTooLarge("big"), http.StatusRequestEntityTooLarge},
		{NotAcceptable("nope"), http.StatusNotAcceptable},
		{Unauthorized("who"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{fmt.Errorf("wrapped: %w", NotFound("inner")), http.StatusNotFound},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusOf(tc.err); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := NotFound("missing %s", "thing")
	if err.Error() != "missing thing" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	empty := &Error{Status: http.StatusForbidden}
	if empty.Error() != http.StatusText(http.StatusForbidden) {
		t.Fatalf("unexpected fallback %q", empty.Error())
	}
}
