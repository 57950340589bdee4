package errors

import (
	stderrs "errors"
	"net/http"
	"testing"
)

func TestWrapPreservesCodeAndCause(t *testing.T) {
	t.Parallel()

	cause := stderrs.New("connection refused")
	err := Wrap(cause, ErrorCodeFetch, "fetch ais endpoint")

	if !IsCode(err, ErrorCodeFetch) {
		t.Fatalf("CodeOf = %d, want ErrorCodeFetch", CodeOf(err))
	}
	if !stderrs.Is(err, cause) {
		t.Fatalf("wrapped cause lost")
	}
	if got := err.Error(); got != "fetch ais endpoint: connection refused" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestCodeOfForeignErrorIsUnknown(t *testing.T) {
	t.Parallel()

	if CodeOf(stderrs.New("plain")) != ErrorCodeUnknown {
		t.Fatalf("foreign error should map to Unknown")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrorCodeMalformedInput, http.StatusBadRequest},
		{ErrorCodeInvalidCoordinate, http.StatusUnprocessableEntity},
		{ErrorCodeFetchTimeout, http.StatusServiceUnavailable},
		{ErrorCodePersistence, http.StatusInternalServerError},
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeDuplicateKey, http.StatusConflict},
	}
	for _, tc := range cases {
		if got := HTTPStatusCode(tc.code); got != tc.want {
			t.Fatalf("HTTPStatusCode(%d) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestWithFieldCopyOnWrite(t *testing.T) {
	t.Parallel()

	orig := Newf(ErrorCodeValidation, "radius_km must be positive")
	withField := WithField(orig, "radius_km")

	oe, _ := As(orig)
	fe, _ := As(withField)
	if oe.Field() != "" {
		t.Fatalf("original mutated")
	}
	if fe.Field() != "radius_km" {
		t.Fatalf("field not attached")
	}
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	if !Retryable(FetchTimeoutf("slow feed")) {
		t.Fatalf("fetch timeout should be retryable")
	}
	if Retryable(MalformedInputf("no timestamp")) {
		t.Fatalf("malformed input is not retryable")
	}
}

func TestWrapIf(t *testing.T) {
	t.Parallel()

	if WrapIf(nil, ErrorCodeUnavailable, "open") != nil {
		t.Fatalf("nil must pass through")
	}
	err := WrapIf(stderrs.New("refused"), ErrorCodeUnavailable, "open")
	if !IsCode(err, ErrorCodeUnavailable) {
		t.Fatalf("code lost: %v", err)
	}
}

func TestWireFrom(t *testing.T) {
	t.Parallel()

	w := WireFrom(WithField(Newf(ErrorCodeValidation, "include terms required"), "include_terms"))
	if w.Code != ErrorCodeValidation || w.Field != "include_terms" {
		t.Fatalf("unexpected wire: %+v", w)
	}
}
