package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeConfirmationRequired, http.StatusPreconditionRequired},
		{CodeConflict, http.StatusConflict},
		{CodeStateConflict, http.StatusUnprocessableEntity},
		{CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("MetadataFor(%s).HTTPStatus = %d, want %d", tc.code, got, tc.status)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown code should map to 500, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := Wrap(CodeDependency, cause, "loading stock")
	if !stdErrors.Is(err, cause) {
		t.Fatal("wrapped error should expose its cause via errors.Is")
	}
	typed := As(err)
	if typed == nil {
		t.Fatal("As should recover the typed error")
	}
	if typed.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "validation failed").WithDetails(map[string]string{"prazo_consignacao": "must be between 1 and 30"})
	details, ok := err.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details type %T", err.Details())
	}
	if details["prazo_consignacao"] == "" {
		t.Fatal("details lost")
	}
}

func TestDumpWalksChain(t *testing.T) {
	err := Wrap(CodeInternal, fmt.Errorf("inner"), "outer")
	dump := Dump(err)
	if dump.Code != CodeInternal {
		t.Fatalf("dump code = %s", dump.Code)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected full chain, got %v", dump.Chain)
	}
}
