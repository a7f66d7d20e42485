package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
		exposed   bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true, exposed: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required", exposed: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found", exposed: true},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", detailsOK: true, exposed: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded", exposed: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true, exposed: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.ExposeMessage != tt.exposed {
			t.Fatalf("code %s expected expose message %v got %v", tt.code, tt.exposed, meta.ExposeMessage)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeDependency, cause, "log order")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped error to unwrap to cause")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("expected dependency code, got %s", err.Code())
	}
	if got := err.Error(); got != "DEPENDENCY_ERROR: log order: connection refused" {
		t.Fatalf("unexpected error string %q", got)
	}
}

func TestAsFindsTypedErrorThroughFmtWrap(t *testing.T) {
	typed := Newf(CodeNotFound, "product %d not found", 42).WithDetails(map[string]any{"id": 42})
	wrapped := fmt.Errorf("handler: %w", typed)

	got := As(wrapped)
	if got == nil {
		t.Fatal("expected typed error")
	}
	if got.Message() != "product 42 not found" {
		t.Fatalf("unexpected message %q", got.Message())
	}
	if got.Details() == nil {
		t.Fatal("expected details to be kept")
	}
	if !IsCode(wrapped, CodeNotFound) {
		t.Fatal("expected IsCode to match")
	}
	if IsCode(stdErrors.New("plain"), CodeNotFound) {
		t.Fatal("plain error must not match a code")
	}
}

func TestNilErrorAccessors(t *testing.T) {
	var e *Error
	if e.Code() != CodeInternal {
		t.Fatalf("nil error should report internal code")
	}
	if e.Message() != "" || e.Error() != "" || e.Unwrap() != nil {
		t.Fatal("nil error accessors should be zero values")
	}
	if As(nil) != nil {
		t.Fatal("As(nil) should be nil")
	}
}

func TestDiagnoseCollectsChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", Wrap(CodeInternal, stdErrors.New("inner"), "middle"))
	d := Diagnose(err)
	if d.Code != CodeInternal {
		t.Fatalf("expected internal code, got %s", d.Code)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d: %v", len(d.Chain), d.Chain)
	}
	if d.PG != nil {
		t.Fatal("expected no postgres detail for a plain chain")
	}
	if _, ok := d.LogFields()["pg_code"]; ok {
		t.Fatal("pg fields should be omitted without a driver error")
	}
	if Diagnose(nil).Message != "" {
		t.Fatal("expected empty diagnostics for nil error")
	}
}

func TestDiagnoseReadsPostgresErrors(t *testing.T) {
	pgxErr := &pgconn.PgError{Code: "23505", ConstraintName: "categories_slug_key", TableName: "categories"}
	d := Diagnose(Wrap(CodeConflict, fmt.Errorf("insert: %w", pgxErr), "slug taken"))
	if d.PG == nil || d.PG.Constraint != "categories_slug_key" || d.PG.Table != "categories" {
		t.Fatalf("unexpected pgx detail %+v", d.PG)
	}
	fields := d.LogFields()
	if fields["pg_code"] != "23505" || fields["error_code"] != string(CodeConflict) {
		t.Fatalf("unexpected log fields %v", fields)
	}

	pqErr := &pq.Error{Code: "23503", Table: "products", Detail: "category missing"}
	d = Diagnose(fmt.Errorf("save: %w", pqErr))
	if d.PG == nil || d.PG.Code != "23503" || d.PG.Detail != "category missing" {
		t.Fatalf("unexpected pq detail %+v", d.PG)
	}
}
