package service

import (
	"regexp"
	"testing"
	"time"
)

var referencePattern = regexp.MustCompile(`^QT-\d{14}-[A-Z0-9]{6}$`)

func TestReferenceNumberFormat(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	ref := NewReferenceNumber(now)
	if !referencePattern.MatchString(ref) {
		t.Fatalf("reference %q does not match pattern", ref)
	}
	if ref[:17] != "QT-20260314092653" {
		t.Fatalf("unexpected timestamp part in %q", ref)
	}
}

func TestReferenceNumberUniqueness(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		ref := NewReferenceNumber(now)
		if _, dup := seen[ref]; dup {
			t.Fatalf("duplicate reference after %d draws: %s", i, ref)
		}
		seen[ref] = struct{}{}
	}
}
