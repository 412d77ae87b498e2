package featureconfig

import (
	"testing"
)

func TestDecodeDocumentUnknownEnumValues(t *testing.T) {
	payload := []byte(`{
		"version": 7,
		"generated_at": "2026-08-01T00:00:00Z",
		"features": ["CALLS", "screen_time", "holograms"],
		"plans": {"free": {"features": ["calls"]}, "diamond": {"features": ["calls"]}},
		"roles": ["Parent", "robot"],
		"access": {"parent": {"self": {"free": {"calls": "ALLOWED", "location": "maybe"}}}},
		"new_top_level_field": {"ignored": true}
	}`)
	doc, err := DecodeDocument(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Version != 7 {
		t.Fatalf("expected version 7, got %d", doc.Version)
	}
	if got := doc.Features[0]; got != FeatureCalls {
		t.Fatalf("expected case-insensitive calls, got %q", got)
	}
	if got := doc.Features[2]; got != FeatureUnknown {
		t.Fatalf("expected unknown feature fallback, got %q", got)
	}
	if _, ok := doc.Plans[PlanUnknown]; !ok {
		t.Fatalf("expected unrecognized plan key to decode as unknown, got %v", doc.Plans)
	}
	if got := doc.Roles[1]; got != RoleUnknown {
		t.Fatalf("expected unknown role fallback, got %q", got)
	}
	flags := doc.Access.Flags(RoleParent, RoleSelf, PlanFree)
	if flags[FeatureCalls] != AccessAllowed {
		t.Fatalf("expected calls allowed, got %q", flags[FeatureCalls])
	}
	if flags[FeatureLocation] != AccessDenied {
		t.Fatalf("expected unrecognized flag to fail closed, got %q", flags[FeatureLocation])
	}
}

func TestDecodeDocumentMalformed(t *testing.T) {
	if _, err := DecodeDocument([]byte(`{"version": "not-a-number"`)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestParseAccessFlagFailsClosed(t *testing.T) {
	cases := map[string]AccessFlag{
		"allowed": AccessAllowed,
		"Allowed": AccessAllowed,
		"denied":  AccessDenied,
		"":        AccessDenied,
		"yes":     AccessDenied,
	}
	for in, want := range cases {
		if got := ParseAccessFlag(in); got != want {
			t.Fatalf("ParseAccessFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultDocumentGrantsNothing(t *testing.T) {
	doc := DefaultDocument()
	if !doc.IsDefault() {
		t.Fatal("default document must report IsDefault")
	}
	for _, plan := range []PlanID{PlanFree, PlanBasic, PlanPremium} {
		sel := Selection{Acting: RoleParent, Target: RoleSelf, Plan: plan}
		if rows := Resolve(doc, sel); len(rows) != 0 {
			t.Fatalf("default document resolved rows for %s: %v", plan, rows)
		}
	}
}

func TestDocumentEncodeDecodeRoundTrip(t *testing.T) {
	doc := testDocument()
	data, err := EncodeDocument(doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeDocument(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Version != doc.Version || got.GeneratedAt != doc.GeneratedAt {
		t.Fatalf("round trip changed document header: %+v", got)
	}
	if !got.Plans[PlanPremium].Includes(FeatureLocation) {
		t.Fatal("round trip lost premium location feature")
	}
	if got.Access.Flags(RoleParent, RoleSelf, PlanFree)[FeatureCalls] != AccessAllowed {
		t.Fatal("round trip lost access entry")
	}
}

// testDocument matches the canonical scenario: Free has calls, Basic adds
// screen time, Premium adds location; parent may see calls about itself on
// the free plan.
func testDocument() Document {
	return Document{
		Version:     3,
		GeneratedAt: "2026-08-15T12:00:00Z",
		Features:    []Feature{FeatureCalls, FeatureScreenTime, FeatureLocation},
		Plans: map[PlanID]Plan{
			PlanFree:    {Features: []Feature{FeatureCalls}},
			PlanBasic:   {Features: []Feature{FeatureCalls, FeatureScreenTime}},
			PlanPremium: {Features: []Feature{FeatureCalls, FeatureScreenTime, FeatureLocation}},
		},
		Roles: []Role{RoleParent, RoleChild, RoleMember, RoleSelf},
		Access: AccessMatrix{
			RoleParent: {
				RoleSelf: {
					PlanFree: {FeatureCalls: AccessAllowed},
				},
			},
		},
	}
}
