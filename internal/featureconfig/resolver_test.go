package featureconfig

import (
	"reflect"
	"testing"
)

func TestResolveFreePlan(t *testing.T) {
	doc := testDocument()
	sel := Selection{Acting: RoleParent, Target: RoleSelf, Plan: PlanFree}
	got := Resolve(doc, sel)
	want := []FeatureRow{{Feature: FeatureCalls, Allowed: true}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Resolve = %v, want %v", got, want)
	}
}

func TestResolveAbsentAccessPathDeniesEverything(t *testing.T) {
	doc := testDocument()
	// No access entry exists for premium; every plan feature shows denied.
	sel := Selection{Acting: RoleParent, Target: RoleSelf, Plan: PlanPremium}
	got := Resolve(doc, sel)
	want := []FeatureRow{
		{Feature: FeatureCalls, Allowed: false},
		{Feature: FeatureScreenTime, Allowed: false},
		{Feature: FeatureLocation, Allowed: false},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Resolve = %v, want %v", got, want)
	}
}

func TestResolvePlanExcludedFeatureNeverAppears(t *testing.T) {
	doc := testDocument()
	// Grant location to the free plan path even though the plan does not
	// include it: plan membership is authoritative.
	doc.Access[RoleParent][RoleSelf][PlanFree][FeatureLocation] = AccessAllowed
	sel := Selection{Acting: RoleParent, Target: RoleSelf, Plan: PlanFree}
	for _, row := range Resolve(doc, sel) {
		if row.Feature == FeatureLocation {
			t.Fatal("plan-excluded feature leaked into output")
		}
	}
}

func TestResolveUnknownPlanYieldsNoRows(t *testing.T) {
	doc := testDocument()
	sel := Selection{Acting: RoleParent, Target: RoleSelf, Plan: PlanUnknown}
	if rows := Resolve(doc, sel); len(rows) != 0 {
		t.Fatalf("expected no rows for unknown plan, got %v", rows)
	}
}

func TestResolveCanonicalOrderIndependentOfDocumentOrder(t *testing.T) {
	doc := testDocument()
	// Scramble both the catalogue and the plan declaration order.
	doc.Features = []Feature{FeatureLocation, FeatureCalls, FeatureScreenTime}
	doc.Plans[PlanPremium] = Plan{Features: []Feature{FeatureLocation, FeatureScreenTime, FeatureCalls}}
	sel := Selection{Acting: RoleParent, Target: RoleSelf, Plan: PlanPremium}
	rows := Resolve(doc, sel)
	wantOrder := []Feature{FeatureCalls, FeatureScreenTime, FeatureLocation}
	if len(rows) != len(wantOrder) {
		t.Fatalf("expected %d rows, got %v", len(wantOrder), rows)
	}
	for i, f := range wantOrder {
		if rows[i].Feature != f {
			t.Fatalf("row %d = %q, want %q", i, rows[i].Feature, f)
		}
	}
}

func TestResolveIdempotent(t *testing.T) {
	doc := testDocument()
	sel := Selection{Acting: RoleParent, Target: RoleSelf, Plan: PlanBasic}
	first := Resolve(doc, sel)
	second := Resolve(doc, sel)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("resolution not idempotent: %v vs %v", first, second)
	}
}
