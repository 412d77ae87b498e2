// Package featureconfig implements the remotely-distributed feature access
// configuration: the document model, its persistence and retrieval, and the
// resolution of visible features for an acting/target role pair under a plan.
package featureconfig

import (
	"encoding/json"
	"reflect"
	"strings"
)

// Feature is a capability that a subscription plan may include.
type Feature string

const (
	FeatureCalls      Feature = "calls"
	FeatureScreenTime Feature = "screen_time"
	FeatureLocation   Feature = "location"
	// FeatureUnknown is produced when the wire value is not recognized by
	// this build. Unknown features are never shown.
	FeatureUnknown Feature = "unknown"
)

// PlanID identifies a subscription tier.
type PlanID string

const (
	PlanFree    PlanID = "free"
	PlanBasic   PlanID = "basic"
	PlanPremium PlanID = "premium"
	PlanUnknown PlanID = "unknown"
)

// Role identifies an actor in a resolution request.
type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
	RoleMember Role = "member"
	// RoleSelf means the acting role and the target role are the same party.
	RoleSelf    Role = "self"
	RoleUnknown Role = "unknown"
)

// AccessFlag is a binary permission. Anything that is not recognizably
// "allowed" decodes to AccessDenied.
type AccessFlag string

const (
	AccessAllowed AccessFlag = "allowed"
	AccessDenied  AccessFlag = "denied"
)

// ParseFeature matches a wire value case-insensitively, mapping unrecognized
// values to FeatureUnknown.
func ParseFeature(s string) Feature {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(FeatureCalls):
		return FeatureCalls
	case string(FeatureScreenTime):
		return FeatureScreenTime
	case string(FeatureLocation):
		return FeatureLocation
	default:
		return FeatureUnknown
	}
}

// ParsePlanID matches a wire value case-insensitively, mapping unrecognized
// values to PlanUnknown.
func ParsePlanID(s string) PlanID {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(PlanFree):
		return PlanFree
	case string(PlanBasic):
		return PlanBasic
	case string(PlanPremium):
		return PlanPremium
	default:
		return PlanUnknown
	}
}

// ParseRole matches a wire value case-insensitively, mapping unrecognized
// values to RoleUnknown.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RoleParent):
		return RoleParent
	case string(RoleChild):
		return RoleChild
	case string(RoleMember):
		return RoleMember
	case string(RoleSelf):
		return RoleSelf
	default:
		return RoleUnknown
	}
}

// ParseAccessFlag fails closed: only a recognizable "allowed" grants access.
func ParseAccessFlag(s string) AccessFlag {
	if strings.EqualFold(strings.TrimSpace(s), string(AccessAllowed)) {
		return AccessAllowed
	}
	return AccessDenied
}

// The enums implement encoding.TextUnmarshaler rather than json.Unmarshaler
// so the fallback decoding also applies where they appear as JSON object
// keys (the plans map and the access matrix levels).

// UnmarshalText decodes a feature with unknown-value fallback.
func (f *Feature) UnmarshalText(text []byte) error {
	*f = ParseFeature(string(text))
	return nil
}

// UnmarshalText decodes a plan id with unknown-value fallback.
func (p *PlanID) UnmarshalText(text []byte) error {
	*p = ParsePlanID(string(text))
	return nil
}

// UnmarshalText decodes a role with unknown-value fallback.
func (r *Role) UnmarshalText(text []byte) error {
	*r = ParseRole(string(text))
	return nil
}

// UnmarshalText decodes an access flag, failing closed on anything
// unrecognized.
func (a *AccessFlag) UnmarshalText(text []byte) error {
	*a = ParseAccessFlag(string(text))
	return nil
}

// Plan is the feature set included in a subscription tier. A feature absent
// from the plan can never be shown regardless of the access matrix.
type Plan struct {
	Features []Feature `json:"features"`
}

// Includes reports whether the plan carries the feature.
func (p Plan) Includes(f Feature) bool {
	for _, pf := range p.Features {
		if pf == f {
			return true
		}
	}
	return false
}

// AccessMatrix maps acting role -> target role -> plan -> feature flags.
// Missing entries at any level mean denied.
type AccessMatrix map[Role]map[Role]map[PlanID]map[Feature]AccessFlag

// Flags returns the per-feature flags for the given path, or an empty map
// when any level of the path is absent.
func (m AccessMatrix) Flags(acting, target Role, plan PlanID) map[Feature]AccessFlag {
	byTarget, ok := m[acting]
	if !ok {
		return nil
	}
	byPlan, ok := byTarget[target]
	if !ok {
		return nil
	}
	return byPlan[plan]
}

// Document is the root configuration aggregate. It is treated as immutable:
// every refresh replaces the whole value, never patches in place.
type Document struct {
	Version     int             `json:"version"`
	GeneratedAt string          `json:"generated_at"`
	Notes       []string        `json:"notes,omitempty"`
	Features    []Feature       `json:"features"`
	Plans       map[PlanID]Plan `json:"plans"`
	Roles       []Role          `json:"roles"`
	Access      AccessMatrix    `json:"access"`
}

// DefaultDocument returns the built-in safe default served when nothing has
// ever been persisted or the persisted payload is unreadable. It grants
// nothing: every plan is empty and the access matrix is empty.
func DefaultDocument() Document {
	return Document{
		Version:     0,
		GeneratedAt: "",
		Features:    []Feature{FeatureCalls, FeatureScreenTime, FeatureLocation},
		Plans: map[PlanID]Plan{
			PlanFree:    {},
			PlanBasic:   {},
			PlanPremium: {},
		},
		Roles:  []Role{RoleParent, RoleChild, RoleMember, RoleSelf},
		Access: AccessMatrix{},
	}
}

// IsDefault reports whether the document is value-equal to the built-in
// default.
func (d Document) IsDefault() bool {
	return reflect.DeepEqual(d, DefaultDocument())
}

// DecodeDocument parses a JSON payload into a Document. Unknown enum values
// degrade to their Unknown variants and unknown top-level fields are
// ignored, so documents produced by newer builds still decode.
func DecodeDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// EncodeDocument serializes a Document for persistence or transport.
func EncodeDocument(doc Document) ([]byte, error) {
	return json.Marshal(doc)
}

// Selection describes one resolution request: which role is asking, about
// whom, under which plan. Selections are transient and never persisted.
type Selection struct {
	Acting Role   `json:"acting"`
	Target Role   `json:"target"`
	Plan   PlanID `json:"plan"`
}

// FeatureRow is one line of a resolution result.
type FeatureRow struct {
	Feature Feature `json:"feature"`
	Allowed bool    `json:"allowed"`
}
