package featureconfig

// canonicalOrder fixes the presentation order of the known features.
// Features the build does not know about follow in document declaration
// order, so output stays deterministic regardless of upstream reordering.
var canonicalOrder = []Feature{FeatureCalls, FeatureScreenTime, FeatureLocation}

// Resolve computes the ordered feature rows visible for the selection.
//
// A feature appears in the output only when the selected plan includes it;
// plan-absent features are omitted entirely, not emitted as denied. For each
// included feature the access matrix decides visibility, with any missing
// path treated as denied. Resolution is pure and cannot fail.
func Resolve(doc Document, sel Selection) []FeatureRow {
	plan, ok := doc.Plans[sel.Plan]
	if !ok {
		return []FeatureRow{}
	}

	flags := doc.Access.Flags(sel.Acting, sel.Target, sel.Plan)

	rows := make([]FeatureRow, 0, len(plan.Features))
	emitted := make(map[Feature]struct{}, len(plan.Features))
	emit := func(f Feature) {
		if _, done := emitted[f]; done {
			return
		}
		emitted[f] = struct{}{}
		if f == FeatureUnknown || !plan.Includes(f) {
			return
		}
		rows = append(rows, FeatureRow{Feature: f, Allowed: flags[f] == AccessAllowed})
	}

	for _, f := range canonicalOrder {
		emit(f)
	}
	for _, f := range doc.Features {
		emit(f)
	}
	return rows
}
