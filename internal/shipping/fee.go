package shipping

import "encoding/json"

// feeRule extracts a candidate fee from the decoded quote body.
type feeRule func(map[string]any) (float64, bool)

// The rate endpoint has answered in several shapes over time: a top-level
// numeric field (camel or snake case), the same nested under "data", a bare
// "total", or a fee embedded in the first candidate courier. The rules are
// ordered; the first hit wins.
var feeRules = []feeRule{
	numberField("totalPayable"),
	numberField("total_payable"),
	nested("data", numberField("totalPayable")),
	nested("data", numberField("total_payable")),
	numberField("total"),
	firstCourier,
	nested("data", firstCourier),
}

// ParseFee resolves the raw quote body to a single non-negative fee. ok is
// false when no rule matched, which callers must treat as "no quote", not as
// free delivery.
func ParseFee(raw json.RawMessage) (fee float64, ok bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return 0, false
	}
	for _, rule := range feeRules {
		if v, hit := rule(body); hit {
			if v < 0 {
				v = 0
			}
			return v, true
		}
	}
	return 0, false
}

func numberField(key string) feeRule {
	return func(m map[string]any) (float64, bool) {
		v, ok := m[key].(float64)
		return v, ok
	}
}

func nested(key string, inner feeRule) feeRule {
	return func(m map[string]any) (float64, bool) {
		child, ok := m[key].(map[string]any)
		if !ok {
			return 0, false
		}
		return inner(child)
	}
}

// firstCourier probes available_courier_companies[0] for any known fee field.
func firstCourier(m map[string]any) (float64, bool) {
	couriers, ok := m["available_courier_companies"].([]any)
	if !ok || len(couriers) == 0 {
		return 0, false
	}
	first, ok := couriers[0].(map[string]any)
	if !ok {
		return 0, false
	}
	for _, key := range []string{"totalPayable", "total_payable", "total"} {
		if v, hit := first[key].(float64); hit {
			return v, true
		}
	}
	return 0, false
}
