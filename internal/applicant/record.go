package applicant

import "math"

// Record is the raw applicant entity as submitted by callers. Every field
// is optional; consumers substitute documented defaults for absent values.
// The nested sub-records may arrive either as JSON objects or as
// JSON-encoded strings, so they are held as Payload unions until Resolve
// parses them once.
type Record struct {
	ID         string   `json:"id,omitempty"`
	Name       string   `json:"name,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Email      string   `json:"email,omitempty"`
	Age        *float64 `json:"age,omitempty"`
	Gender     string   `json:"gender,omitempty"`
	Location   string   `json:"location,omitempty"`
	Occupation string   `json:"occupation,omitempty"`

	MonthlyIncome   *float64 `json:"monthly_income,omitempty"`
	IncomeStability *float64 `json:"income_stability,omitempty"`

	BehavioralScore   *float64 `json:"behavioral_score,omitempty"`
	SocialScore       *float64 `json:"social_score,omitempty"`
	DigitalScore      *float64 `json:"digital_score,omitempty"`
	OverallTrustScore *float64 `json:"overall_trust_score,omitempty"`

	UtilityPaymentHistory Payload `json:"utility_payment_history"`
	SocialProofData       Payload `json:"social_proof_data"`
	DigitalFootprintData  Payload `json:"digital_footprint"`

	ZCredits *float64 `json:"z_credits,omitempty"`
}

// PaymentHistory describes utility and rent payment behavior.
type PaymentHistory struct {
	TotalPayments  *float64 `json:"total_payments,omitempty"`
	OnTimePayments *float64 `json:"on_time_payments,omitempty"`
	AverageAmount  *float64 `json:"average_amount,omitempty"`
	OnTimeRatio    *float64 `json:"on_time_ratio,omitempty"`
}

// DerivedOnTimeRatio returns the explicit on_time_ratio when present,
// otherwise on_time/total guarded against division by zero. With neither
// available it falls back to def.
func (p *PaymentHistory) DerivedOnTimeRatio(def float64) float64 {
	if p == nil {
		return def
	}
	if p.OnTimeRatio != nil {
		return Bound(p.OnTimeRatio, def, 0, 1)
	}
	if p.TotalPayments != nil {
		total := math.Max(*p.TotalPayments, 1)
		return Bound(ptr(Value(p.OnTimePayments, 0)/total), def, 0, 1)
	}
	return def
}

// SocialProof describes community standing signals.
type SocialProof struct {
	CommunityRating    *float64 `json:"community_rating,omitempty"`
	Endorsements       *float64 `json:"endorsements,omitempty"`
	GroupParticipation *float64 `json:"group_participation,omitempty"`
	NetworkSize        *float64 `json:"network_size,omitempty"`
}

// DigitalFootprint describes device and transaction behavior signals.
type DigitalFootprint struct {
	TransactionRegularity *float64 `json:"transaction_regularity,omitempty"`
	DeviceStability       *float64 `json:"device_stability,omitempty"`
	DigitalLiteracy       *float64 `json:"digital_literacy,omitempty"`
}

// Resolved is a Record with its nested sub-records parsed exactly once.
// A nil sub-record means the payload was absent, empty, or unparseable;
// downstream code never touches the Payload representation again.
type Resolved struct {
	Record  *Record
	Payment *PaymentHistory
	Social  *SocialProof
	Digital *DigitalFootprint
}

// Resolve parses the nested payloads. Malformed payloads resolve to nil
// sub-records rather than errors.
func (r *Record) Resolve() *Resolved {
	res := &Resolved{Record: r}

	var payment PaymentHistory
	if r.UtilityPaymentHistory.Decode(&payment) {
		res.Payment = &payment
	}

	var social SocialProof
	if r.SocialProofData.Decode(&social) {
		res.Social = &social
	}

	var digital DigitalFootprint
	if r.DigitalFootprintData.Decode(&digital) {
		res.Digital = &digital
	}

	return res
}

// Value returns the pointed-to value, or def when v is nil.
func Value(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Bound returns the pointed-to value clamped to [lo, hi], or def when v is
// nil. NaN passes through unclamped so feature validation can reject it by
// name instead of silently substituting.
func Bound(v *float64, def, lo, hi float64) float64 {
	x := def
	if v != nil {
		x = *v
	}
	if x < lo {
		x = lo
	}
	if x > hi {
		x = hi
	}
	return x
}

// BoundMin returns the pointed-to value clamped below at lo, or def when v
// is nil.
func BoundMin(v *float64, def, lo float64) float64 {
	x := def
	if v != nil {
		x = *v
	}
	if x < lo {
		x = lo
	}
	return x
}

func ptr(v float64) *float64 { return &v }
