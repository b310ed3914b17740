package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/zcredlabs/zscore/internal/applicant"
)

// Applicant is the stored applicant row. The alternative-data payloads
// stay serialized exactly as submitted; scoring re-parses them through
// the record union.
type Applicant struct {
	ID         string   `json:"id" db:"id"`
	Name       string   `json:"name" db:"name"`
	Phone      string   `json:"phone" db:"phone"`
	Email      string   `json:"email,omitempty" db:"email"`
	Age        *float64 `json:"age,omitempty" db:"age"`
	Gender     string   `json:"gender,omitempty" db:"gender"`
	Location   string   `json:"location,omitempty" db:"location"`
	Occupation string   `json:"occupation,omitempty" db:"occupation"`

	MonthlyIncome *float64 `json:"monthly_income,omitempty" db:"monthly_income"`

	BehavioralScore   float64 `json:"behavioral_score" db:"behavioral_score"`
	SocialScore       float64 `json:"social_score" db:"social_score"`
	DigitalScore      float64 `json:"digital_score" db:"digital_score"`
	OverallTrustScore float64 `json:"overall_trust_score" db:"overall_trust_score"`

	PaymentHistory   string `json:"utility_payment_history,omitempty" db:"utility_payment_history"`
	SocialProof      string `json:"social_proof_data,omitempty" db:"social_proof_data"`
	DigitalFootprint string `json:"digital_footprint,omitempty" db:"digital_footprint"`

	ApplicationStatus string  `json:"credit_application_status" db:"credit_application_status"`
	CreditLimit       float64 `json:"credit_limit,omitempty" db:"credit_limit"`
	RiskCategory      string  `json:"risk_category,omitempty" db:"risk_category"`
	RiskScore         float64 `json:"ml_prediction_score,omitempty" db:"ml_prediction_score"`

	ZCredits int64 `json:"z_credits" db:"z_credits"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewApplicant builds a storable row from a submitted record.
func NewApplicant(rec *applicant.Record) *Applicant {
	now := time.Now()
	a := &Applicant{
		ID:                uuid.New().String(),
		ApplicationStatus: "not_applied",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	a.ApplyRecord(rec)
	return a
}

// ApplyRecord replaces the identity fields and payloads with the values
// from rec. Scoring-owned columns (trust components, risk fields) are
// left alone; those are written by the scoring paths.
func (a *Applicant) ApplyRecord(rec *applicant.Record) {
	if rec == nil {
		return
	}

	a.Name = rec.Name
	a.Phone = rec.Phone
	a.Email = rec.Email
	a.Gender = rec.Gender
	a.Location = rec.Location
	a.Occupation = rec.Occupation

	a.Age = copyFloat(rec.Age)
	a.MonthlyIncome = copyFloat(rec.MonthlyIncome)
	if rec.ZCredits != nil {
		a.ZCredits = int64(*rec.ZCredits)
	}

	a.PaymentHistory = payloadString(rec.UtilityPaymentHistory)
	a.SocialProof = payloadString(rec.SocialProofData)
	a.DigitalFootprint = payloadString(rec.DigitalFootprintData)

	a.UpdatedAt = time.Now()
}

// Record converts the stored row back into a scoring record. Zero trust
// components are treated as never-scored and left absent so the
// vectorizer defaults apply.
func (a *Applicant) Record() *applicant.Record {
	rec := &applicant.Record{
		ID:         a.ID,
		Name:       a.Name,
		Phone:      a.Phone,
		Email:      a.Email,
		Gender:     a.Gender,
		Location:   a.Location,
		Occupation: a.Occupation,
	}

	rec.Age = copyFloat(a.Age)
	rec.MonthlyIncome = copyFloat(a.MonthlyIncome)

	z := float64(a.ZCredits)
	rec.ZCredits = &z

	if a.BehavioralScore > 0 {
		rec.BehavioralScore = floatPtr(a.BehavioralScore)
	}
	if a.SocialScore > 0 {
		rec.SocialScore = floatPtr(a.SocialScore)
	}
	if a.DigitalScore > 0 {
		rec.DigitalScore = floatPtr(a.DigitalScore)
	}
	if a.OverallTrustScore > 0 {
		rec.OverallTrustScore = floatPtr(a.OverallTrustScore)
	}

	if a.PaymentHistory != "" {
		rec.UtilityPaymentHistory = applicant.RawPayload([]byte(a.PaymentHistory))
	}
	if a.SocialProof != "" {
		rec.SocialProofData = applicant.RawPayload([]byte(a.SocialProof))
	}
	if a.DigitalFootprint != "" {
		rec.DigitalFootprintData = applicant.RawPayload([]byte(a.DigitalFootprint))
	}

	return rec
}

// TrustScoreEntry is one row of an applicant's trust score history.
type TrustScoreEntry struct {
	ID              string    `json:"id" db:"id"`
	ApplicantID     string    `json:"applicant_id" db:"applicant_id"`
	BehavioralScore float64   `json:"behavioral_score" db:"behavioral_score"`
	SocialScore     float64   `json:"social_score" db:"social_score"`
	DigitalScore    float64   `json:"digital_score" db:"digital_score"`
	OverallScore    float64   `json:"overall_trust_score" db:"overall_trust_score"`
	TrustPercentage float64   `json:"trust_percentage" db:"trust_percentage"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// NewTrustScoreEntry creates a history row for an applicant.
func NewTrustScoreEntry(applicantID string, behavioral, social, digital, overall, pct float64) *TrustScoreEntry {
	return &TrustScoreEntry{
		ID:              uuid.New().String(),
		ApplicantID:     applicantID,
		BehavioralScore: behavioral,
		SocialScore:     social,
		DigitalScore:    digital,
		OverallScore:    overall,
		TrustPercentage: pct,
		CreatedAt:       time.Now(),
	}
}

// Prediction is one audited risk prediction.
type Prediction struct {
	ID              string    `json:"id" db:"id"`
	ApplicantID     string    `json:"applicant_id" db:"applicant_id"`
	ModelVersion    string    `json:"model_version" db:"model_version"`
	InputFeatures   string    `json:"input_features,omitempty" db:"input_features"`
	Score           float64   `json:"prediction_score" db:"prediction_score"`
	RiskProbability float64   `json:"risk_probability" db:"risk_probability"`
	RiskCategory    string    `json:"risk_category" db:"risk_category"`
	Explanation     string    `json:"explanation,omitempty" db:"explanation"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// NewPrediction creates an audit row for a scored applicant.
func NewPrediction(applicantID, modelVersion string) *Prediction {
	return &Prediction{
		ID:           uuid.New().String(),
		ApplicantID:  applicantID,
		ModelVersion: modelVersion,
		CreatedAt:    time.Now(),
	}
}

// ConsentLog is one DPDPA consent event. WithdrawnAt is set when the
// applicant revokes the consent.
type ConsentLog struct {
	ID          string     `json:"id" db:"id"`
	ApplicantID string     `json:"applicant_id" db:"applicant_id"`
	ConsentType string     `json:"consent_type" db:"consent_type"`
	Purpose     string     `json:"purpose" db:"purpose"`
	Granted     bool       `json:"granted" db:"granted"`
	ConsentData string     `json:"consent_data,omitempty" db:"consent_data"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	WithdrawnAt *time.Time `json:"withdrawn_at,omitempty" db:"withdrawn_at"`
}

// NewConsentLog creates a consent event row.
func NewConsentLog(applicantID, consentType, purpose string, granted bool, consentData string) *ConsentLog {
	return &ConsentLog{
		ID:          uuid.New().String(),
		ApplicantID: applicantID,
		ConsentType: consentType,
		Purpose:     purpose,
		Granted:     granted,
		ConsentData: consentData,
		CreatedAt:   time.Now(),
	}
}

// Client represents an API client identified by IP and user agent
type Client struct {
	ID        string    `json:"id" db:"id"`
	IPAddress string    `json:"-" db:"ip_address"`
	UserAgent string    `json:"-" db:"user_agent"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewClient creates a new client with generated ID
func NewClient(ipAddress, userAgent string) *Client {
	now := time.Now()
	return &Client{
		ID:        uuid.New().String(),
		IPAddress: ipAddress,
		UserAgent: userAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RequestLog tracks scoring requests for quota accounting
type RequestLog struct {
	ID        string    `json:"id" db:"id"`
	ClientID  string    `json:"client_id" db:"client_id"`
	IPAddress string    `json:"-" db:"ip_address"`
	Endpoint  string    `json:"endpoint" db:"endpoint"`
	Method    string    `json:"method" db:"method"`
	UserAgent string    `json:"-" db:"user_agent"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewRequestLog creates a new request log entry
func NewRequestLog(clientID, ipAddress, endpoint, method, userAgent string) *RequestLog {
	return &RequestLog{
		ID:        uuid.New().String(),
		ClientID:  clientID,
		IPAddress: ipAddress,
		Endpoint:  endpoint,
		Method:    method,
		UserAgent: userAgent,
		CreatedAt: time.Now(),
	}
}

// UsageStats represents weekly usage statistics
type UsageStats struct {
	ClientID         string    `json:"client_id"`
	RequestsThisWeek int       `json:"requests_this_week"`
	WeekStart        time.Time `json:"week_start"`
	WeekEnd          time.Time `json:"week_end"`
}

func payloadString(p applicant.Payload) string {
	if p.IsZero() {
		return ""
	}
	data, err := p.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(data)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	x := *v
	return &x
}

func floatPtr(v float64) *float64 { return &v }
