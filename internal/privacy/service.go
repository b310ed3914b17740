package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/zcredlabs/zscore/internal/database"
)

// Consent types an applicant can grant. Data processing consent is the
// one scoring requires; the others gate the alternative-data payloads.
const (
	ConsentDataProcessing   = "data_processing"
	ConsentUtilityData      = "utility_data"
	ConsentSocialProof      = "social_proof"
	ConsentDigitalFootprint = "digital_footprint"
)

// knownConsentTypes is the closed set of consent types we record
var knownConsentTypes = map[string]bool{
	ConsentDataProcessing:   true,
	ConsentUtilityData:      true,
	ConsentSocialProof:      true,
	ConsentDigitalFootprint: true,
}

// PrivacyService handles consent tracking and DPDPA compliance
type PrivacyService struct {
	repo *database.Repository
}

// NewService creates a new privacy service
func NewService(repo *database.Repository) *PrivacyService {
	return &PrivacyService{repo: repo}
}

// AnonymizeIdentifier hashes a personal identifier for log output
func (ps *PrivacyService) AnonymizeIdentifier(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:])
}

// IsKnownConsentType reports whether the consent type is one we track
func (ps *PrivacyService) IsKnownConsentType(consentType string) bool {
	return knownConsentTypes[consentType]
}

// RecordConsent stores a consent grant or refusal for an applicant
func (ps *PrivacyService) RecordConsent(applicantID, consentType, purpose string, granted bool, metadata map[string]interface{}) (*database.ConsentLog, error) {
	if !ps.IsKnownConsentType(consentType) {
		return nil, fmt.Errorf("unknown consent type: %s", consentType)
	}
	if purpose == "" {
		purpose = "credit_assessment"
	}

	consentData := ""
	if len(metadata) > 0 {
		data, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize consent metadata: %w", err)
		}
		consentData = string(data)
	}

	entry := database.NewConsentLog(applicantID, consentType, purpose, granted, consentData)
	if err := ps.repo.LogConsent(entry); err != nil {
		return nil, err
	}

	slog.Info("Consent recorded",
		"applicant_id", applicantID,
		"consent_type", consentType,
		"granted", granted,
	)

	return entry, nil
}

// WithdrawConsent marks all active grants of a consent type as withdrawn
func (ps *PrivacyService) WithdrawConsent(applicantID, consentType string) (int64, error) {
	if !ps.IsKnownConsentType(consentType) {
		return 0, fmt.Errorf("unknown consent type: %s", consentType)
	}

	withdrawn, err := ps.repo.WithdrawConsent(applicantID, consentType)
	if err != nil {
		return 0, err
	}

	slog.Info("Consent withdrawn",
		"applicant_id", applicantID,
		"consent_type", consentType,
		"grants_withdrawn", withdrawn,
	)

	return withdrawn, nil
}

// HasProcessingConsent reports whether the applicant holds an active
// data processing grant
func (ps *PrivacyService) HasProcessingConsent(applicantID string) (bool, error) {
	return ps.repo.HasActiveConsent(applicantID, ConsentDataProcessing)
}

// EraseApplicantData removes an applicant and every derived row.
// Returns per-table deletion counts for the erasure receipt.
func (ps *PrivacyService) EraseApplicantData(applicantID string) (map[string]int64, error) {
	slog.Info("Initiating DPDPA data erasure", "applicant_id", applicantID)

	counts, err := ps.repo.EraseApplicant(applicantID)
	if err != nil {
		return nil, err
	}

	slog.Info("Data erasure completed",
		"applicant_id", applicantID,
		"applicants_deleted", counts["applicants"],
		"predictions_deleted", counts["ml_predictions"],
		"trust_entries_deleted", counts["trust_score_history"],
		"consent_logs_deleted", counts["consent_logs"],
	)

	return counts, nil
}

// CleanupExpiredLogs deletes request logs past the retention window.
// Invoked by the host's retention ticker.
func (ps *PrivacyService) CleanupExpiredLogs(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = 90
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	purged, err := ps.repo.PurgeRequestLogsBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up request logs: %w", err)
	}

	slog.Info("Retention cleanup completed", "cutoff_date", cutoff, "logs_purged", purged)
	return purged, nil
}

// GetRetentionPolicy provides information about data retention policies
func (ps *PrivacyService) GetRetentionPolicy() map[string]interface{} {
	return map[string]interface{}{
		"prediction_audit_retention_days": 365, // 1 year for prediction audit rows
		"request_log_retention_days":      90,  // 90 days for quota accounting
		"explanation_cache_ttl_minutes":   60,
		"anonymization_method":            "SHA-256",
		"erasure_response_time":           "24 hours",
		"privacy_policy_url":              "/api/v1/privacy/policy",
		"contact_email":                   "privacy@zscore.in",
	}
}

// PolicyDocument returns the applicant-facing privacy policy payload
func (ps *PrivacyService) PolicyDocument() map[string]interface{} {
	return map[string]interface{}{
		"framework": "Digital Personal Data Protection Act, 2023 (India)",
		"purposes": []string{
			"credit_assessment",
			"trust_score_calculation",
			"model_audit",
		},
		"data_categories": []string{
			"identity (name, phone, email)",
			"financial (monthly income, utility payment history)",
			"social proof (community rating, endorsements)",
			"digital footprint (transaction regularity, device stability)",
		},
		"consent_types": []string{
			ConsentDataProcessing,
			ConsentUtilityData,
			ConsentSocialProof,
			ConsentDigitalFootprint,
		},
		"rights": []string{
			"access",
			"correction",
			"withdrawal_of_consent",
			"erasure",
		},
		"retention": ps.GetRetentionPolicy(),
	}
}

// ConsentSummary returns the consent state of an applicant across all
// known consent types plus the full event count
func (ps *PrivacyService) ConsentSummary(applicantID string) (map[string]interface{}, error) {
	consents, err := ps.repo.GetConsents(applicantID)
	if err != nil {
		return nil, err
	}

	active := make(map[string]bool, len(knownConsentTypes))
	for consentType := range knownConsentTypes {
		active[consentType] = false
	}
	for _, c := range consents {
		if c.Granted && c.WithdrawnAt == nil {
			active[c.ConsentType] = true
		}
	}

	return map[string]interface{}{
		"applicant_id":   applicantID,
		"active":         active,
		"total_events":   len(consents),
		"can_erase_data": true,
		"retention":      ps.GetRetentionPolicy(),
	}, nil
}
