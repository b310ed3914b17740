package database

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultWeeklyQuota is the number of scoring requests a client may make per week
const DefaultWeeklyQuota = 100

// scoringEndpoints are the endpoints that count against the weekly quota
var scoringEndpoints = map[string]bool{
	"/api/v1/predict":     true,
	"/api/v1/trust-score": true,
	"/api/v1/explain":     true,
}

// ClientService provides business logic for API client tracking and quotas
type ClientService struct {
	repo        *Repository
	jwtSecret   []byte
	weeklyQuota int
}

// NewClientService creates a new client service
func NewClientService(repo *Repository, jwtSecret string, weeklyQuota int) *ClientService {
	if weeklyQuota <= 0 {
		weeklyQuota = DefaultWeeklyQuota
	}

	return &ClientService{
		repo:        repo,
		jwtSecret:   []byte(jwtSecret),
		weeklyQuota: weeklyQuota,
	}
}

// RequestResult represents the result of processing a request
type RequestResult struct {
	Client         *Client     `json:"client"`
	Usage          *UsageStats `json:"usage"`
	CanMakeRequest bool        `json:"can_make_request"`
	RequestLogged  bool        `json:"request_logged"`
}

// ProcessRequest resolves the calling client and enforces the weekly quota.
// Only scoring endpoints are logged against the quota.
func (s *ClientService) ProcessRequest(ipAddress, userAgent, endpoint, method string) (*RequestResult, error) {
	client, err := s.repo.GetOrCreateClient(ipAddress, userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to get/create client: %w", err)
	}

	canMakeRequest, usage, err := s.repo.CanMakeRequest(client.ID, s.weeklyQuota)
	if err != nil {
		return nil, fmt.Errorf("failed to check request limits: %w", err)
	}

	result := &RequestResult{
		Client:         client,
		Usage:          usage,
		CanMakeRequest: canMakeRequest,
	}

	if scoringEndpoints[endpoint] && canMakeRequest {
		if err := s.repo.LogRequest(client.ID, ipAddress, endpoint, method, userAgent); err != nil {
			return nil, fmt.Errorf("failed to log request: %w", err)
		}
		result.RequestLogged = true
	}

	return result, nil
}

// GetRemainingRequests returns the number of scoring requests the client
// has left this week
func (s *ClientService) GetRemainingRequests(clientID string) (int, error) {
	usage, err := s.repo.GetWeeklyUsage(clientID)
	if err != nil {
		return 0, err
	}

	remaining := s.weeklyQuota - usage.RequestsThisWeek
	if remaining < 0 {
		remaining = 0
	}

	return remaining, nil
}

// WeeklyQuota returns the configured scoring quota per week
func (s *ClientService) WeeklyQuota() int {
	return s.weeklyQuota
}

// GenerateSessionToken generates a JWT token for the client session
func (s *ClientService) GenerateSessionToken(clientID string) (string, error) {
	claims := jwt.MapClaims{
		"client_id": clientID,
		"exp":       time.Now().Add(24 * time.Hour).Unix(), // 24 hour expiry
		"iat":       time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, nil
}

// ValidateSessionToken validates a JWT token and returns the client ID
func (s *ClientService) ValidateSessionToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		clientID, ok := claims["client_id"].(string)
		if !ok {
			return "", fmt.Errorf("client_id not found in token")
		}
		return clientID, nil
	}

	return "", fmt.Errorf("invalid token")
}

// ClientStats represents comprehensive client usage statistics
type ClientStats struct {
	ClientID          string    `json:"client_id"`
	RequestsThisWeek  int       `json:"requests_this_week"`
	RemainingRequests int       `json:"remaining_requests"`
	WeeklyQuota       int       `json:"weekly_quota"`
	WeekStart         time.Time `json:"week_start"`
	WeekEnd           time.Time `json:"week_end"`
}

// GetClientStats returns comprehensive client statistics
func (s *ClientService) GetClientStats(clientID string) (*ClientStats, error) {
	usage, err := s.repo.GetWeeklyUsage(clientID)
	if err != nil {
		return nil, err
	}

	remaining, err := s.GetRemainingRequests(clientID)
	if err != nil {
		return nil, err
	}

	return &ClientStats{
		ClientID:          clientID,
		RequestsThisWeek:  usage.RequestsThisWeek,
		RemainingRequests: remaining,
		WeeklyQuota:       s.weeklyQuota,
		WeekStart:         usage.WeekStart,
		WeekEnd:           usage.WeekEnd,
	}, nil
}
