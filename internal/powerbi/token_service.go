package powerbi

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"pbiassist/internal/cache"
	"pbiassist/internal/models"
	"pbiassist/pkg/logger"
)

const (
	visualDiscoveryNote = "Visual discovery requires client-side JavaScript API after report embedding"
	descriptorCacheKey  = "powerbi:embed_descriptor"
)

// TokenService mints embed tokens and holds the current descriptor as
// process-wide state. Reads take the RLock; refresh is the single writer.
type TokenService struct {
	client      *Client
	reportID    string
	workspaceID string
	cache       *cache.Client

	mu          sync.RWMutex
	current     *models.EmbedDescriptor
	refreshedAt time.Time
	lastError   string
}

// NewTokenService wires the service. The cache client may be nil.
func NewTokenService(client *Client, reportID, workspaceID string, cacheClient *cache.Client) *TokenService {
	return &TokenService{
		client:      client,
		reportID:    reportID,
		workspaceID: workspaceID,
		cache:       cacheClient,
	}
}

// Configured reports whether a report ID is set; without one there is
// nothing to mint a token for.
func (s *TokenService) Configured() bool {
	return s != nil && s.reportID != ""
}

// GenerateEmbedToken mints an embed token for a report and assembles the
// descriptor. An authentication failure propagates as ErrAuthentication; a
// failed report-metadata fetch degrades to a descriptor with a synthesized
// embed URL rather than failing the whole operation.
func (s *TokenService) GenerateEmbedToken(ctx context.Context, reportID, workspaceID string) (*models.EmbedDescriptor, error) {
	info, err := s.client.GenerateToken(ctx, reportID, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("generate embed token: %w", err)
	}

	desc := &models.EmbedDescriptor{
		EmbedToken:          info.Token,
		TokenExpiry:         info.Expiration,
		ReportID:            reportID,
		WorkspaceID:         workspaceID,
		ReportName:          "Unknown",
		Visuals:             []string{},
		VisualDiscoveryNote: visualDiscoveryNote,
	}

	details, err := s.client.GetReport(ctx, reportID, workspaceID)
	if err != nil {
		logger.Warnf("could not get report details, degrading descriptor: %v", err)
		desc.EmbedURL = synthesizeEmbedURL(reportID, workspaceID)
		return desc, nil
	}
	desc.EmbedURL = details.EmbedURL
	desc.ReportName = details.Name
	desc.Pages = s.client.GetReportPages(ctx, reportID, workspaceID)
	return desc, nil
}

func synthesizeEmbedURL(reportID, workspaceID string) string {
	url := "https://app.powerbi.com/reportEmbed?reportId=" + reportID
	if workspaceID != "" {
		url += "&groupId=" + workspaceID
	}
	return url
}

// Refresh mints a new token for the configured report and publishes it as
// the current descriptor. Caller-triggered; nothing renews proactively.
func (s *TokenService) Refresh(ctx context.Context) (*models.EmbedDescriptor, error) {
	if !s.Configured() {
		return nil, fmt.Errorf("POWERBI_REPORT_ID is not configured")
	}

	desc, err := s.GenerateEmbedToken(ctx, s.reportID, s.workspaceID)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.current = desc
	s.refreshedAt = time.Now()
	s.lastError = ""
	s.mu.Unlock()

	s.storeCached(ctx, desc)
	logger.Infof("embed token refreshed for report %s (expires %s)", desc.ReportID, desc.TokenExpiry)
	return desc, nil
}

// Current returns the held descriptor, falling back to the cache when the
// process has not minted one yet.
func (s *TokenService) Current(ctx context.Context) *models.EmbedDescriptor {
	s.mu.RLock()
	desc := s.current
	s.mu.RUnlock()
	if desc != nil {
		return desc
	}

	cached, err := s.cache.Get(ctx, descriptorCacheKey)
	if err != nil {
		return nil
	}
	var restored models.EmbedDescriptor
	if err := json.Unmarshal([]byte(cached), &restored); err != nil {
		return nil
	}
	s.mu.Lock()
	if s.current == nil {
		s.current = &restored
		s.refreshedAt = time.Now()
	}
	desc = s.current
	s.mu.Unlock()
	return desc
}

func (s *TokenService) storeCached(ctx context.Context, desc *models.EmbedDescriptor) {
	if s.cache == nil {
		return
	}
	ttl := time.Hour
	if exp, err := time.Parse(time.RFC3339, desc.TokenExpiry); err == nil {
		if until := time.Until(exp); until > 0 {
			ttl = until
		}
	}
	payload, err := json.Marshal(desc)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, descriptorCacheKey, payload, ttl); err != nil {
		logger.Warnf("cache embed descriptor: %v", err)
	}
}

// Status summarizes token state for the diagnostics endpoint.
type Status struct {
	Configured  bool   `json:"configured"`
	HasToken    bool   `json:"hasToken"`
	ReportID    string `json:"reportId,omitempty"`
	WorkspaceID string `json:"workspaceId,omitempty"`
	ReportName  string `json:"reportName,omitempty"`
	TokenExpiry string `json:"tokenExpiry,omitempty"`
	RefreshedAt string `json:"refreshedAt,omitempty"`
	LastError   string `json:"lastError,omitempty"`
}

// Status reports the current token diagnostics.
func (s *TokenService) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Configured:  s.reportID != "",
		ReportID:    s.reportID,
		WorkspaceID: s.workspaceID,
		LastError:   s.lastError,
	}
	if s.current != nil {
		st.HasToken = s.current.EmbedToken != ""
		st.ReportName = s.current.ReportName
		st.TokenExpiry = s.current.TokenExpiry
		st.RefreshedAt = s.refreshedAt.Format(time.RFC3339)
	}
	return st
}
