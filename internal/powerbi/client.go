package powerbi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"pbiassist/internal/models"
)

// DefaultBaseURL is the Power BI REST API for the caller's organization.
const DefaultBaseURL = "https://api.powerbi.com/v1.0/myorg"

// Client is a thin wrapper over the Power BI REST API. Every call is
// attempted exactly once; there is no retry policy at this layer.
type Client struct {
	base  string
	http  *resty.Client
	creds TokenProvider
}

// NewClient builds a Power BI REST client. An empty baseURL selects the
// public API endpoint.
func NewClient(creds TokenProvider, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := resty.New()
	hc.SetTimeout(30 * time.Second)
	hc.SetBaseURL(baseURL)
	return &Client{base: baseURL, http: hc, creds: creds}
}

func (c *Client) authRequest(ctx context.Context) (*resty.Request, error) {
	token, err := c.creds.GetToken(ctx, Scope)
	if err != nil {
		return nil, err
	}
	return c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(token), nil
}

// groupPath prefixes path with the workspace segment when a workspace is set.
func groupPath(workspaceID, path string) string {
	if workspaceID == "" {
		return path
	}
	return fmt.Sprintf("/groups/%s%s", workspaceID, path)
}

// executeQueriesRequest is the Execute Queries API envelope.
type executeQueriesRequest struct {
	Queries            []daxQuery         `json:"queries"`
	SerializerSettings serializerSettings `json:"serializerSettings"`
}

type daxQuery struct {
	Query string `json:"query"`
}

type serializerSettings struct {
	IncludeNulls bool `json:"includeNulls"`
}

type apiError struct {
	Message string `json:"message"`
}

type queryTable struct {
	Rows []map[string]any `json:"rows"`
}

type queryResult struct {
	Error  *apiError    `json:"error"`
	Tables []queryTable `json:"tables"`
}

type executeQueriesResponse struct {
	Error   *apiError     `json:"error"`
	Results []queryResult `json:"results"`
}

// ExecuteQueries runs one DAX query against a dataset and returns the raw
// decoded response. Non-2xx statuses are returned as a RemoteError carrying
// the response body.
func (c *Client) ExecuteQueries(ctx context.Context, workspaceID, datasetID, query string) (*executeQueriesResponse, error) {
	req, err := c.authRequest(ctx)
	if err != nil {
		return nil, err
	}
	path := groupPath(workspaceID, fmt.Sprintf("/datasets/%s/executeQueries", datasetID))
	resp, err := req.
		SetBody(executeQueriesRequest{
			Queries:            []daxQuery{{Query: query}},
			SerializerSettings: serializerSettings{IncludeNulls: true},
		}).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("execute queries: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, &RemoteError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	var decoded executeQueriesResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, fmt.Errorf("decode execute queries response: %w", err)
	}
	return &decoded, nil
}

// embedTokenInfo is the GenerateToken response.
type embedTokenInfo struct {
	Token      string `json:"token"`
	TokenID    string `json:"tokenId"`
	Expiration string `json:"expiration"`
}

// GenerateToken mints an embed token for a report. Access level "Edit" with
// allowEdit is required for saving reports and creating visuals from the
// embedded widget.
func (c *Client) GenerateToken(ctx context.Context, reportID, workspaceID string) (*embedTokenInfo, error) {
	req, err := c.authRequest(ctx)
	if err != nil {
		return nil, err
	}
	path := groupPath(workspaceID, fmt.Sprintf("/reports/%s/GenerateToken", reportID))
	resp, err := req.
		SetBody(map[string]any{
			"accessLevel": "Edit",
			"allowEdit":   true,
			"allowSaveAs": false,
		}).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("generate embed token: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, &RemoteError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	var info embedTokenInfo
	if err := json.Unmarshal(resp.Body(), &info); err != nil {
		return nil, fmt.Errorf("decode embed token response: %w", err)
	}
	return &info, nil
}

// reportDetails is the subset of report metadata the service uses.
type reportDetails struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	EmbedURL string `json:"embedUrl"`
}

// GetReport fetches report metadata.
func (c *Client) GetReport(ctx context.Context, reportID, workspaceID string) (*reportDetails, error) {
	req, err := c.authRequest(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := req.Get(groupPath(workspaceID, "/reports/"+reportID))
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, &RemoteError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	var details reportDetails
	if err := json.Unmarshal(resp.Body(), &details); err != nil {
		return nil, fmt.Errorf("decode report details: %w", err)
	}
	return &details, nil
}

// GetReportPages lists the pages of a report. Failures degrade to an empty
// listing; pages are informational and never block token minting.
func (c *Client) GetReportPages(ctx context.Context, reportID, workspaceID string) []models.ReportPage {
	req, err := c.authRequest(ctx)
	if err != nil {
		return nil
	}
	resp, err := req.Get(groupPath(workspaceID, fmt.Sprintf("/reports/%s/pages", reportID)))
	if err != nil || resp.StatusCode() != 200 {
		return nil
	}

	var listing struct {
		Value []models.ReportPage `json:"value"`
	}
	if err := json.Unmarshal(resp.Body(), &listing); err != nil {
		return nil
	}
	return listing.Value
}

// ListReports lists reports in a workspace, or in My Workspace when no
// workspace is given.
func (c *Client) ListReports(ctx context.Context, workspaceID string) ([]models.Report, error) {
	req, err := c.authRequest(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := req.Get(groupPath(workspaceID, "/reports"))
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, &RemoteError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	var listing struct {
		Value []models.Report `json:"value"`
	}
	if err := json.Unmarshal(resp.Body(), &listing); err != nil {
		return nil, fmt.Errorf("decode reports listing: %w", err)
	}
	return listing.Value, nil
}
