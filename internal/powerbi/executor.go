package powerbi

import (
	"context"
	"encoding/json"
	"errors"

	"pbiassist/pkg/logger"
)

// QueryExecutor runs DAX queries against a configured workspace and dataset.
// Its results are plain text so a calling agent can react linguistically:
// configuration problems, API failures and empty result sets all come back
// as strings, never as raised errors.
type QueryExecutor struct {
	client      *Client
	workspaceID string
	datasetID   string
}

// NewQueryExecutor wires the executor to its client and identifiers. Missing
// identifiers are tolerated here and reported per call.
func NewQueryExecutor(client *Client, workspaceID, datasetID string) *QueryExecutor {
	return &QueryExecutor{client: client, workspaceID: workspaceID, datasetID: datasetID}
}

// Execute runs one DAX query and returns the row set rendered as indented
// JSON, or a descriptive error/empty-result string.
func (e *QueryExecutor) Execute(ctx context.Context, daxQuery string) string {
	logger.Infof("Executing DAX query: %s", daxQuery)

	if e.workspaceID == "" || e.datasetID == "" {
		msg := "Error: POWERBI_WORKSPACE_ID and POWERBI_DATASET_ID must be set in environment variables"
		logger.Error(msg)
		return msg
	}

	resp, err := e.client.ExecuteQueries(ctx, e.workspaceID, e.datasetID, daxQuery)
	if err != nil {
		var remote *RemoteError
		if errors.As(err, &remote) {
			logger.Errorf("Power BI API error: %d - %s", remote.Status, remote.Body)
			return "Error executing DAX query: " + remote.Body
		}
		logger.Errorf("execute DAX query: %v", err)
		return "Error: " + err.Error()
	}

	if resp.Error != nil {
		logger.Errorf("DAX execution error: %s", resp.Error.Message)
		return "Error: " + resp.Error.Message
	}
	if len(resp.Results) == 0 {
		return "No results returned"
	}
	first := resp.Results[0]
	if first.Error != nil {
		logger.Errorf("DAX query error: %s", first.Error.Message)
		return "Error: " + first.Error.Message
	}
	if len(first.Tables) == 0 {
		return "No tables returned"
	}
	rows := first.Tables[0].Rows
	if len(rows) == 0 {
		return "No rows returned"
	}

	logger.Infof("DAX query returned %d rows", len(rows))
	rendered, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "Error: " + err.Error()
	}
	return string(rendered)
}
