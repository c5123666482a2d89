package ai

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

// DaxRunner executes a DAX query and reports the outcome as text. The
// textual contract lets the agent read configuration or execution errors
// and react in its reply instead of aborting the run.
type DaxRunner interface {
	Execute(ctx context.Context, daxQuery string) string
}

type daxQueryParams struct {
	DaxQuery string `json:"dax_query"`
}

// NewDaxQueryTool registers the query executor as an invocable agent tool
// named get_dax_result, with a declared single-parameter input schema.
func NewDaxQueryTool(runner DaxRunner) tool.InvokableTool {
	info := &schema.ToolInfo{
		Name: "get_dax_result",
		Desc: "Execute a DAX query against the Power BI dataset using the Execute Queries API and return the resulting rows.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"dax_query": {
				Desc:     "The DAX query to execute on the Power BI semantic model",
				Type:     schema.String,
				Required: true,
			},
		}),
	}

	run := func(ctx context.Context, params *daxQueryParams) (string, error) {
		if params == nil || params.DaxQuery == "" {
			return "", errors.New("dax_query is required")
		}
		return runner.Execute(ctx, params.DaxQuery), nil
	}

	return utils.NewTool(info, run)
}
