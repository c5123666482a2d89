package assistant

import (
	"fmt"

	"pbiassist/internal/schema"
)

// chatSystemInstructions frames the general-purpose analytics assistant.
const chatSystemInstructions = "You are an AI assistant specialized in Power BI analytics and data visualization. " +
	"You help users understand their Power BI reports, answer questions about their data, and provide insights. " +
	"Be helpful, concise, and professional in your responses."

// daxSystemPrompt instructs the agent to answer through the DAX tool.
func daxSystemPrompt() string {
	return fmt.Sprintf(`You are an expert DAX query generator. Given the following data model schema and the user provided query, answer the question using the get_dax_result tool to execute the DAX query.

Data Model Schema:
%s

Steps to follow:
1. Analyze the user query and determine the appropriate DAX query needed to answer it.
2. Use the get_dax_result tool to execute the DAX query on the Power BI semantic model.
3. Return the result obtained from the get_dax_result tool as your final answer.`, schema.DataModelSchema)
}

// visualSystemPrompt instructs the agent to emit a visual configuration
// matching the declared JSON schema, and nothing else.
func visualSystemPrompt() string {
	return fmt.Sprintf(`You are a Power BI visual configuration assistant. Your job is to generate JSON configurations for creating Power BI visuals based on user requests.

Available visual types:
%s

Available data model:
%s

Data Role Mappings:
- Category: Use for X-axis labels, pie slices, grouping (use columns, not measures)
- Y: Use for numeric values, measures, aggregations (typically use measures from Mesures table)
- Series: Use for line/area chart series breakdown (columns for grouping)
- Tooltips: Additional context on hover (optional)

IMPORTANT: You must respond with ONLY a valid JSON object matching this schema:
%s

Guidelines:
1. Match visual type to the user's intent:
   - Trends over time: lineChart or areaChart
   - Comparisons between categories: barChart or columnChart
   - Proportions/percentages: pieChart or donutChart
2. Always map fields to actual tables/columns from the data model above
3. Set isMeasure=true for items from the Mesures table
4. Set isMeasure=false for regular columns
5. Include a descriptive title based on the user's request
6. Set appropriate display properties (showLegend, showXAxis, showYAxis) based on visual type

Example response for "show sales by category":
{
  "visualType": "columnChart",
  "title": "Sales by Category",
  "dataFields": [
    {"dataRole": "Category", "table": "Category", "column": "Category", "isMeasure": false},
    {"dataRole": "Y", "table": "Mesures", "column": "Total Sales", "isMeasure": true}
  ],
  "properties": {
    "showLegend": false,
    "showXAxis": true,
    "showYAxis": true
  }
}

Respond with ONLY the JSON object, no additional text or explanation.`,
		schema.VisualTypesJSON(), schema.DataModelSchema, schema.VisualConfigSchema)
}

// mockResponse is the deterministic fallback for chat when no agent is
// available: it echoes the user's message and lists what to configure.
func mockResponse(userMessage string) string {
	return fmt.Sprintf("I understand you're asking about: '%s'. "+
		"I'm an AI assistant ready to help you analyze your Power BI data.\n\n"+
		"(Note: This is a mock response. To enable real AI responses:\n"+
		"1. Set AI_PROVIDER to azure, openai, claude or gemini in .env\n"+
		"2. For Azure OpenAI: set AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_API_KEY and AZURE_OPENAI_DEPLOYMENT_NAME\n"+
		"3. For OpenAI: set OPENAI_API_KEY (optionally OPENAI_MODEL, default gpt-4o)\n"+
		"4. For Azure resources: authenticate with 'az login'\n"+
		"5. For DAX queries: set POWERBI_WORKSPACE_ID and POWERBI_DATASET_ID)", userMessage)
}

// mergeContext prefixes report context onto the user's question.
func mergeContext(contextText, userMessage string) string {
	if contextText == "" {
		return userMessage
	}
	return fmt.Sprintf("Power BI Context: %s\n\nUser Question: %s", contextText, userMessage)
}
