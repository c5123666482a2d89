// Package schema holds the static descriptors baked into agent prompts: the
// tabular data-model description, the visual-type catalog, and the JSON
// schema a generated visual configuration must satisfy. All of it is
// read-only after startup.
package schema

import "encoding/json"

// VisualType describes one chart kind available to the embedding widget.
type VisualType struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	DataRoles   []string `json:"dataRoles"`
}

// VisualTypes is the catalog of supported chart kinds.
var VisualTypes = []VisualType{
	{Name: "columnChart", DisplayName: "Column Chart", DataRoles: []string{"Category", "Y", "Tooltips"}},
	{Name: "barChart", DisplayName: "Bar Chart", DataRoles: []string{"Category", "Y", "Tooltips"}},
	{Name: "pieChart", DisplayName: "Pie Chart", DataRoles: []string{"Category", "Y", "Tooltips"}},
	{Name: "lineChart", DisplayName: "Line Chart", DataRoles: []string{"Category", "Series", "Y"}},
	{Name: "areaChart", DisplayName: "Area Chart", DataRoles: []string{"Category", "Series", "Y"}},
	{Name: "donutChart", DisplayName: "Donut Chart", DataRoles: []string{"Category", "Y", "Tooltips"}},
}

// VisualTypesJSON renders the catalog for prompt embedding.
func VisualTypesJSON() string {
	b, _ := json.MarshalIndent(VisualTypes, "", "  ")
	return string(b)
}

// DataModelSchema describes the tables, columns and measures of the semantic
// model the agents query against.
const DataModelSchema = `
Tables and Columns:

Table: Category
• Category[Category ID] (string) - Category identifier
• Category[Category] (string) - Category name

Table: Orders
• Orders[Order ID] (string)
• Orders[Order Date] (dateTime)
• Orders[Customer Name] (string)
• Orders[Segment_id] (int64)
• Orders[Country] (string)
• Orders[City] (string)
• Orders[State] (string)
• Orders[Region] (string)
• Orders[Category_id] (int64)
• Orders[Sub-Category] (string)
• Orders[Sales] (double)
• Orders[Quantity] (int64)
• Orders[Discount] (int64)
• Orders[Profit] (double)

Table: Mesures (measures table)
• Mesures[Count order] = DISTINCTCOUNT(Orders[Product ID]) - Count of distinct orders
• Mesures[AVRG Discount] = AVERAGE(Orders[Discount]) - Average discount
• Mesures[Total Sales YTD] = TOTALYTD([Total Sales],'Calendar'[Date]) - Year to date sales
• Mesures[Total Sales] = CALCULATE(SUM(Orders[Sales])) - Total sales amount

Table: ★Orders_product
• ★Orders_product[ProductCategory-EN] (string) - Product category name
• ★Orders_product[ProductName-EN] (string) - Product name
• ★Orders_product[ProductID] (int64)

Table: ★Orders_Ship_Mode
• ★Orders_Ship_Mode[★Ship_Mode] (string) - Shipping mode name
• ★Orders_Ship_Mode[Ship_Mode_id] (int64)

Table: Calendar
• Calendar[Date] (dateTime)
• Calendar[Year] (int64)
• Calendar[Month] (string)
• Calendar[Quarter] (string)
`

// VisualConfigSchema is the JSON schema for a visual configuration. It is
// embedded verbatim into the visual prompt and compiled for validation, so
// the shape the model is shown and the shape we accept are the same text.
const VisualConfigSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "VisualConfig",
  "type": "object",
  "additionalProperties": false,
  "required": ["visualType", "title", "dataFields", "properties"],
  "properties": {
    "visualType": {
      "type": "string",
      "enum": ["columnChart", "barChart", "pieChart", "lineChart", "areaChart", "donutChart"],
      "description": "The type of Power BI visual to create"
    },
    "title": {
      "type": "string",
      "description": "Descriptive title for the visual"
    },
    "dataFields": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["dataRole", "table", "column", "isMeasure"],
        "properties": {
          "dataRole": {
            "type": "string",
            "enum": ["Category", "Y", "Series", "Tooltips"],
            "description": "The data role this field maps to in the visual"
          },
          "table": {
            "type": "string",
            "description": "Table name from the data model"
          },
          "column": {
            "type": "string",
            "description": "Column or measure name"
          },
          "isMeasure": {
            "type": "boolean",
            "description": "True for measures (from Mesures table), false for regular columns"
          }
        }
      }
    },
    "properties": {
      "type": "object",
      "additionalProperties": false,
      "required": ["showLegend", "showXAxis", "showYAxis"],
      "properties": {
        "showLegend": {"type": "boolean"},
        "showXAxis": {"type": "boolean"},
        "showYAxis": {"type": "boolean"}
      }
    }
  }
}`
