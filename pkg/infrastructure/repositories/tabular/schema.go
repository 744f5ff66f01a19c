// Package tabular turns raw header-plus-rows tables into domain rows.
// It is shared by the csv and xlsx loaders so both apply the same
// column resolution and the same soft coercion rules.
package tabular

import (
	"github.com/vsinha/reconcile/pkg/domain/entities"
	"github.com/vsinha/reconcile/pkg/domain/services"
)

// Dataset names
const (
	DatasetSupply         = entities.DatasetSupply
	DatasetFirmDemand     = entities.DatasetFirmDemand
	DatasetNewDemand      = entities.DatasetNewDemand
	DatasetCrossReference = entities.DatasetCrossReference
	DatasetBalances       = entities.DatasetBalances
	DatasetRequests       = entities.DatasetRequests
)

// Field names
const (
	FieldPartNumber   = "part_number"
	FieldCustomID     = "custom_id"
	FieldGroupID      = "group_id"
	FieldQuantity     = "quantity"
	FieldShipDate     = "ship_date"
	FieldRecordID     = "record_id"
	FieldPriorityDate = "priority_date"
	FieldRequestRef   = "request_ref"
)

// Field is one logical column of a dataset
type Field struct {
	Name     string
	Required bool
}

var datasetFields = map[string][]Field{
	DatasetSupply: {
		{Name: FieldPartNumber, Required: true},
		{Name: FieldQuantity, Required: true},
	},
	DatasetFirmDemand: {
		{Name: FieldGroupID, Required: true},
		{Name: FieldCustomID, Required: true},
		{Name: FieldQuantity, Required: true},
		{Name: FieldShipDate, Required: true},
	},
	DatasetNewDemand: {
		{Name: FieldGroupID, Required: true},
		{Name: FieldCustomID, Required: true},
		{Name: FieldQuantity, Required: true},
		{Name: FieldShipDate, Required: true},
	},
	DatasetCrossReference: {
		{Name: FieldCustomID, Required: true},
		{Name: FieldPartNumber, Required: true},
	},
	DatasetBalances: {
		{Name: FieldRecordID},
		{Name: FieldPartNumber, Required: true},
		{Name: FieldPriorityDate, Required: true},
		{Name: FieldQuantity, Required: true},
	},
	DatasetRequests: {
		{Name: FieldRequestRef, Required: true},
		{Name: FieldCustomID, Required: true},
		{Name: FieldQuantity, Required: true},
		{Name: FieldShipDate},
	},
}

// Datasets returns every known dataset name in a fixed order
func Datasets() []string {
	return []string{
		DatasetSupply,
		DatasetFirmDemand,
		DatasetNewDemand,
		DatasetCrossReference,
		DatasetBalances,
		DatasetRequests,
	}
}

// Fields returns the logical columns of a dataset
func Fields(dataset string) []Field {
	return append([]Field(nil), datasetFields[dataset]...)
}

// Schema returns the required logical columns of a dataset
func Schema(dataset string) services.DatasetSchema {
	schema := services.DatasetSchema{Name: dataset}
	for _, field := range datasetFields[dataset] {
		if field.Required {
			schema.Required = append(schema.Required, field.Name)
		}
	}
	return schema
}
