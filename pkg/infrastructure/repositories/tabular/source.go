package tabular

// Source reads one raw table of a dataset from a file
type Source interface {
	ReadTable(dataset, filename string) (Table, error)
}

// FromRecords splits raw records into a header and data rows
func FromRecords(dataset string, records [][]string) Table {
	table := Table{Dataset: dataset}
	if len(records) == 0 {
		return table
	}
	table.Header = records[0]
	table.Rows = records[1:]
	return table
}
