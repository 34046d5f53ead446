package board

// Project maps every task on the board to its record, column by column in
// board order and in display order within each column. It has no side
// effects; the result is what the store must hold.
func Project(columns map[Column][]*Task) []Record {
	records := make([]Record, 0)
	for _, col := range Columns {
		for _, t := range columns[col] {
			records = append(records, t.record())
		}
	}
	return records
}
