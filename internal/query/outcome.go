package query

// StatementOutcome is the result of one statement in a script: either a
// materialized row set or an affected-row count, in server execution order.
// Outcomes are never mutated after creation.
type StatementOutcome struct {
	// HasRows distinguishes a row set from a DDL/DML effect.
	HasRows bool

	// Row set fields, valid when HasRows is true.
	Columns  []string
	Rows     [][]string
	RowCount int64

	// Effect field, valid when HasRows is false.
	AffectedRows int64

	// ElapsedMS is the wall-clock time to execute and materialize.
	ElapsedMS int64
}

// Impact is the statement's contribution to the session row impact:
// rows returned, or affected rows when positive.
func (o StatementOutcome) Impact() int64 {
	if o.HasRows {
		return o.RowCount
	}
	if o.AffectedRows > 0 {
		return o.AffectedRows
	}
	return 0
}

// RowImpact sums the impact of every outcome of one script.
func RowImpact(outcomes []StatementOutcome) int64 {
	var total int64
	for _, o := range outcomes {
		total += o.Impact()
	}
	return total
}
