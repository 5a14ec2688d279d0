package pgxstore

import (
	"fmt"

	"github.com/MateoVillarinos/xrprich/web/rich"
)

// SQL queries
const (
	runsQuery = "SELECT DISTINCT ON (taken_at) taken_at, total_locked, total_circulating, wallets FROM concentration_metrics"

	metricsQuery = "WITH runs AS (%s) " +
		"SELECT m.taken_at, m.cutoff, m.pct, r.total_locked, r.total_circulating, r.wallets " +
		"FROM runs r JOIN concentration_metrics m ON m.taken_at = r.taken_at " +
		"ORDER BY m.taken_at DESC, m.cutoff"

	latestSnapshotsQuery = "SELECT name FROM snapshots ORDER BY name DESC LIMIT 2"

	deltasQuery = `WITH cur AS (
	SELECT DISTINCT ON (wallet) wallet, owner, balance + locked AS total
	FROM wallet_balances WHERE snapshot_name = $1 ORDER BY wallet, position
), old AS (
	SELECT DISTINCT ON (wallet) wallet, owner, balance + locked AS total
	FROM wallet_balances WHERE snapshot_name = $2 ORDER BY wallet, position
)
SELECT COALESCE(c.wallet, o.wallet) AS wallet,
	COALESCE(NULLIF(o.owner, ''), c.owner, o.owner, '') AS owner,
	o.total AS old_total,
	c.total AS new_total,
	COALESCE(c.total, 0) - COALESCE(o.total, 0) AS change
FROM cur c FULL OUTER JOIN old o ON o.wallet = c.wallet
WHERE COALESCE(c.total, 0) - COALESCE(o.total, 0) <> 0
ORDER BY change DESC, wallet ASC`
)

// MetricsQueryBuilder builds the paged metric history query. Pagination
// applies to runs, so every cutoff of a returned run is included.
type MetricsQueryBuilder struct {
	sql  string
	args []any
}

// NewMetricsQuery creates a new metrics query builder
func NewMetricsQuery() *MetricsQueryBuilder {
	return &MetricsQueryBuilder{
		sql: runsQuery,
	}
}

// ForCriteria applies the metrics criteria to the query in one fluent call
func (q *MetricsQueryBuilder) ForCriteria(criteria rich.MetricsCriteria) *MetricsQueryBuilder {
	return q.
		filterByYear(criteria.Year).
		orderByTakenAtDesc().
		paginateWithDetection(criteria.Pagination)
}

// filterByYear adds year filtering if the year is specified
func (q *MetricsQueryBuilder) filterByYear(year rich.Year) *MetricsQueryBuilder {
	if year.IsSet() {
		q.addWhereCondition("year = $%d", year.Uint64())
	}
	return q
}

func (q *MetricsQueryBuilder) orderByTakenAtDesc() *MetricsQueryBuilder {
	q.sql += " ORDER BY taken_at DESC"
	return q
}

// paginateWithDetection adds pagination with "has more" detection using LIMIT n+1
func (q *MetricsQueryBuilder) paginateWithDetection(p rich.Pagination) *MetricsQueryBuilder {
	q.addParameter("LIMIT $%d", p.ItemsPerPage()+1)

	if offset := p.ItemsToSkip(); offset > 0 {
		q.addParameter("OFFSET $%d", offset)
	}

	return q
}

// Build returns the final SQL query and arguments
func (q *MetricsQueryBuilder) Build() (string, []any) {
	return fmt.Sprintf(metricsQuery, q.sql), q.args
}

// addWhereCondition adds a WHERE condition, handling AND logic automatically
func (q *MetricsQueryBuilder) addWhereCondition(sqlClause string, value any) {
	placeholder := q.nextPlaceholder()

	if q.hasWhereClause() {
		q.sql += " AND " + fmt.Sprintf(sqlClause, placeholder)
	} else {
		q.sql += " WHERE " + fmt.Sprintf(sqlClause, placeholder)
	}

	q.args = append(q.args, value)
}

// addParameter adds a SQL clause with a parameter
func (q *MetricsQueryBuilder) addParameter(sqlClause string, value any) {
	placeholder := q.nextPlaceholder()
	q.sql += " " + fmt.Sprintf(sqlClause, placeholder)
	q.args = append(q.args, value)
}

// hasWhereClause relies on WHERE conditions being added before any other parameter
func (q *MetricsQueryBuilder) hasWhereClause() bool {
	return len(q.args) > 0
}

// nextPlaceholder returns the next PostgreSQL placeholder ($1, $2, etc.)
func (q *MetricsQueryBuilder) nextPlaceholder() int {
	return len(q.args) + 1
}

// deltasQueryFor pages the delta query between two snapshots
func deltasQueryFor(latest, previous string, p rich.Pagination) (string, []any) {
	query := deltasQuery + " LIMIT $3"
	args := []any{latest, previous, p.ItemsPerPage() + 1}
	if offset := p.ItemsToSkip(); offset > 0 {
		query += " OFFSET $4"
		args = append(args, offset)
	}
	return query, args
}
