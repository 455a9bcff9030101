package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.TransactionsRecorded.WithLabelValues("EQUAL").Inc()
	m.RPCRequests.WithLabelValues("/grouptab.v1.GroupService/CreateGroup", "ok").Inc()

	count, err := testutil.GatherAndCount(reg, "grouptab_transactions_recorded_total", "grouptab_rpc_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Panics(t, func() { New(reg) }, "registering twice must fail")
}

func TestObserveDebtChanges(t *testing.T) {
	_, m := NewRegistry()

	m.ObserveDebtChanges(2, 1)
	m.ObserveDebtChanges(1, 0)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.DebtChanges.WithLabelValues("upsert")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DebtChanges.WithLabelValues("delete")))
}

func TestDebtsSettled_Exposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.DebtsSettled.Inc()

	expected := `
# HELP grouptab_debts_settled_total Debts settled in full.
# TYPE grouptab_debts_settled_total counter
grouptab_debts_settled_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "grouptab_debts_settled_total"))
}
