package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSourceMetrics(t *testing.T) {
	m := ForCountry("ZZ")
	m.RecordParse(10, 2, 150*time.Millisecond)
	m.RecordOperation(true)
	m.RecordOperation(false)
	m.RecordOperation(false)
	m.RecordSkipped(0)
	m.RecordSkipped(3)

	assert.Equal(t, float64(10), testutil.ToFloat64(RowsParsed.WithLabelValues("ZZ")))
	assert.Equal(t, float64(2), testutil.ToFloat64(RowsDropped.WithLabelValues("ZZ")))
	assert.Equal(t, float64(1), testutil.ToFloat64(OperationsDerived.WithLabelValues("ZZ", "true")))
	assert.Equal(t, float64(2), testutil.ToFloat64(OperationsDerived.WithLabelValues("ZZ", "false")))
	assert.Equal(t, float64(3), testutil.ToFloat64(OperationsSkipped.WithLabelValues("ZZ")))
}

func TestPackageRecorders(t *testing.T) {
	RecordAlert("overdue-test", "high")
	RecordUnavailable("/tmp/missing-test.csv")
	RecordSnapshotAge("/tmp/age-test.csv", 90*time.Second)
	RecordNotification("test")

	assert.Equal(t, float64(1), testutil.ToFloat64(AlertsRaised.WithLabelValues("overdue-test", "high")))
	assert.Equal(t, float64(1), testutil.ToFloat64(SourceUnavailable.WithLabelValues("/tmp/missing-test.csv")))
	assert.Equal(t, float64(90), testutil.ToFloat64(SnapshotAge.WithLabelValues("/tmp/age-test.csv")))
	assert.Equal(t, float64(1), testutil.ToFloat64(NotificationsSent.WithLabelValues("test")))
}
