package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/tradeflow/internal/model"
	"github.com/sells-group/tradeflow/internal/states"
)

// Digest holds a point-in-time view of the alerts across all operations.
type Digest struct {
	Operations int `json:"operations"`
	Invalid    int `json:"invalid"`

	// Alert counts.
	Overdue        int `json:"overdue"`
	Upcoming       int `json:"upcoming"`
	Reconciliation int `json:"reconciliation"`
	Dependency     int `json:"dependency"`

	BySeverity map[model.Severity]int `json:"by_severity"`
	Items      []DigestItem           `json:"items"`

	// States counts operations per process state and status.
	States states.Summary `json:"states"`

	CollectedAt time.Time `json:"collected_at"`
}

// DigestItem is one alert and the operation it belongs to.
type DigestItem struct {
	OperationID string      `json:"operation_id"`
	SourceKey   string      `json:"source_key"`
	Client      string      `json:"client"`
	Country     string      `json:"country"`
	Alert       model.Alert `json:"alert"`
}

// OperationLister abstracts the service method the collector needs.
type OperationLister interface {
	Operations(ctx context.Context) ([]*model.OperationDetail, error)
}

// Collector gathers alerts from the derived operations.
type Collector struct {
	ops OperationLister
	now func() time.Time
}

// NewCollector creates a new alert collector.
func NewCollector(ops OperationLister) *Collector {
	return &Collector{ops: ops, now: time.Now}
}

// Collect gathers a digest of every alert currently attached to an operation.
func (c *Collector) Collect(ctx context.Context) (*Digest, error) {
	ops, err := c.ops.Operations(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list operations")
	}

	d := &Digest{
		Operations:  len(ops),
		BySeverity:  map[model.Severity]int{},
		Items:       []DigestItem{},
		CollectedAt: c.now().UTC(),
	}
	estados := make([]model.EstadosProceso, 0, len(ops))
	for _, op := range ops {
		estados = append(estados, op.Estados)
		if !op.Validation.Valid {
			d.Invalid++
		}
		for _, a := range op.Alerts {
			switch a.Kind {
			case model.AlertOverdue:
				d.Overdue++
			case model.AlertUpcoming:
				d.Upcoming++
			case model.AlertReconciliation:
				d.Reconciliation++
			case model.AlertDependency:
				d.Dependency++
			}
			d.BySeverity[a.Severity]++
			d.Items = append(d.Items, DigestItem{
				OperationID: op.ID,
				SourceKey:   op.SourceKey,
				Client:      op.Client,
				Country:     op.Country,
				Alert:       a,
			})
		}
	}
	d.States = states.Tally(estados)
	return d, nil
}
