package model

import "time"

// AlertKind identifies why an alert was raised.
type AlertKind string

const (
	AlertOverdue        AlertKind = "overdue"
	AlertUpcoming       AlertKind = "upcoming"
	AlertReconciliation AlertKind = "reconciliation"
	AlertDependency     AlertKind = "dependency"
)

// AlertItem identifies what an alert refers to.
type AlertItem string

const (
	ItemDraw      AlertItem = "draw"
	ItemRelease   AlertItem = "release"
	ItemOperation AlertItem = "operation"
)

// Alert is a user-facing notice attached to an operation.
type Alert struct {
	Kind      AlertKind  `json:"kind"`
	Severity  Severity   `json:"severity"`
	Item      AlertItem  `json:"item"`
	Label     string     `json:"label"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	DaysDelta int        `json:"days_delta"` // negative when overdue
	Message   string     `json:"message"`
}
