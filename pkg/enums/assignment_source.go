package enums

// AssignmentSource tags which trigger performed an assignment, for auditing.
type AssignmentSource string

const (
	AssignmentSourceOrderCreated AssignmentSource = "order_created"
	AssignmentSourcePresence     AssignmentSource = "presence_reconnect"
	AssignmentSourceSweep        AssignmentSource = "reconcile_sweep"
	AssignmentSourceManual       AssignmentSource = "manual"
)

// String implements fmt.Stringer.
func (a AssignmentSource) String() string {
	return string(a)
}
