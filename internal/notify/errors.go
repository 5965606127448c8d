// =============================================================================
// Lab Discrepancy Reconciler - Notification Errors
// =============================================================================

package notify

import "fmt"

// DeliveryError reports a failure to deliver a report that an actively
// configured transport should have been able to send. The artifact the report
// covers is routed to the error directory when this surfaces.
type DeliveryError struct {
	// Recipient is the address the report was bound for.
	Recipient string

	// Err is the underlying transport failure.
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to send email to %s: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
