package enums

// ConfirmationReason explains why a session asked the user to confirm before proceeding.
type ConfirmationReason string

const (
	// ConfirmationMissingClient is raised when neither name nor phone were captured.
	ConfirmationMissingClient ConfirmationReason = "missing_client"
	// ConfirmationSendOrder asks for a final check before the message leaves the session.
	ConfirmationSendOrder ConfirmationReason = "send_order"
	// ConfirmationDiscardOrder guards a reset that would drop unsaved lines or drafts.
	ConfirmationDiscardOrder ConfirmationReason = "discard_order"
)

// String implements fmt.Stringer.
func (r ConfirmationReason) String() string {
	return string(r)
}
