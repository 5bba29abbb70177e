package application

const (
	// eventTypeUserRegistered is emitted when an account is created.
	eventTypeUserRegistered = "user.registered"
	// eventTypePasswordResetRequested carries the reset link for the mailer.
	eventTypePasswordResetRequested = "user.password_reset_requested"
	eventTypePasswordChanged        = "user.password_changed"
	eventTypeUserDeleted            = "user.deleted"
	eventTypeUserPromoted           = "user.promoted"
	eventTypePostCreated            = "post.created"
)
