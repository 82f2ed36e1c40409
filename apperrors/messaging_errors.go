package apperrors

var (
	ErrEmptyMessage       = InvalidArg("message text cannot be empty")
	ErrSelfMessage        = InvalidArg("cannot send a message to yourself")
	ErrInvalidUserID      = InvalidArg("invalid user id")
	ErrInvalidMessageID   = InvalidArg("invalid message id")
	ErrInvalidReference   = InvalidArg("unknown participant or application")
	ErrMessageNotFound    = NotFound("message not found")
	ErrProfileNotFound    = NotFound("profile not found")
	ErrInvalidCredentials = Unauthorized("invalid email or password")
	ErrSessionExpired     = Unauthorized("session expired or revoked")
)

func FetchFailed(cause error) error {
	return Wrap(CodeUnavailable, "failed to load messages", cause)
}

// SendFailed keeps the draft so the client can leave it in the input box.
func SendFailed(draft string, cause error) error {
	return &AppError{Code: CodeUnavailable, Message: "failed to send message", Cause: cause, Draft: draft}
}

func ReadMarkFailed(cause error) error {
	return Wrap(CodeUnavailable, "failed to mark messages as read", cause)
}

func SubscribeFailed(cause error) error {
	return Wrap(CodeUnavailable, "failed to subscribe to message updates", cause)
}
