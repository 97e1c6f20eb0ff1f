package session

const (
	// Default Flash Class
	FlashError   = "error"
	FlashInfo    = "info"
	FlashSuccess = "success"
	FlashWarning = "warning"

	// Default Flash Msg
	BadCredsMsg     = "Hmm... check those credentials."
	BadInputMsg     = "Hmm... check your form, something isn't correct."
	ConfirmSentMsg  = "Almost there! Open the link in your email to confirm your account."
	DefaultErrMsg   = "Uh oh! We've run into an issue."
	LinkSentMsg     = "Email sent! Please open the link in your email to reset your password."
	LockedOutMsg    = "Too many attempts. Try again in a little while."
	NoAccessMsg     = "Oops, sending you back somewhere safe."
	NotConfirmedMsg = "It looks like your email has not been confirmed yet. Please complete this process and try again."
	TwoFactorMsg    = "Check your email for a sign-in code to finish up."
)

type Flash struct {
	Class string `json:"class"`
	Msg   string `json:"msg"`
}
