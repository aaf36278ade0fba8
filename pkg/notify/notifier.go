// Package notify provides the outbound notification channels used by the
// claim verification workflow.
package notify

import "github.com/sirupsen/logrus"

// Notifier dispatches claim-related messages to a contact address
type Notifier interface {
	// SendVerificationCode delivers a verification code to the destination
	SendVerificationCode(destination, code, businessName string) error

	// SendApprovalNotice informs the destination that a claim was approved
	SendApprovalNotice(destination, businessName string) error
}

// DevNotifier logs messages instead of sending them. Used in development
// so the verification flow can be exercised without an email account.
type DevNotifier struct {
	logger *logrus.Logger
}

// NewDevNotifier creates a notifier that only logs
func NewDevNotifier(logger *logrus.Logger) *DevNotifier {
	return &DevNotifier{logger: logger}
}

// SendVerificationCode logs the code
func (n *DevNotifier) SendVerificationCode(destination, code, businessName string) error {
	n.logger.WithFields(logrus.Fields{
		"destination": destination,
		"code":        code,
		"business":    businessName,
	}).Info("DEV MODE: verification code not sent")
	return nil
}

// SendApprovalNotice logs the notice
func (n *DevNotifier) SendApprovalNotice(destination, businessName string) error {
	n.logger.WithFields(logrus.Fields{
		"destination": destination,
		"business":    businessName,
	}).Info("DEV MODE: approval notice not sent")
	return nil
}
