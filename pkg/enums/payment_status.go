package enums

import "fmt"

// PaymentStatus mirrors the payment-provider status vocabulary.
type PaymentStatus string

const (
	PaymentStatusApproved   PaymentStatus = "approved"
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusInProcess  PaymentStatus = "in_process"
	PaymentStatusRejected   PaymentStatus = "rejected"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusChargeback PaymentStatus = "charged_back"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusApproved,
	PaymentStatusPending,
	PaymentStatusInProcess,
	PaymentStatusRejected,
	PaymentStatusCancelled,
	PaymentStatusRefunded,
	PaymentStatusChargeback,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw provider input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
