package models

const (
	PaymentModeCash = "cash"
	PaymentModeUPI  = "upi"
	PaymentModeBank = "bank"

	PaymentStatusDone = "done"

	BhandaraStatusActive = "active"
	BhandaraStatusClosed = "closed"

	RoleAdmin      = "admin"
	RoleSuperAdmin = "super-admin"
)

// Collection names.
const (
	CollAdmins            = "admins"
	CollDonors            = "donors"
	CollBhandaras         = "bhandaras"
	CollDonations         = "donations"
	CollSpendingItems     = "spending_items"
	CollBhandaraSpendings = "bhandara_spendings"
)

// ValidPaymentMode reports whether mode is one of cash, upi, bank.
func ValidPaymentMode(mode string) bool {
	return mode == PaymentModeCash || mode == PaymentModeUPI || mode == PaymentModeBank
}

// ValidCreatePaymentMode reports whether mode may be used when creating a
// donation. Bank transfers are only recorded through edits.
func ValidCreatePaymentMode(mode string) bool {
	return mode == PaymentModeCash || mode == PaymentModeUPI
}
