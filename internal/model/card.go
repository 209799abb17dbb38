package model

// AdminCard is the reserved card number that opens an admin session.
const AdminCard = "999999999999"

const (
	CardLength = 12
	PINLength  = 4
)

// ValidCard reports whether s is a 12-digit card or account number.
func ValidCard(s string) bool {
	return allDigits(s, CardLength)
}

// ValidPIN reports whether s is a 4-digit PIN.
func ValidPIN(s string) bool {
	return allDigits(s, PINLength)
}

func allDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
