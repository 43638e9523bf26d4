package domain

import (
	"regexp"
	"strings"
)

var (
	// Indian pincodes are six digits and never start with zero.
	pincodeRe = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	phoneRe   = regexp.MustCompile(`^[0-9]{10}$`)
)

func ValidPincode(pin string) bool {
	return pincodeRe.MatchString(strings.TrimSpace(pin))
}

func ValidPhone(phone string) bool {
	return phoneRe.MatchString(strings.TrimSpace(phone))
}
