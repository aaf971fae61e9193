package conversation

import "unicode"

// phoneDigits is the length of a local Indian mobile number.
const phoneDigits = 10

// extractPhoneNumber pulls a 10-digit phone number out of free-form
// text. Users add spaces, dashes and country prefixes, so every digit
// in the text counts and the last ten win. Returns false when fewer
// than ten digits are present.
func extractPhoneNumber(text string) (string, bool) {
	var digits []rune
	for _, r := range text {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) < phoneDigits {
		return "", false
	}
	return string(digits[len(digits)-phoneDigits:]), true
}
