// Package citizenid validates and masks 13-digit Thai national identifiers.
package citizenid

import "strings"

const Length = 13

// Valid reports whether id is exactly 13 ASCII digits whose last digit is the
// weighted modulo-11 check digit of the first twelve.
func Valid(id string) bool {
	if len(id) != Length {
		return false
	}
	sum := 0
	for i := 0; i < Length; i++ {
		c := id[i]
		if c < '0' || c > '9' {
			return false
		}
		if i < Length-1 {
			sum += int(c-'0') * (Length - i)
		}
	}
	return CheckDigit(sum) == int(id[Length-1]-'0')
}

// CheckDigit maps a weighted sum onto its check digit.
func CheckDigit(weightedSum int) int {
	return (11 - weightedSum%11) % 10
}

// Complete appends the check digit to a 12-digit prefix. It returns "" when
// prefix is not 12 ASCII digits.
func Complete(prefix string) string {
	if len(prefix) != Length-1 {
		return ""
	}
	sum := 0
	for i := 0; i < Length-1; i++ {
		c := prefix[i]
		if c < '0' || c > '9' {
			return ""
		}
		sum += int(c-'0') * (Length - i)
	}
	return prefix + string(rune('0'+CheckDigit(sum)))
}

// Mask renders id as x-xxxx**-*****-**-x. Values that are not 13 characters
// are fully hidden.
func Mask(id string) string {
	if len(id) != Length {
		return "-"
	}
	return id[0:1] + "-" + id[1:5] + "**-*****-**-" + id[12:13]
}

// MaskPhone keeps the first three and everything after the sixth character.
func MaskPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if len(phone) < 7 {
		return "-"
	}
	return phone[:3] + "-***-" + phone[6:]
}

// Format renders a 13-digit id as x-xxxx-xxxxx-xx-x and returns other input unchanged.
func Format(id string) string {
	if len(id) != Length {
		return id
	}
	return id[0:1] + "-" + id[1:5] + "-" + id[5:10] + "-" + id[10:12] + "-" + id[12:13]
}
