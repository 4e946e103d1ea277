// Package verify implements the identity verification sub-dialogue: pure
// text extraction of callback fields and record matching against the loaded
// user directory.
package verify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var digitWords = map[string]string{
	"zero": "0", "oh": "0", "o": "0",
	"one": "1", "two": "2", "three": "3",
	"four": "4", "five": "5", "six": "6",
	"seven": "7", "eight": "8", "nine": "9",
}

var (
	tokenRe    = regexp.MustCompile(`[a-zA-Z]+|\d+`)
	nonDigitRe = regexp.MustCompile(`\D`)
	dmyRe      = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{4})`)
	ymdRe      = regexp.MustCompile(`(\d{4})[/-](\d{1,2})[/-](\d{1,2})`)
)

// normalizeDigitWords concatenates digits and spelled-out digit words
// ("nine eight ... zero" -> "98...0"), discarding everything else.
func normalizeDigitWords(text string) string {
	var out strings.Builder
	for _, tok := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		if tok[0] >= '0' && tok[0] <= '9' {
			out.WriteString(tok)
		} else if d, ok := digitWords[tok]; ok {
			out.WriteString(d)
		}
	}
	return out.String()
}

// extractDigits returns the bare digits of text, falling back to spoken
// digit words when fewer than want digits are present literally.
func extractDigits(text string, want int) string {
	digits := nonDigitRe.ReplaceAllString(text, "")
	if len(digits) < want {
		// normalizeDigitWords keeps literal digit runs too, so mixed
		// "nine 8 seven" input still yields the full sequence.
		digits = normalizeDigitWords(text)
	}
	return digits
}

// ExtractMobile returns the trailing 10-digit sequence of text, tolerant of
// spelled-out digits.
func ExtractMobile(text string) (string, bool) {
	digits := extractDigits(text, 10)
	if len(digits) >= 10 {
		return digits[len(digits)-10:], true
	}
	return "", false
}

// ExtractLast4 returns the trailing 4-digit sequence of text.
func ExtractLast4(text string) (string, bool) {
	digits := extractDigits(text, 4)
	if len(digits) >= 4 {
		return digits[len(digits)-4:], true
	}
	return "", false
}

// ExtractOTP returns the trailing 6-digit sequence of text.
func ExtractOTP(text string) (string, bool) {
	digits := extractDigits(text, 6)
	if len(digits) >= 6 {
		return digits[len(digits)-6:], true
	}
	return "", false
}

// ExtractDOB recognizes D-M-Y or Y-M-D with - or / separators, or 8 bare
// digits assumed DDMMYYYY, and normalizes to YYYY-MM-DD.
func ExtractDOB(text string) (string, bool) {
	cleaned := strings.TrimSpace(text)

	if m := dmyRe.FindStringSubmatch(cleaned); m != nil {
		return formatDOB(m[3], m[2], m[1]), true
	}
	if m := ymdRe.FindStringSubmatch(cleaned); m != nil {
		return formatDOB(m[1], m[2], m[3]), true
	}

	digits := nonDigitRe.ReplaceAllString(text, "")
	if len(digits) == 8 {
		return formatDOB(digits[4:8], digits[2:4], digits[0:2]), true
	}
	return "", false
}

func formatDOB(year, month, day string) string {
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	return fmt.Sprintf("%s-%02d-%02d", year, m, d)
}
