package domain

import (
	"strings"
	"time"
	"unicode"
)

// ValidateCreditCard проверяет данные кредитной карты.
// Чистая функция без побочных эффектов: возвращает все нарушенные правила
// сразу, чтобы UI мог показать их одним списком.
func ValidateCreditCard(card CreditCardData, now time.Time) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(card.HolderName) == "" {
		errs.Add("holder_name", "holder name must not be empty")
	}

	number := strings.ReplaceAll(strings.ReplaceAll(card.Number, " ", ""), "-", "")
	switch {
	case number == "":
		errs.Add("number", "card number must not be empty")
	case !isDigits(number):
		errs.Add("number", "card number must contain only digits")
	case len(number) < 12 || len(number) > 19:
		errs.Add("number", "card number length must be between 12 and 19 digits")
	case !luhnValid(number):
		errs.Add("number", "card number failed checksum")
	}

	if card.ExpiryMonth < 1 || card.ExpiryMonth > 12 {
		errs.Add("expiry_month", "expiry month must be between 1 and 12")
	} else if expired(card.ExpiryMonth, card.ExpiryYear, now) {
		errs.Add("expiry", "card is expired")
	}

	if len(card.CVV) < 3 || len(card.CVV) > 4 || !isDigits(card.CVV) {
		errs.Add("cvv", "cvv must be 3 or 4 digits")
	}

	return errs
}

// luhnValid проверяет номер карты по алгоритму Луна:
// каждая вторая цифра справа удваивается, и если результат больше 9,
// его цифры складываются; номер валиден, если сумма кратна 10.
func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// expired проверяет, что срок действия карты истек относительно текущего месяца.
// Двузначный год трактуется как год текущего века.
func expired(month, year int, now time.Time) bool {
	if year < 100 {
		year += (now.Year() / 100) * 100
	}
	if year != now.Year() {
		return year < now.Year()
	}
	return month < int(now.Month())
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}
