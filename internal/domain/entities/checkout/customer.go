package checkout

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
)

// Customer holds the payer data collected by the checkout form.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	TaxID string `json:"taxId"`
	Phone string `json:"phone"`
}

// FieldErrors maps form field names to validation messages.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for field, msg := range f {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "invalid customer: " + strings.Join(parts, "; ")
}

// Normalize trims the fields and keeps only digits in the tax id and phone.
func (c Customer) Normalize() Customer {
	return Customer{
		Name:  strings.Join(strings.Fields(c.Name), " "),
		Email: strings.ToLower(strings.TrimSpace(c.Email)),
		TaxID: DigitsOnly(c.TaxID),
		Phone: DigitsOnly(c.Phone),
	}
}

// Validate checks a normalized customer. A nil result means valid.
func (c Customer) Validate(requirePhone bool) FieldErrors {
	errs := FieldErrors{}

	if len(c.Name) < 3 || !strings.Contains(c.Name, " ") {
		errs["name"] = "informe nome e sobrenome"
	}
	if _, err := mail.ParseAddress(c.Email); err != nil || !strings.Contains(c.Email, ".") {
		errs["email"] = "e-mail inválido"
	}
	if !ValidCPF(c.TaxID) {
		errs["taxId"] = "CPF inválido"
	}
	if c.Phone != "" || requirePhone {
		if len(c.Phone) < 10 || len(c.Phone) > 11 {
			errs["phone"] = "telefone inválido"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// DigitsOnly strips every non-digit rune.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCPF verifies the two check digits of a Brazilian taxpayer id.
// Sequences of one repeated digit are rejected.
func ValidCPF(cpf string) bool {
	cpf = DigitsOnly(cpf)
	if len(cpf) != 11 {
		return false
	}
	if strings.Count(cpf, cpf[:1]) == 11 {
		return false
	}

	d := make([]int, 11)
	for i, r := range cpf {
		d[i] = int(r - '0')
	}

	return checkDigit(d[:9], 10) == d[9] && checkDigit(d[:10], 11) == d[10]
}

func checkDigit(digits []int, weight int) int {
	sum := 0
	for _, n := range digits {
		sum += n * weight
		weight--
	}
	rem := (sum * 10) % 11
	if rem == 10 {
		return 0
	}
	return rem
}

// FormatCPF renders an 11-digit tax id as 000.000.000-00.
func FormatCPF(cpf string) string {
	cpf = DigitsOnly(cpf)
	if len(cpf) != 11 {
		return cpf
	}
	return cpf[0:3] + "." + cpf[3:6] + "." + cpf[6:9] + "-" + cpf[9:11]
}
