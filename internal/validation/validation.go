// Package validation reúne os predicados que liberam o envio dos formulários.
// A camada de serviço não repete essas checagens.
package validation

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	nameRegex  = regexp.MustCompile(`^\p{L}[\p{L}\p{M} ]+$`)
	emailRegex = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9 ]+$`)
)

// IsValidName aceita letras (qualquer alfabeto, acentos combinantes incluídos) e espaços, começando por letra e com pelo menos 2 caracteres.
func IsValidName(name string) bool {
	return nameRegex.MatchString(strings.TrimSpace(name))
}

// IsValidEmail exige o formato local@dominio.tld.
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

// IsStrongPassword exige 8+ caracteres com maiúscula, minúscula, dígito e símbolo.
func IsStrongPassword(password string) bool {
	if len([]rune(password)) < 8 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

// IsValidPhone aceita vazio (telefone é opcional) ou de 8 a 15 dígitos,
// com espaços e um "+" inicial opcionais.
func IsValidPhone(phone string) bool {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return true
	}
	if !phoneRegex.MatchString(phone) {
		return false
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 8 && digits <= 15
}
