package normalize

import "strings"

// Digits keeps only ASCII digits.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCPF checks the two CPF check digits. Formatting characters are ignored.
func ValidCPF(cpf string) bool {
	d := Digits(cpf)
	if len(d) != 11 || allSame(d) {
		return false
	}
	return checkDigit(d[:9], weightsDesc(10)) == int(d[9]-'0') &&
		checkDigit(d[:10], weightsDesc(11)) == int(d[10]-'0')
}

var (
	cnpjWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// ValidCNPJ checks the two CNPJ check digits. Formatting characters are ignored.
func ValidCNPJ(cnpj string) bool {
	d := Digits(cnpj)
	if len(d) != 14 || allSame(d) {
		return false
	}
	return checkDigit(d[:12], cnpjWeights1) == int(d[12]-'0') &&
		checkDigit(d[:13], cnpjWeights2) == int(d[13]-'0')
}

// MaskCPF keeps only the middle block: ***.***.789-**.
func MaskCPF(cpf string) string {
	d := Digits(cpf)
	if len(d) != 11 {
		return cpf
	}
	return "***.***." + d[6:9] + "-**"
}

// MaskCNPJ keeps only the check digits: **.***.***/****-35.
func MaskCNPJ(cnpj string) string {
	d := Digits(cnpj)
	if len(d) != 14 {
		return cnpj
	}
	return "**.***.***/****-" + d[12:]
}

func checkDigit(digits string, weights []int) int {
	sum := 0
	for i := range digits {
		sum += int(digits[i]-'0') * weights[i]
	}
	d := 11 - sum%11
	if d >= 10 {
		return 0
	}
	return d
}

func weightsDesc(start int) []int {
	w := make([]int, start-1)
	for i := range w {
		w[i] = start - i
	}
	return w
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
