package odds

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// ErrInvalidRiskWin indica um par Risk/Win sem valores positivos
var ErrInvalidRiskWin = errors.New("risk and win must be positive")

var (
	hundred = decimal.NewFromInt(100)
	five    = decimal.NewFromInt(5)
	ten     = decimal.NewFromInt(10)

	numberRe = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)
)

// FromRiskWin deriva odds americanas de um bilhete com Risk (stake) e Win (lucro).
// Win >= Risk => +(Win/Risk*100); caso contrário -(Risk/Win*100).
// O resultado é arredondado para o múltiplo de 5 mais próximo e nunca fica entre -100 e +100.
func FromRiskWin(risk, win decimal.Decimal) (int, error) {
	if !risk.IsPositive() || !win.IsPositive() {
		return 0, ErrInvalidRiskWin
	}

	var american decimal.Decimal
	if win.GreaterThanOrEqual(risk) {
		american = win.Div(risk).Mul(hundred)
	} else {
		american = risk.Div(win).Mul(hundred).Neg()
	}

	rounded := int(american.Div(five).Round(0).Mul(five).IntPart())
	if american.IsPositive() && rounded < 100 {
		rounded = 100
	}
	if american.IsNegative() && rounded > -100 {
		rounded = -100
	}
	return rounded, nil
}

// FormatAmerican formata odds americanas com sinal explícito ("+150", "-110")
func FormatAmerican(american int) string {
	if american > 0 {
		return fmt.Sprintf("+%d", american)
	}
	return fmt.Sprintf("%d", american)
}

// LineFromRiskWin combina FromRiskWin + FormatAmerican
func LineFromRiskWin(risk, win decimal.Decimal) (string, error) {
	american, err := FromRiskWin(risk, win)
	if err != nil {
		return "", err
	}
	return FormatAmerican(american), nil
}

// Multiplier extrai o lucro por unidade apostada a partir de uma linha em texto livre.
// Usa o primeiro token numérico: |v| >= 10 é odd americana, |v| < 10 é odd decimal (o próprio valor).
// Retorna ok=false quando não há token, o valor é zero ou o multiplicador não é positivo.
func Multiplier(line string) (decimal.Decimal, bool) {
	tok := numberRe.FindString(line)
	if tok == "" {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(tok)
	if err != nil || v.IsZero() {
		return decimal.Zero, false
	}

	if v.Abs().GreaterThanOrEqual(ten) {
		if v.IsPositive() {
			return v.Div(hundred), true
		}
		return hundred.Div(v.Abs()), true
	}

	if !v.IsPositive() {
		return decimal.Zero, false
	}
	return v, true
}

// Payout retorna o lucro potencial (amount * multiplicador) com 2 casas decimais
func Payout(amount decimal.Decimal, line string) (decimal.Decimal, bool) {
	m, ok := Multiplier(line)
	if !ok {
		return decimal.Zero, false
	}
	return amount.Mul(m).Round(2), true
}
