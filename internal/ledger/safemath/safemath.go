// Package safemath contém a aritmética checada usada em toda mutação de saldo.
// Nenhuma operação daqui faz wrap silencioso: overflow vira domain.ErrNumericalOverflow.
package safemath

import (
	"fmt"
	"math/bits"

	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
)

func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %d + %d", domain.ErrNumericalOverflow, a, b)
	}
	return sum, nil
}

func Sub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, fmt.Errorf("%w: %d - %d", domain.ErrNumericalOverflow, a, b)
	}
	return diff, nil
}

func Mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, fmt.Errorf("%w: %d * %d", domain.ErrNumericalOverflow, a, b)
	}
	return lo, nil
}

func Div(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, fmt.Errorf("%w: division by zero", domain.ErrNumericalOverflow)
	}
	return a / b, nil
}

// MulDiv retorna floor(a*b/c) com produto intermediário de 128 bits.
func MulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, fmt.Errorf("%w: division by zero", domain.ErrNumericalOverflow)
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, fmt.Errorf("%w: %d * %d / %d", domain.ErrNumericalOverflow, a, b, c)
	}
	q, _ := bits.Div64(hi, lo, c)
	return q, nil
}

// Pow10 retorna 10^n checado.
func Pow10(n uint8) (uint64, error) {
	v := uint64(1)
	for i := uint8(0); i < n; i++ {
		var err error
		if v, err = Mul(v, 10); err != nil {
			return 0, err
		}
	}
	return v, nil
}

func Inc(v uint64) (uint64, error) { return Add(v, 1) }
func Dec(v uint64) (uint64, error) { return Sub(v, 1) }

// WrappingInc incrementa v e volta a zero quando v já está no teto.
// É o contrato de contadores: nunca estoura, dá a volta no teto fixo.
func WrappingInc(v, ceiling uint64) uint64 {
	if v >= ceiling {
		return 0
	}
	return v + 1
}
