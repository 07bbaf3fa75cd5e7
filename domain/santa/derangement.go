package santa

import (
	"fmt"
	"math/big"
	"slices"
	"strconv"
	"strings"
)

// Derangement maps every giver id to their recipient id.
type Derangement map[int]int

// Validate checks that d is a bijection over {1..len(d)} without fixed points.
func (d Derangement) Validate() error {
	n := len(d)
	hit := make([]bool, n+1)
	for giver, recipient := range d {
		if giver < 1 || giver > n {
			return fmt.Errorf("giver %d outside [1, %d]", giver, n)
		}
		if recipient < 1 || recipient > n {
			return fmt.Errorf("recipient %d of %d outside [1, %d]", recipient, giver, n)
		}
		if hit[recipient] {
			return fmt.Errorf("recipient %d assigned twice", recipient)
		}
		hit[recipient] = true
		if giver == recipient {
			return fmt.Errorf("participant %d: %w", giver, ErrSelfAssignment)
		}
	}
	return nil
}

func (d Derangement) Givers() []int {
	givers := make([]int, 0, len(d))
	for g := range d {
		givers = append(givers, g)
	}
	slices.Sort(givers)
	return givers
}

// String lists the recipients in giver order, e.g. "2 3 1".
func (d Derangement) String() string {
	parts := make([]string, 0, len(d))
	for _, g := range d.Givers() {
		parts = append(parts, strconv.Itoa(d[g]))
	}
	return strings.Join(parts, " ")
}

// CountDerangements returns D(n) using D(n) = (n-1)(D(n-1) + D(n-2)).
func CountDerangements(n int) *big.Int {
	if n < 0 {
		return big.NewInt(0)
	}
	prev, cur := big.NewInt(1), big.NewInt(0) // D(0), D(1)
	if n == 0 {
		return prev
	}
	for k := 2; k <= n; k++ {
		next := new(big.Int).Add(prev, cur)
		next.Mul(next, big.NewInt(int64(k-1)))
		prev, cur = cur, next
	}
	return cur
}

// ExpectedAttempts is n!/D(n), the mean number of attempts before a
// derangement is accepted. It tends to e as n grows.
func ExpectedAttempts(n int) float64 {
	d := CountDerangements(n)
	if d.Sign() == 0 {
		return 0
	}
	f := new(big.Int).MulRange(1, int64(n))
	r, _ := new(big.Rat).SetFrac(f, d).Float64()
	return r
}
