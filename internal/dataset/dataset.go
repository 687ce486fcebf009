// Package dataset produces synthetic Brazilian customer records.
//
// Values are shaped like real data (phone, CEP, CPF) but carry no checksum
// or real-world validity. The random source and clock are passed in so that
// callers and tests control the output.
package dataset

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Row count bounds applied by Clamp.
const (
	MinRows = 10
	MaxRows = 1000
)

// Header is the fixed column order of every generated sheet.
var Header = []string{
	"Nome", "Email", "Telefone", "Data de Nascimento", "Endereco",
	"Cidade", "Estado", "CEP", "CPF",
}

// Customer is one synthetic record.
type Customer struct {
	Nome           string
	Email          string
	Telefone       string
	DataNascimento string
	Endereco       string
	Cidade         string
	Estado         string
	CEP            string
	CPF            string
}

// Row returns the values in Header order.
func (c Customer) Row() []string {
	return []string{
		c.Nome, c.Email, c.Telefone, c.DataNascimento, c.Endereco,
		c.Cidade, c.Estado, c.CEP, c.CPF,
	}
}

// Clamp forces n into [MinRows, MaxRows].
func Clamp(n int) int {
	return min(max(n, MinRows), MaxRows)
}

// BirthDateLayout is dd/MM/yyyy.
const BirthDateLayout = "02/01/2006"

// Generate builds Clamp(n) customers using rng for every random field and now
// as the reference for birth dates.
func Generate(n int, rng *rand.Rand, now time.Time) []Customer {
	n = Clamp(n)
	out := make([]Customer, n)
	for i := range out {
		seq := i + 1
		out[i] = Customer{
			Nome:           fmt.Sprintf("Cliente %d", seq),
			Email:          fmt.Sprintf("cliente%d@teste.com", seq),
			Telefone:       fmt.Sprintf("(44) 9%d-%d", between(rng, 1000, 9999), between(rng, 1000, 9999)),
			DataNascimento: now.AddDate(-between(rng, 18, 60), 0, 0).Format(BirthDateLayout),
			Endereco:       fmt.Sprintf("Rua Exemplo %d", between(rng, 1, 999)),
			Cidade:         "CidadeTeste",
			Estado:         "SP",
			CEP:            fmt.Sprintf("%d-%d", between(rng, 10000, 99999), between(rng, 100, 999)),
			CPF:            cpf(rng),
		}
	}
	return out
}

// Rows flattens customers into sheet rows.
func Rows(customers []Customer) [][]string {
	rows := make([][]string, len(customers))
	for i, c := range customers {
		rows[i] = c.Row()
	}
	return rows
}

func cpf(rng *rand.Rand) string {
	return fmt.Sprintf("%d.%d.%d-%d",
		between(rng, 100, 999), between(rng, 100, 999), between(rng, 100, 999), between(rng, 10, 99))
}

// between returns a value in [lo, hi).
func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo)
}

// NewRand returns a PCG-backed source seeded with seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
