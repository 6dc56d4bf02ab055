// Package collections holds the static catalog of verification collections.
package collections

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Method identifies the proof provider a collection is verified against.
type Method string

const (
	MethodCoinbase Method = "coinbase"
	MethodBinance  Method = "binance"
	MethodX        Method = "x"
	MethodTwitter  Method = "twitter"
	MethodExample  Method = "example"
)

var methods = []Method{MethodCoinbase, MethodBinance, MethodX, MethodTwitter, MethodExample}

// ParseMethod accepts a provider identifier case-insensitively.
func ParseMethod(s string) (Method, bool) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	return m, slices.Contains(methods, m)
}

func (m Method) String() string { return string(m) }

// Collection describes one mintable credential type.
type Collection struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Issuer      string `json:"issuer"`
	Method      Method `json:"verification_method"`
	Description string `json:"description"`
}

// Catalog is an immutable, ordered set of collections.
type Catalog struct {
	items []Collection
	byID  map[string]Collection
}

// NewCatalog indexes items by ID. Later duplicates are ignored.
func NewCatalog(items ...Collection) *Catalog {
	c := &Catalog{byID: make(map[string]Collection, len(items))}
	for _, it := range items {
		if _, dup := c.byID[it.ID]; dup {
			continue
		}
		c.items = append(c.items, it)
		c.byID[it.ID] = it
	}
	return c
}

// Default returns the seed catalog the dashboard ships with.
func Default() *Catalog {
	return NewCatalog(
		Collection{
			ID:          "coinbase-kyc",
			Name:        "Coinbase KYC Verified",
			Issuer:      "Coinbase",
			Method:      MethodCoinbase,
			Description: "Verify your identity using Coinbase KYC credentials",
		},
		Collection{
			ID:          "binance-kyc",
			Name:        "Binance KYC Verified",
			Issuer:      "Binance",
			Method:      MethodBinance,
			Description: "Verify your identity using Binance KYC credentials",
		},
		Collection{
			ID:          "x-username",
			Name:        "X Username Verified",
			Issuer:      "X (Twitter)",
			Method:      MethodX,
			Description: "Verify your X (Twitter) username",
		},
		Collection{
			ID:          "example-verification",
			Name:        "Example Verification",
			Issuer:      "Example",
			Method:      MethodExample,
			Description: "Example verification provider for testing purposes",
		},
	)
}

// All returns a copy of the catalog in declaration order.
func (c *Catalog) All() []Collection {
	return slices.Clone(c.items)
}

func (c *Catalog) Get(id string) (Collection, bool) {
	col, ok := c.byID[id]
	return col, ok
}

// IDs returns collection IDs in declaration order.
func (c *Catalog) IDs() []string {
	return lo.Map(c.items, func(col Collection, _ int) string { return col.ID })
}

// Split partitions the catalog by whether owned contains the collection ID.
func (c *Catalog) Split(owned map[string]string) (have, missing []Collection) {
	return lo.FilterReject(c.items, func(col Collection, _ int) bool {
		_, ok := owned[col.ID]
		return ok
	})
}
