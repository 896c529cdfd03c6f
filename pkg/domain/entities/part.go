package entities

import (
	"fmt"
	"math"
	"strings"
)

// PartNumber identifies a catalog entry (part or assembly)
type PartNumber string

// Quantity represents an integer quantity value for discrete manufacturing units
type Quantity int64

// MaxOrderQuantity bounds a single quantity on an order line
const MaxOrderQuantity Quantity = 100000

// Mul returns q*n; ok is false when the product does not fit a Quantity
func (q Quantity) Mul(n Quantity) (product Quantity, ok bool) {
	if q == 0 || n == 0 {
		return 0, true
	}
	product = q * n
	if product/n != q || (q == -1 && n == math.MinInt64) || (n == -1 && q == math.MinInt64) {
		return 0, false
	}
	return product, true
}

// Add returns q+n; ok is false when the sum does not fit a Quantity
func (q Quantity) Add(n Quantity) (sum Quantity, ok bool) {
	sum = q + n
	if (n > 0 && sum < q) || (n < 0 && sum > q) {
		return 0, false
	}
	return sum, true
}

// PartType classifies a leaf part
type PartType int

const (
	Component PartType = iota
	Hardware
	RawMaterial
	Electrical
	Document
)

// String method for PartType enum
func (t PartType) String() string {
	switch t {
	case Component:
		return "COMPONENT"
	case Hardware:
		return "HARDWARE"
	case RawMaterial:
		return "RAW_MATERIAL"
	case Electrical:
		return "ELECTRICAL"
	case Document:
		return "DOCUMENT"
	default:
		return "UNKNOWN"
	}
}

// ParsePartType parses the catalog spelling of a part type
func ParsePartType(s string) (PartType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "COMPONENT", "":
		return Component, nil
	case "HARDWARE":
		return Hardware, nil
	case "RAW_MATERIAL":
		return RawMaterial, nil
	case "ELECTRICAL":
		return Electrical, nil
	case "DOCUMENT":
		return Document, nil
	default:
		return Component, fmt.Errorf("invalid part type: %s", s)
	}
}

// PartStatus is the lifecycle status of a part
type PartStatus int

const (
	Active PartStatus = iota
	Inactive
)

// String method for PartStatus enum
func (s PartStatus) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case Inactive:
		return "INACTIVE"
	default:
		return "UNKNOWN"
	}
}

// ParsePartStatus parses the catalog spelling of a part status
func ParsePartStatus(s string) (PartStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACTIVE", "":
		return Active, nil
	case "INACTIVE":
		return Inactive, nil
	default:
		return Active, fmt.Errorf("invalid part status: %s", s)
	}
}

// Part is a leaf catalog entry. Parts never have components.
type Part struct {
	ID                     PartNumber
	Name                   string
	Type                   PartType
	ManufacturerPartNumber string
	Status                 PartStatus
}

// NewPart creates a validated Part
func NewPart(id PartNumber, name string, partType PartType, mpn string, status PartStatus) (*Part, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("part id cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("part name cannot be empty: %s", id)
	}

	return &Part{
		ID:                     id,
		Name:                   name,
		Type:                   partType,
		ManufacturerPartNumber: mpn,
		Status:                 status,
	}, nil
}

func (p *Part) catalogItem() {}

// ItemID returns the catalog id
func (p *Part) ItemID() PartNumber { return p.ID }

// DisplayName returns the catalog name
func (p *Part) DisplayName() string { return p.Name }

// CatalogItem is either a *Part or an *Assembly
type CatalogItem interface {
	ItemID() PartNumber
	DisplayName() string
	catalogItem()
}
