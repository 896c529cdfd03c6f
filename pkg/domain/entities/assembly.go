package entities

import (
	"fmt"
	"strings"
)

// AssemblyType is the structural kind of an assembly
type AssemblyType int

const (
	Simple AssemblyType = iota
	Complex
	Kit
	ServicePart
)

// String method for AssemblyType enum
func (t AssemblyType) String() string {
	switch t {
	case Simple:
		return "SIMPLE"
	case Complex:
		return "COMPLEX"
	case Kit:
		return "KIT"
	case ServicePart:
		return "SERVICE_PART"
	default:
		return "UNKNOWN"
	}
}

// Composite reports whether the type is expected to carry components
func (t AssemblyType) Composite() bool {
	return t == Complex || t == Kit
}

// ParseAssemblyType parses the catalog spelling of an assembly type
func ParseAssemblyType(s string) (AssemblyType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SIMPLE":
		return Simple, nil
	case "COMPLEX":
		return Complex, nil
	case "KIT":
		return Kit, nil
	case "SERVICE_PART":
		return ServicePart, nil
	default:
		return Simple, fmt.Errorf("invalid assembly type: %s", s)
	}
}

// ChildKind tells whether a component reference points at a part or an assembly
type ChildKind int

const (
	// ChildUnspecified is resolved against the catalog at load time
	ChildUnspecified ChildKind = iota
	ChildPart
	ChildAssembly
)

// String method for ChildKind enum
func (k ChildKind) String() string {
	switch k {
	case ChildPart:
		return "PART"
	case ChildAssembly:
		return "ASSEMBLY"
	default:
		return "UNSPECIFIED"
	}
}

// ParseChildKind parses the catalog spelling of a child kind
func ParseChildKind(s string) (ChildKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return ChildUnspecified, nil
	case "PART":
		return ChildPart, nil
	case "ASSEMBLY":
		return ChildAssembly, nil
	default:
		return ChildUnspecified, fmt.Errorf("invalid child kind: %s", s)
	}
}

// ComponentRef is an edge in the assembly graph
type ComponentRef struct {
	ChildID   PartNumber
	ChildKind ChildKind
	Quantity  Quantity
	Notes     string
}

// NewComponentRef creates a validated ComponentRef
func NewComponentRef(childID PartNumber, kind ChildKind, quantity Quantity, notes string) (*ComponentRef, error) {
	if string(childID) == "" {
		return nil, fmt.Errorf("child id cannot be empty")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("component quantity must be positive, got %d", quantity)
	}

	return &ComponentRef{
		ChildID:   childID,
		ChildKind: kind,
		Quantity:  quantity,
		Notes:     notes,
	}, nil
}

// Assembly is a catalog entry that may be composed of parts and other assemblies
type Assembly struct {
	ID              PartNumber
	Name            string
	Type            AssemblyType
	CategoryCode    string
	SubcategoryCode string
	CanOrder        bool
	Components      []ComponentRef
}

// NewAssembly creates a validated Assembly
func NewAssembly(
	id PartNumber,
	name string,
	assemblyType AssemblyType,
	categoryCode, subcategoryCode string,
	canOrder bool,
	components []ComponentRef,
) (*Assembly, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("assembly id cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("assembly name cannot be empty: %s", id)
	}
	for _, ref := range components {
		if ref.ChildID == id {
			return nil, fmt.Errorf("assembly %s cannot reference itself", id)
		}
		if ref.Quantity <= 0 {
			return nil, fmt.Errorf("assembly %s: component %s quantity must be positive, got %d", id, ref.ChildID, ref.Quantity)
		}
	}

	return &Assembly{
		ID:              id,
		Name:            name,
		Type:            assemblyType,
		CategoryCode:    categoryCode,
		SubcategoryCode: subcategoryCode,
		CanOrder:        canOrder,
		Components:      components,
	}, nil
}

func (a *Assembly) catalogItem() {}

// ItemID returns the catalog id
func (a *Assembly) ItemID() PartNumber { return a.ID }

// DisplayName returns the catalog name
func (a *Assembly) DisplayName() string { return a.Name }

// IsLeaf reports whether expansion stops at this assembly
func (a *Assembly) IsLeaf() bool {
	return len(a.Components) == 0
}
