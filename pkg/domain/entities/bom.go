package entities

// ItemSource is the configuration feature a BOM entry was selected for
type ItemSource string

const (
	SourceSystem     ItemSource = "SYSTEM"
	SourceBasin      ItemSource = "BASIN"
	SourceFaucet     ItemSource = "FAUCET"
	SourceSprayer    ItemSource = "SPRAYER"
	SourcePegboard   ItemSource = "PEGBOARD"
	SourceControlBox ItemSource = "CONTROL_BOX"
	SourceLegs       ItemSource = "LEGS"
	SourceFeet       ItemSource = "FEET"
	SourceManual     ItemSource = "MANUAL"
	SourceAccessory  ItemSource = "ACCESSORY"
)

// NodeKind tells what a BOM node was realized from
type NodeKind string

const (
	NodePart     NodeKind = "PART"
	NodeAssembly NodeKind = "ASSEMBLY"
	NodeCustom   NodeKind = "CUSTOM"
)

// BOMNode is a realized, quantity-resolved node of a build's BOM tree.
// Quantity is the total for the build; QuantityPer is the count per one unit of the parent.
type BOMNode struct {
	ID          PartNumber `json:"id"`
	Name        string     `json:"name"`
	Quantity    Quantity   `json:"quantity"`
	QuantityPer Quantity   `json:"quantityPer"`
	ItemType    ItemSource `json:"itemType"`
	Kind        NodeKind   `json:"kind"`
	Category    string     `json:"category"`
	IsCustom    bool       `json:"isCustom"`
	Level       int        `json:"level"`
	Components  []*BOMNode `json:"components,omitempty"`
}

// IsLeaf reports whether the node has no components
func (n *BOMNode) IsLeaf() bool {
	return len(n.Components) == 0
}

// Walk visits the node and its descendants depth first
func (n *BOMNode) Walk(fn func(node *BOMNode)) {
	fn(n)
	for _, child := range n.Components {
		child.Walk(fn)
	}
}

// CountNodes returns the number of nodes in the subtree rooted at n
func (n *BOMNode) CountNodes() int {
	count := 0
	n.Walk(func(*BOMNode) { count++ })
	return count
}

// FlattenedItem is one line of the order-level procurement list
type FlattenedItem struct {
	PartNumber   PartNumber   `json:"partNumber"`
	Description  string       `json:"description"`
	Quantity     Quantity     `json:"quantity"`
	Category     string       `json:"category"`
	Kind         NodeKind     `json:"kind"`
	IsCustom     bool         `json:"isCustom"`
	Sources      []ItemSource `json:"sources"`
	BuildNumbers []string     `json:"buildNumbers"`
}
