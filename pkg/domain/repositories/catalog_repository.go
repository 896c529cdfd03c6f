package repositories

import (
	"context"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
)

// CatalogRepository provides read-only access to one catalog version.
// Lookups report absence with ok == false.
type CatalogRepository interface {
	GetPart(id entities.PartNumber) (*entities.Part, bool)
	GetAssembly(id entities.PartNumber) (*entities.Assembly, bool)
	Lookup(id entities.PartNumber) (entities.CatalogItem, bool)
	GetCategory(code string) (*entities.Category, bool)
	Search(query string) []entities.CatalogItem
	WhereUsed(id entities.PartNumber) []entities.PartNumber

	// ControlBoxFor returns the control box mapped to the basin-type multiset
	ControlBoxFor(basins entities.BasinMultiset) (entities.PartNumber, bool)

	Version() string
}

// BOMTreeWriter persists a generated build tree. Implementations live with the caller.
type BOMTreeWriter interface {
	WriteTree(ctx context.Context, buildNumber string, root *entities.BOMNode) error
}
