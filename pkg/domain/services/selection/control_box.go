package selection

import (
	"github.com/vsinha/sinkbom/pkg/domain/entities"
)

// selectControlBox honors an explicit override, otherwise looks the basin-type multiset up
// in the catalog's rule table. An unmapped multiset is never defaulted.
func (e *Engine) selectControlBox(cfg *entities.BuildConfiguration) (entities.PartNumber, error) {
	if cfg.ControlBoxOverride != "" {
		if _, ok := e.catalog.GetAssembly(cfg.ControlBoxOverride); !ok {
			return "", &entities.UnknownCatalogReferenceError{
				BuildNumber: cfg.BuildNumber,
				ChildID:     cfg.ControlBoxOverride,
			}
		}
		return cfg.ControlBoxOverride, nil
	}

	basins := entities.NewBasinMultiset(cfg.Basins)
	if basins.Size() == 0 {
		return "", ErrNotSelected
	}

	id, ok := e.catalog.ControlBoxFor(basins)
	if !ok {
		return "", &entities.AmbiguousSelectionError{
			BuildNumber: cfg.BuildNumber,
			Rule:        string(RuleControlBox),
			Key:         basins.Key(),
		}
	}
	return id, e.requireKit(cfg.BuildNumber, RuleControlBox, id)
}
