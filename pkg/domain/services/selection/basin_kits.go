package selection

import (
	"fmt"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
)

// basinKits maps basin type and catalog size to the basin kit assembly.
// E_SINK_DI is not offered in the 36X24X12 body.
var basinKits = map[entities.BasinType]map[entities.BasinSize]entities.PartNumber{
	entities.BasinEDrain: {
		entities.Basin20x20x8:  "T2-BSN-EDR-20X20X8-KIT",
		entities.Basin24x20x8:  "T2-BSN-EDR-24X20X8-KIT",
		entities.Basin24x20x10: "T2-BSN-EDR-24X20X10-KIT",
		entities.Basin30x20x8:  "T2-BSN-EDR-30X20X8-KIT",
		entities.Basin30x20x10: "T2-BSN-EDR-30X20X10-KIT",
		entities.Basin36x24x12: "T2-BSN-EDR-36X24X12-KIT",
	},
	entities.BasinESink: {
		entities.Basin20x20x8:  "T2-BSN-ESK-20X20X8-KIT",
		entities.Basin24x20x8:  "T2-BSN-ESK-24X20X8-KIT",
		entities.Basin24x20x10: "T2-BSN-ESK-24X20X10-KIT",
		entities.Basin30x20x8:  "T2-BSN-ESK-30X20X8-KIT",
		entities.Basin30x20x10: "T2-BSN-ESK-30X20X10-KIT",
		entities.Basin36x24x12: "T2-BSN-ESK-36X24X12-KIT",
	},
	entities.BasinESinkDI: {
		entities.Basin20x20x8:  "T2-BSN-ESK-DI-20X20X8-KIT",
		entities.Basin24x20x8:  "T2-BSN-ESK-DI-24X20X8-KIT",
		entities.Basin24x20x10: "T2-BSN-ESK-DI-24X20X10-KIT",
		entities.Basin30x20x8:  "T2-BSN-ESK-DI-30X20X8-KIT",
		entities.Basin30x20x10: "T2-BSN-ESK-DI-30X20X10-KIT",
	},
}

// basinHardwareKits carry the drain and plumbing hardware for custom-size basins,
// whose bodies are synthesized rather than taken from the catalog
var basinHardwareKits = map[entities.BasinType]entities.PartNumber{
	entities.BasinEDrain:  "T2-BSN-EDR-KIT",
	entities.BasinESink:   "T2-BSN-ESK-KIT",
	entities.BasinESinkDI: "T2-BSN-ESK-DI-KIT",
}

// SelectBasinKit returns the kit for one basin: the sized kit for catalog sizes, the hardware kit for custom sizes
func (e *Engine) SelectBasinKit(buildNumber string, basin entities.BasinSpec) (entities.PartNumber, error) {
	var (
		id entities.PartNumber
		ok bool
	)
	if basin.IsCustom() {
		id, ok = basinHardwareKits[basin.Type]
	} else {
		id, ok = basinKits[basin.Type][basin.SizeCode]
	}
	if !ok {
		return "", &entities.AmbiguousSelectionError{
			BuildNumber: buildNumber,
			Rule:        string(RuleBasinKit),
			Key:         basinKey(basin),
		}
	}
	return id, e.requireKit(buildNumber, RuleBasinKit, id)
}

func basinKey(basin entities.BasinSpec) string {
	if basin.IsCustom() {
		return fmt.Sprintf("%s/CUSTOM", basin.Type)
	}
	return fmt.Sprintf("%s/%s", basin.Type, basin.SizeCode)
}
