package selection

import (
	"github.com/vsinha/sinkbom/pkg/domain/entities"
)

// frameKits holds the system kit (frame, body and base plumbing) per sink model
var frameKits = map[string]entities.PartNumber{
	string(entities.ModelB1): "T2-B1-SYS-KIT",
	string(entities.ModelB2): "T2-B2-SYS-KIT",
	string(entities.ModelB3): "T2-B3-SYS-KIT",
}

var legKits = map[string]entities.PartNumber{
	string(entities.LegsDL27): "T2-DL27-KIT",
	string(entities.LegsDL14): "T2-DL14-KIT",
	string(entities.LegsLC1):  "T2-LC1-KIT",
}

var feetKits = map[string]entities.PartNumber{
	string(entities.FeetLevelingCastor): "T2-LEVELING-CASTOR-475",
	string(entities.FeetSeismic):        "T2-SEISMIC-FEET",
}

// manuals are document parts, one per language
var manuals = map[string]entities.PartNumber{
	"EN": "T2-OM-EN",
	"FR": "T2-OM-FR",
	"ES": "T2-OM-ES",
}

func (e *Engine) selectManual(cfg *entities.BuildConfiguration) (entities.PartNumber, error) {
	id, ok := manuals[cfg.Language]
	if !ok {
		return "", &entities.AmbiguousSelectionError{
			BuildNumber: cfg.BuildNumber,
			Rule:        string(RuleManual),
			Key:         cfg.Language,
		}
	}
	if _, ok := e.catalog.GetPart(id); !ok {
		return "", &entities.MissingKitError{BuildNumber: cfg.BuildNumber, Rule: string(RuleManual), KitID: id}
	}
	return id, nil
}
