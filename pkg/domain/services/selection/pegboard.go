package selection

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
)

type lengthBucket struct {
	min   decimal.Decimal
	label string
}

// pegboardBuckets are ordered by lower bound; bucket i covers [min_i, min_i+1).
// The label encodes nominal length and the fixed 36" height.
var pegboardBuckets = []lengthBucket{
	{decimal.NewFromInt(34), "3436"},
	{decimal.NewFromInt(48), "4836"},
	{decimal.NewFromInt(60), "6036"},
	{decimal.NewFromInt(72), "7236"},
	{decimal.NewFromInt(84), "8436"},
	{decimal.NewFromInt(96), "9636"},
	{decimal.NewFromInt(108), "10836"},
	{decimal.NewFromInt(120), "12036"},
}

// PegboardBucket returns the size label for a pegboard length. Lengths outside the
// supported range clamp to the first or last bucket.
func PegboardBucket(length decimal.Decimal) string {
	label := pegboardBuckets[0].label
	for _, b := range pegboardBuckets {
		if length.LessThan(b.min) {
			break
		}
		label = b.label
	}
	return label
}

// PegboardKitID builds the kit id for a length, panel type and color,
// e.g. 60 PERFORATED BLUE -> T2-ADW-PB-6036-BLUE-PERF-KIT
func PegboardKitID(length decimal.Decimal, t entities.PegboardType, color entities.PegboardColor) entities.PartNumber {
	return entities.PartNumber(fmt.Sprintf("T2-ADW-PB-%s-%s-%s-KIT", PegboardBucket(length), color, t.Code()))
}

func (e *Engine) selectPegboard(cfg *entities.BuildConfiguration) (entities.PartNumber, error) {
	if !cfg.Pegboard.Enabled {
		return "", ErrNotSelected
	}
	id := PegboardKitID(cfg.Pegboard.Length, cfg.Pegboard.Type, cfg.Pegboard.Color)
	return id, e.requireKit(cfg.BuildNumber, RulePegboard, id)
}
