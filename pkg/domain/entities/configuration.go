package entities

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// RawConfiguration is a per-build configuration exactly as submitted by the order front end
type RawConfiguration map[string]any

// SinkModel identifies the sink body family
type SinkModel string

const (
	ModelB1 SinkModel = "T2-B1"
	ModelB2 SinkModel = "T2-B2"
	ModelB3 SinkModel = "T2-B3"
)

// MaxBasins returns how many basins the model body accepts, 0 for unknown models
func (m SinkModel) MaxBasins() int {
	switch m {
	case ModelB1:
		return 1
	case ModelB2:
		return 2
	case ModelB3:
		return 3
	default:
		return 0
	}
}

// BasinType is the functional kind of a basin
type BasinType string

const (
	BasinEDrain  BasinType = "E_DRAIN"
	BasinESink   BasinType = "E_SINK"
	BasinESinkDI BasinType = "E_SINK_DI"
)

// BasinSize is a catalog basin size code (width x length x depth, inches)
type BasinSize string

const (
	Basin20x20x8  BasinSize = "20X20X8"
	Basin24x20x8  BasinSize = "24X20X8"
	Basin24x20x10 BasinSize = "24X20X10"
	Basin30x20x8  BasinSize = "30X20X8"
	Basin30x20x10 BasinSize = "30X20X10"
	Basin36x24x12 BasinSize = "36X24X12"
)

// PegboardType is the panel style of a pegboard
type PegboardType string

const (
	Perforated PegboardType = "PERFORATED"
	Solid      PegboardType = "SOLID"
)

// Code returns the short form used in kit ids
func (t PegboardType) Code() string {
	switch t {
	case Perforated:
		return "PERF"
	case Solid:
		return "SOLID"
	default:
		return string(t)
	}
}

// PegboardColor is one of the powder-coat colors pegboards ship in
type PegboardColor string

const (
	ColorGreen  PegboardColor = "GREEN"
	ColorBlack  PegboardColor = "BLACK"
	ColorYellow PegboardColor = "YELLOW"
	ColorGrey   PegboardColor = "GREY"
	ColorRed    PegboardColor = "RED"
	ColorBlue   PegboardColor = "BLUE"
	ColorOrange PegboardColor = "ORANGE"
	ColorWhite  PegboardColor = "WHITE"
)

// LegType is the leg kit family
type LegType string

const (
	LegsDL27 LegType = "DL27"
	LegsDL14 LegType = "DL14"
	LegsLC1  LegType = "LC1"
)

// FeetType is the floor contact option under the legs
type FeetType string

const (
	FeetLevelingCastor FeetType = "LEVELING_CASTOR"
	FeetSeismic        FeetType = "SEISMIC_FEET"
)

// BasinSpec describes one basin on a build. Exactly one of SizeCode or the custom dimensions is set.
type BasinSpec struct {
	Type         BasinType       `json:"type" validate:"required,oneof=E_DRAIN E_SINK E_SINK_DI"`
	SizeCode     BasinSize       `json:"sizeCode,omitempty" validate:"omitempty,oneof=20X20X8 24X20X8 24X20X10 30X20X8 30X20X10 36X24X12"`
	CustomWidth  decimal.Decimal `json:"customWidth"`
	CustomLength decimal.Decimal `json:"customLength"`
	CustomDepth  decimal.Decimal `json:"customDepth"`
}

// IsCustom reports whether the basin is specified by dimensions instead of a size code
func (b BasinSpec) IsCustom() bool {
	return b.SizeCode == ""
}

// FaucetSpec is a faucet kit selection
type FaucetSpec struct {
	AssemblyID PartNumber `json:"assemblyId" validate:"required"`
	Quantity   Quantity   `json:"quantity" validate:"gte=1,lte=100000"`
	Placement  string     `json:"placement,omitempty"`
}

// SprayerSpec is a sprayer kit selection
type SprayerSpec struct {
	AssemblyID PartNumber `json:"assemblyId" validate:"required"`
	Quantity   Quantity   `json:"quantity" validate:"gte=1,lte=100000"`
	Location   string     `json:"location,omitempty"`
}

// PegboardSpec describes the optional pegboard panel
type PegboardSpec struct {
	Enabled bool            `json:"enabled"`
	Length  decimal.Decimal `json:"length"`
	Type    PegboardType    `json:"type,omitempty" validate:"omitempty,oneof=PERFORATED SOLID"`
	Color   PegboardColor   `json:"color,omitempty" validate:"omitempty,oneof=GREEN BLACK YELLOW GREY RED BLUE ORANGE WHITE"`
}

// AccessoryLine is an accessory kit requested on a build
type AccessoryLine struct {
	AssemblyID PartNumber `json:"assemblyId" mapstructure:"assemblyId" validate:"required"`
	Quantity   Quantity   `json:"quantity" mapstructure:"quantity" validate:"gte=1,lte=100000"`
}

// BuildConfiguration is the normalized configuration of one sink build
type BuildConfiguration struct {
	BuildNumber        string          `json:"buildNumber" validate:"required"`
	SinkModel          SinkModel       `json:"sinkModel" validate:"required,oneof=T2-B1 T2-B2 T2-B3"`
	SinkLength         decimal.Decimal `json:"sinkLength"`
	SinkWidth          decimal.Decimal `json:"sinkWidth"`
	Basins             []BasinSpec     `json:"basins" validate:"min=1,dive"`
	Faucets            []FaucetSpec    `json:"faucets" validate:"dive"`
	Sprayers           []SprayerSpec   `json:"sprayers" validate:"dive"`
	Pegboard           PegboardSpec    `json:"pegboard"`
	ControlBoxOverride PartNumber      `json:"controlBoxId,omitempty"`
	LegType            LegType         `json:"legType,omitempty" validate:"omitempty,oneof=DL27 DL14 LC1"`
	FeetType           FeetType        `json:"feetType,omitempty" validate:"omitempty,oneof=LEVELING_CASTOR SEISMIC_FEET"`
	Language           string          `json:"language" validate:"required,oneof=EN FR ES"`
	Accessories        []AccessoryLine `json:"accessories" validate:"dive"`
}

// BasinMultiset counts basin types on a build, independent of basin order
type BasinMultiset map[BasinType]int

// NewBasinMultiset counts the basin types of the given basins
func NewBasinMultiset(basins []BasinSpec) BasinMultiset {
	m := make(BasinMultiset, len(basins))
	for _, b := range basins {
		m[b.Type]++
	}
	return m
}

// Size returns the total number of basins
func (m BasinMultiset) Size() int {
	total := 0
	for _, n := range m {
		total += n
	}
	return total
}

// Key returns the canonical encoding: type:count pairs sorted by type, e.g. "E_DRAIN:2,E_SINK:1"
func (m BasinMultiset) Key() string {
	types := make([]string, 0, len(m))
	for t, n := range m {
		if n > 0 {
			types = append(types, string(t))
		}
	}
	sort.Strings(types)

	pairs := make([]string, len(types))
	for i, t := range types {
		pairs[i] = fmt.Sprintf("%s:%d", t, m[BasinType(t)])
	}
	return strings.Join(pairs, ",")
}

// ControlBoxRule maps one basin-type multiset to a control box assembly
type ControlBoxRule struct {
	Basins     BasinMultiset
	AssemblyID PartNumber
}
