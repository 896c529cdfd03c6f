package services

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
)

// rawBasin accepts the current and legacy spellings of basin fields
type rawBasin struct {
	Type                string          `mapstructure:"type"`
	BasinType           string          `mapstructure:"basinType"`
	BasinTypeID         string          `mapstructure:"basinTypeId"`
	SizeCode            string          `mapstructure:"sizeCode"`
	BasinSize           string          `mapstructure:"basinSize"`
	BasinSizePartNumber string          `mapstructure:"basinSizePartNumber"`
	CustomWidth         decimal.Decimal `mapstructure:"customWidth"`
	Width               decimal.Decimal `mapstructure:"width"`
	CustomLength        decimal.Decimal `mapstructure:"customLength"`
	Length              decimal.Decimal `mapstructure:"length"`
	CustomDepth         decimal.Decimal `mapstructure:"customDepth"`
	Depth               decimal.Decimal `mapstructure:"depth"`
}

type rawFaucet struct {
	AssemblyID   string `mapstructure:"assemblyId"`
	FaucetTypeID string `mapstructure:"faucetTypeId"`
	FaucetType   string `mapstructure:"faucetType"`
	Quantity     int64  `mapstructure:"quantity"`
	Placement    string `mapstructure:"placement"`
}

type rawSprayer struct {
	AssemblyID    string `mapstructure:"assemblyId"`
	SprayerTypeID string `mapstructure:"sprayerTypeId"`
	SprayerType   string `mapstructure:"sprayerType"`
	Quantity      int64  `mapstructure:"quantity"`
	Location      string `mapstructure:"location"`
}

type rawBuild struct {
	SinkModel       string                   `mapstructure:"sinkModel"`
	SinkModelID     string                   `mapstructure:"sinkModelId"`
	SinkLength      decimal.Decimal          `mapstructure:"sinkLength"`
	Length          decimal.Decimal          `mapstructure:"length"`
	SinkWidth       decimal.Decimal          `mapstructure:"sinkWidth"`
	Width           decimal.Decimal          `mapstructure:"width"`
	Basins          []rawBasin               `mapstructure:"basins"`
	Faucets         []rawFaucet              `mapstructure:"faucets"`
	FaucetTypeID    string                   `mapstructure:"faucetTypeId"`
	FaucetQuantity  int64                    `mapstructure:"faucetQuantity"`
	Sprayers        []rawSprayer             `mapstructure:"sprayers"`
	Pegboard        bool                     `mapstructure:"pegboard"`
	HasPegboard     bool                     `mapstructure:"hasPegboard"`
	PegboardType    string                   `mapstructure:"pegboardType"`
	PegboardTypeID  string                   `mapstructure:"pegboardTypeId"`
	PegboardColor   string                   `mapstructure:"pegboardColor"`
	PegboardColorID string                   `mapstructure:"pegboardColorId"`
	ColorID         string                   `mapstructure:"colorId"`
	PegboardLength  decimal.Decimal          `mapstructure:"pegboardLength"`
	ControlBoxID    string                   `mapstructure:"controlBoxId"`
	LegType         string                   `mapstructure:"legType"`
	LegsTypeID      string                   `mapstructure:"legsTypeId"`
	FeetType        string                   `mapstructure:"feetType"`
	FeetTypeID      string                   `mapstructure:"feetTypeId"`
	Language        string                   `mapstructure:"language"`
	Accessories     []entities.AccessoryLine `mapstructure:"accessories"`
}

// ConfigNormalizer canonicalizes raw build configurations. It is side-effect free.
type ConfigNormalizer struct {
	validate *validator.Validate
}

// NewConfigNormalizer creates a normalizer with its validation rules registered
func NewConfigNormalizer() *ConfigNormalizer {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateBasinSpec, entities.BasinSpec{})
	v.RegisterStructValidation(validatePegboardSpec, entities.PegboardSpec{})

	return &ConfigNormalizer{validate: v}
}

// Normalize decodes raw into a BuildConfiguration, applying defaults and rejecting missing
// required fields. Accessories given on the request take precedence over any in raw.
// The error, when non-nil, is an entities.ValidationErrors.
func (n *ConfigNormalizer) Normalize(
	buildNumber string,
	raw entities.RawConfiguration,
	accessories []entities.AccessoryLine,
) (*entities.BuildConfiguration, error) {
	var rb rawBuild
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       decimalHook,
		WeaklyTypedInput: true,
		Result:           &rb,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(raw)); err != nil {
		return nil, entities.ValidationErrors{{
			BuildNumber: buildNumber,
			Field:       "configuration",
			Reason:      err.Error(),
		}}
	}

	cfg := &entities.BuildConfiguration{
		BuildNumber:        buildNumber,
		SinkModel:          entities.SinkModel(upper(firstNonEmpty(rb.SinkModelID, rb.SinkModel))),
		SinkLength:         firstNonZero(rb.SinkLength, rb.Length),
		SinkWidth:          firstNonZero(rb.SinkWidth, rb.Width),
		ControlBoxOverride: entities.PartNumber(strings.TrimSpace(rb.ControlBoxID)),
		LegType:            entities.LegType(upper(firstNonEmpty(rb.LegsTypeID, rb.LegType))),
		FeetType:           entities.FeetType(enumValue(firstNonEmpty(rb.FeetTypeID, rb.FeetType))),
		Language:           upper(firstNonEmpty(rb.Language, "EN")),
	}

	for _, b := range rb.Basins {
		cfg.Basins = append(cfg.Basins, entities.BasinSpec{
			Type:         entities.BasinType(enumValue(firstNonEmpty(b.BasinTypeID, b.BasinType, b.Type))),
			SizeCode:     entities.BasinSize(upper(firstNonEmpty(b.SizeCode, b.BasinSize, b.BasinSizePartNumber))),
			CustomWidth:  firstNonZero(b.CustomWidth, b.Width),
			CustomLength: firstNonZero(b.CustomLength, b.Length),
			CustomDepth:  firstNonZero(b.CustomDepth, b.Depth),
		})
	}

	for _, f := range rb.Faucets {
		cfg.Faucets = append(cfg.Faucets, entities.FaucetSpec{
			AssemblyID: entities.PartNumber(strings.TrimSpace(firstNonEmpty(f.AssemblyID, f.FaucetTypeID, f.FaucetType))),
			Quantity:   defaultQuantity(f.Quantity),
			Placement:  f.Placement,
		})
	}
	if rb.FaucetTypeID != "" {
		cfg.Faucets = append(cfg.Faucets, entities.FaucetSpec{
			AssemblyID: entities.PartNumber(strings.TrimSpace(rb.FaucetTypeID)),
			Quantity:   defaultQuantity(rb.FaucetQuantity),
		})
	}

	for _, s := range rb.Sprayers {
		cfg.Sprayers = append(cfg.Sprayers, entities.SprayerSpec{
			AssemblyID: entities.PartNumber(strings.TrimSpace(firstNonEmpty(s.AssemblyID, s.SprayerTypeID, s.SprayerType))),
			Quantity:   defaultQuantity(s.Quantity),
			Location:   s.Location,
		})
	}

	pegType := enumValue(firstNonEmpty(rb.PegboardTypeID, rb.PegboardType))
	pegColor := upper(firstNonEmpty(rb.PegboardColorID, rb.PegboardColor, rb.ColorID))
	if rb.Pegboard || rb.HasPegboard || pegType != "" || pegColor != "" {
		if pegType == "" {
			pegType = string(entities.Perforated)
		}
		cfg.Pegboard = entities.PegboardSpec{
			Enabled: true,
			Length:  firstNonZero(rb.PegboardLength, cfg.SinkLength),
			Type:    entities.PegboardType(pegType),
			Color:   entities.PegboardColor(pegColor),
		}
	}

	lines := accessories
	if len(lines) == 0 {
		lines = rb.Accessories
	}
	for _, a := range lines {
		cfg.Accessories = append(cfg.Accessories, entities.AccessoryLine{
			AssemblyID: entities.PartNumber(strings.TrimSpace(string(a.AssemblyID))),
			Quantity:   defaultQuantity(int64(a.Quantity)),
		})
	}

	if err := n.validate.Struct(cfg); err != nil {
		return nil, toValidationErrors(buildNumber, err)
	}

	return cfg, nil
}

func toValidationErrors(buildNumber string, err error) error {
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return entities.ValidationErrors{{BuildNumber: buildNumber, Field: "configuration", Reason: err.Error()}}
	}

	out := make(entities.ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		out = append(out, &entities.ConfigurationIncompleteError{
			BuildNumber: buildNumber,
			Field:       field,
			Reason:      describeTag(fe),
		})
	}
	return out
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("needs at least %s entries", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "custom_dimensions":
		return "custom basins need positive width, length and depth"
	case "size_or_custom":
		return "give either a size code or custom dimensions, not both"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func validateBasinSpec(sl validator.StructLevel) {
	basin := sl.Current().Interface().(entities.BasinSpec)
	hasCustom := !basin.CustomWidth.IsZero() || !basin.CustomLength.IsZero() || !basin.CustomDepth.IsZero()

	if basin.SizeCode != "" {
		if hasCustom {
			sl.ReportError(basin.SizeCode, "sizeCode", "SizeCode", "size_or_custom", "")
		}
		return
	}
	if !basin.CustomWidth.IsPositive() || !basin.CustomLength.IsPositive() || !basin.CustomDepth.IsPositive() {
		sl.ReportError(basin.CustomWidth, "customWidth", "CustomWidth", "custom_dimensions", "")
	}
}

func validatePegboardSpec(sl validator.StructLevel) {
	pegboard := sl.Current().Interface().(entities.PegboardSpec)
	if !pegboard.Enabled {
		return
	}
	if pegboard.Color == "" {
		sl.ReportError(pegboard.Color, "color", "Color", "required", "")
	}
	if !pegboard.Length.IsPositive() {
		sl.ReportError(pegboard.Length, "length", "Length", "gt", "0")
	}
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// decimalHook lets dimension fields arrive as JSON numbers, numeric strings or json.Number
func decimalHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}
	switch v := data.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(strings.TrimSpace(v))
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	default:
		return data, nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...decimal.Decimal) decimal.Decimal {
	for _, v := range values {
		if !v.IsZero() {
			return v
		}
	}
	return decimal.Zero
}

func defaultQuantity(q int64) entities.Quantity {
	if q == 0 {
		return 1
	}
	return entities.Quantity(q)
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// enumValue upper-cases and accepts dashes or spaces for underscores, e.g. "e-drain" -> "E_DRAIN"
func enumValue(s string) string {
	return strings.NewReplacer("-", "_", " ", "_").Replace(upper(s))
}
