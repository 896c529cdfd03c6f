// Package testing builds small synthetic catalogs for tests
package testing

import (
	"github.com/vsinha/sinkbom/pkg/domain/entities"
	"github.com/vsinha/sinkbom/pkg/infrastructure/repositories/memory"
)

// CatalogBuilder assembles catalog data for tests. Constructor errors panic.
type CatalogBuilder struct {
	data memory.CatalogData
}

// NewCatalogBuilder creates an empty builder
func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{data: memory.CatalogData{Version: "test"}}
}

// Part adds a leaf part
func (b *CatalogBuilder) Part(id, name string, partType entities.PartType) *CatalogBuilder {
	p, err := entities.NewPart(entities.PartNumber(id), name, partType, "", entities.Active)
	if err != nil {
		panic(err)
	}
	b.data.Parts = append(b.data.Parts, p)
	return b
}

// Assembly adds an assembly; components alternate child id and quantity, e.g. "BOLT", 4, "NUT", 4
func (b *CatalogBuilder) Assembly(
	id, name string,
	assemblyType entities.AssemblyType,
	category string,
	components ...any,
) *CatalogBuilder {
	if len(components)%2 != 0 {
		panic("components must be id, quantity pairs")
	}
	refs := make([]entities.ComponentRef, 0, len(components)/2)
	for i := 0; i < len(components); i += 2 {
		ref, err := entities.NewComponentRef(
			entities.PartNumber(components[i].(string)),
			entities.ChildUnspecified,
			entities.Quantity(components[i+1].(int)),
			"",
		)
		if err != nil {
			panic(err)
		}
		refs = append(refs, *ref)
	}
	a, err := entities.NewAssembly(entities.PartNumber(id), name, assemblyType, category, "", true, refs)
	if err != nil {
		panic(err)
	}
	b.data.Assemblies = append(b.data.Assemblies, a)
	return b
}

// RawAssembly adds an assembly without constructor validation, for defective catalog data
func (b *CatalogBuilder) RawAssembly(a *entities.Assembly) *CatalogBuilder {
	b.data.Assemblies = append(b.data.Assemblies, a)
	return b
}

// Category adds a category
func (b *CatalogBuilder) Category(code, name string) *CatalogBuilder {
	b.data.Categories = append(b.data.Categories, &entities.Category{
		Code:          code,
		Name:          name,
		Subcategories: map[string]entities.Subcategory{},
	})
	return b
}

// ControlBox maps a basin-type multiset to a control box assembly
func (b *CatalogBuilder) ControlBox(assemblyID string, basins map[entities.BasinType]int) *CatalogBuilder {
	b.data.ControlBoxRules = append(b.data.ControlBoxRules, entities.ControlBoxRule{
		Basins:     entities.BasinMultiset(basins),
		AssemblyID: entities.PartNumber(assemblyID),
	})
	return b
}

// Data returns the accumulated catalog data
func (b *CatalogBuilder) Data() memory.CatalogData {
	return b.data
}

// Build indexes the catalog
func (b *CatalogBuilder) Build() *memory.Catalog {
	c, err := memory.NewCatalog(b.data)
	if err != nil {
		panic(err)
	}
	return c
}

// SinkCatalog returns a small but complete sink catalog: system kits for every model, basin kits
// for 24X20X8 plus E_DRAIN 30X20X10, custom-basin hardware kits, one faucet and sprayer kit,
// BLUE PERFORATED pegboards in the 3436, 4836, 6036 and 12036 buckets, five control box rules,
// DL27 and DL14 legs, both feet types, all manuals and two accessories.
func SinkCatalog() *memory.Catalog {
	return SinkCatalogBuilder().Build()
}

// SinkCatalogBuilder returns the builder behind SinkCatalog for tests that extend it
func SinkCatalogBuilder() *CatalogBuilder {
	b := NewCatalogBuilder()
	b.Category("SYSTEM", "Sink systems")
	b.Category("BASIN", "Basins")
	b.Category("FAUCET", "Faucets")
	b.Category("SPRAYER", "Sprayers")
	b.Category("PEGBOARD", "Pegboards")
	b.Category("CONTROL", "Control boxes")
	b.Category("LEGS", "Legs and feet")
	b.Category("ACCESSORY", "Accessories")
	b.Category("HARDWARE", "Hardware")

	b.Part("T2-FRAME-B1", "B1 frame weldment", entities.Component)
	b.Part("T2-FRAME-B2", "B2 frame weldment", entities.Component)
	b.Part("T2-FRAME-B3", "B3 frame weldment", entities.Component)
	b.Part("HW-BOLT-M8", "M8 x 20 hex bolt, stainless", entities.Hardware)
	b.Part("HW-NUT-M8", "M8 hex nut, stainless", entities.Hardware)
	b.Part("BSN-BODY-24X20X8", "Basin body 24x20x8", entities.Component)
	b.Part("BSN-BODY-30X20X10", "Basin body 30x20x10", entities.Component)
	b.Part("T2-DRAIN-VALVE", "Electronic drain valve", entities.Component)
	b.Part("T2-FAUCET-BODY", "Faucet body, gooseneck", entities.Component)
	b.Part("T2-AERATOR", "Laminar flow aerator", entities.Component)
	b.Part("T2-SPRAY-HEAD", "Pre-rinse spray head", entities.Component)
	b.Part("T2-HOSE-60", "60 inch braided hose", entities.Component)
	b.Part("T2-PB-PANEL-4836", "Pegboard panel 48x36", entities.RawMaterial)
	b.Part("T2-PB-PANEL-6036", "Pegboard panel 60x36", entities.RawMaterial)
	b.Part("T2-PB-PANEL-CUT", "Pegboard panel, cut to size", entities.RawMaterial)
	b.Part("T2-CTRL-PCB", "Control board", entities.Electrical)
	b.Part("T2-CTRL-ENCL", "Control enclosure", entities.Component)
	b.Part("T2-LEG-27", "Leg, 27 inch", entities.Component)
	b.Part("T2-LEG-14", "Leg, 14 inch", entities.Component)
	b.Part("T2-OM-EN", "Operation manual, English", entities.Document)
	b.Part("T2-OM-FR", "Operation manual, French", entities.Document)
	b.Part("T2-OM-ES", "Operation manual, Spanish", entities.Document)
	b.Part("T2-SHELF-PART", "Wire shelf", entities.Component)

	b.Assembly("T2-FASTENER-KIT", "Fastener kit", entities.Kit, "HARDWARE", "HW-BOLT-M8", 4, "HW-NUT-M8", 4)
	b.Assembly("T2-B1-SYS-KIT", "T2 B1 system kit", entities.Kit, "SYSTEM", "T2-FRAME-B1", 1, "T2-FASTENER-KIT", 2)
	b.Assembly("T2-B2-SYS-KIT", "T2 B2 system kit", entities.Kit, "SYSTEM", "T2-FRAME-B2", 1, "T2-FASTENER-KIT", 3)
	b.Assembly("T2-B3-SYS-KIT", "T2 B3 system kit", entities.Kit, "SYSTEM", "T2-FRAME-B3", 1, "T2-FASTENER-KIT", 4)
	b.Assembly("T2-DRAIN-ASSY", "Drain assembly", entities.Simple, "BASIN", "T2-DRAIN-VALVE", 1, "HW-NUT-M8", 2)
	b.Assembly("T2-BSN-ESK-24X20X8-KIT", "E-sink basin kit 24x20x8", entities.Kit, "BASIN", "BSN-BODY-24X20X8", 1, "T2-DRAIN-ASSY", 1)
	b.Assembly("T2-BSN-EDR-24X20X8-KIT", "E-drain basin kit 24x20x8", entities.Kit, "BASIN", "BSN-BODY-24X20X8", 1, "T2-DRAIN-ASSY", 1, "HW-BOLT-M8", 2)
	b.Assembly("T2-BSN-EDR-30X20X10-KIT", "E-drain basin kit 30x20x10", entities.Kit, "BASIN", "BSN-BODY-30X20X10", 1, "T2-DRAIN-ASSY", 1)
	b.Assembly("T2-BSN-ESK-DI-24X20X8-KIT", "E-sink DI basin kit 24x20x8", entities.Kit, "BASIN", "BSN-BODY-24X20X8", 1, "T2-DRAIN-ASSY", 1)
	b.Assembly("T2-BSN-EDR-KIT", "E-drain hardware kit", entities.Kit, "BASIN", "T2-DRAIN-ASSY", 1)
	b.Assembly("T2-BSN-ESK-KIT", "E-sink hardware kit", entities.Kit, "BASIN", "T2-DRAIN-ASSY", 1)
	b.Assembly("T2-BSN-ESK-DI-KIT", "E-sink DI hardware kit", entities.Kit, "BASIN", "T2-DRAIN-ASSY", 1)
	b.Assembly("T2-FAUCET-STD", "Standard faucet kit", entities.Kit, "FAUCET", "T2-FAUCET-BODY", 1, "T2-AERATOR", 1)
	b.Assembly("T2-SPRAYER-STD", "Standard sprayer kit", entities.Kit, "SPRAYER", "T2-SPRAY-HEAD", 1, "T2-HOSE-60", 1)
	b.Assembly("T2-ADW-PB-3436-BLUE-PERF-KIT", "Pegboard 34x36 blue perforated", entities.Kit, "PEGBOARD", "T2-PB-PANEL-CUT", 1, "T2-FASTENER-KIT", 1)
	b.Assembly("T2-ADW-PB-4836-BLUE-PERF-KIT", "Pegboard 48x36 blue perforated", entities.Kit, "PEGBOARD", "T2-PB-PANEL-4836", 1, "T2-FASTENER-KIT", 1)
	b.Assembly("T2-ADW-PB-6036-BLUE-PERF-KIT", "Pegboard 60x36 blue perforated", entities.Kit, "PEGBOARD", "T2-PB-PANEL-6036", 1, "T2-FASTENER-KIT", 1)
	b.Assembly("T2-ADW-PB-12036-BLUE-PERF-KIT", "Pegboard 120x36 blue perforated", entities.Kit, "PEGBOARD", "T2-PB-PANEL-CUT", 1, "T2-FASTENER-KIT", 2)
	b.Assembly("T2-CTRL-ESK1", "Control box, 1 e-sink", entities.Kit, "CONTROL", "T2-CTRL-PCB", 1, "T2-CTRL-ENCL", 1)
	b.Assembly("T2-CTRL-EDR1", "Control box, 1 e-drain", entities.Kit, "CONTROL", "T2-CTRL-PCB", 1, "T2-CTRL-ENCL", 1)
	b.Assembly("T2-CTRL-EDR2", "Control box, 2 e-drain", entities.Kit, "CONTROL", "T2-CTRL-PCB", 1, "T2-CTRL-ENCL", 1)
	b.Assembly("T2-CTRL-EDR1-ESK1", "Control box, 1 e-drain 1 e-sink", entities.Kit, "CONTROL", "T2-CTRL-PCB", 2, "T2-CTRL-ENCL", 1)
	b.Assembly("T2-CTRL-EDR2-ESK1", "Control box, 2 e-drain 1 e-sink", entities.Kit, "CONTROL", "T2-CTRL-PCB", 2, "T2-CTRL-ENCL", 1)
	b.Assembly("T2-DL27-KIT", "DL27 leg kit", entities.Kit, "LEGS", "T2-LEG-27", 4, "T2-FASTENER-KIT", 1)
	b.Assembly("T2-DL14-KIT", "DL14 leg kit", entities.Kit, "LEGS", "T2-LEG-14", 4, "T2-FASTENER-KIT", 1)
	b.Assembly("T2-LEVELING-CASTOR-475", "Leveling castor, 4.75 inch", entities.ServicePart, "LEGS")
	b.Assembly("T2-SEISMIC-FEET", "Seismic feet", entities.Simple, "LEGS")
	b.Assembly("T2-SHELF-KIT", "Wire shelf kit", entities.Kit, "ACCESSORY", "T2-SHELF-PART", 1, "T2-FASTENER-KIT", 1)
	b.Assembly("T2-BIN-RAIL", "Bin rail", entities.Simple, "ACCESSORY")

	b.ControlBox("T2-CTRL-ESK1", map[entities.BasinType]int{entities.BasinESink: 1})
	b.ControlBox("T2-CTRL-EDR1", map[entities.BasinType]int{entities.BasinEDrain: 1})
	b.ControlBox("T2-CTRL-EDR2", map[entities.BasinType]int{entities.BasinEDrain: 2})
	b.ControlBox("T2-CTRL-EDR1-ESK1", map[entities.BasinType]int{entities.BasinEDrain: 1, entities.BasinESink: 1})
	b.ControlBox("T2-CTRL-EDR2-ESK1", map[entities.BasinType]int{entities.BasinEDrain: 2, entities.BasinESink: 1})

	return b
}
