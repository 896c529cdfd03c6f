package jsonfile

import (
	"io/fs"
	"path/filepath"
	"runtime"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
	"github.com/vsinha/sinkbom/pkg/infrastructure/repositories/memory"
)

const (
	partsJSON = `{"parts": {
		"HW-NUT-M8":  {"name": "M8 hex nut", "type": "HARDWARE", "manufacturerPartNumber": "DIN934-M8", "status": "ACTIVE"},
		"HW-BOLT-M8": {"name": "M8 hex bolt", "type": "HARDWARE", "status": "ACTIVE"}
	}}`
	assembliesJSON = `{"assemblies": {
		"FASTENER-KIT": {"name": "Fastener kit", "type": "KIT", "categoryCode": "HARDWARE", "canOrder": true,
			"components": [{"childId": "HW-BOLT-M8", "quantity": 4}, {"childId": "HW-NUT-M8", "childKind": "PART", "quantity": 4}]},
		"CTRL-ESK1": {"name": "Control box", "type": "kit", "categoryCode": "CONTROL",
			"components": [{"childId": "FASTENER-KIT", "quantity": 1}]}
	}}`
	categoriesJSON = `{"categories": {
		"HARDWARE": {"name": "Hardware", "subcategories": {"FASTENERS": {"name": "Fasteners"}}},
		"CONTROL": {"name": "Control boxes"}
	}}`
	rulesJSON = `{"rules": [{"basins": {"E_SINK": 1}, "assemblyId": "CTRL-ESK1"}]}`
)

func catalogFS() fstest.MapFS {
	return fstest.MapFS{
		PartsFile:           {Data: []byte(partsJSON)},
		AssembliesFile:      {Data: []byte(assembliesJSON)},
		CategoriesFile:      {Data: []byte(categoriesJSON)},
		ControlBoxRulesFile: {Data: []byte(rulesJSON)},
	}
}

func TestLoadFS(t *testing.T) {
	data, err := NewLoader().LoadFS(catalogFS())
	require.NoError(t, err)

	require.Len(t, data.Parts, 2)
	assert.Equal(t, entities.PartNumber("HW-BOLT-M8"), data.Parts[0].ID, "records are loaded in id order")
	assert.Equal(t, "DIN934-M8", data.Parts[1].ManufacturerPartNumber)
	assert.Equal(t, entities.Hardware, data.Parts[1].Type)

	require.Len(t, data.Assemblies, 2)
	ctrl := data.Assemblies[0]
	assert.Equal(t, entities.PartNumber("CTRL-ESK1"), ctrl.ID)
	assert.Equal(t, entities.Kit, ctrl.Type)
	kit := data.Assemblies[1]
	assert.True(t, kit.CanOrder)
	require.Len(t, kit.Components, 2)
	assert.Equal(t, entities.ChildUnspecified, kit.Components[0].ChildKind)
	assert.Equal(t, entities.ChildPart, kit.Components[1].ChildKind)
	assert.Equal(t, entities.Quantity(4), kit.Components[1].Quantity)

	require.Len(t, data.Categories, 2)
	assert.Equal(t, "CONTROL", data.Categories[0].Code)
	assert.Equal(t, "Fasteners", data.Categories[1].Subcategories["FASTENERS"].Name)

	require.Len(t, data.ControlBoxRules, 1)
	assert.Equal(t, "E_SINK:1", data.ControlBoxRules[0].Basins.Key())

	assert.Len(t, data.Version, 16)

	catalog, err := memory.NewCatalog(*data)
	require.NoError(t, err)
	id, ok := catalog.ControlBoxFor(entities.BasinMultiset{entities.BasinESink: 1})
	require.True(t, ok)
	assert.Equal(t, entities.PartNumber("CTRL-ESK1"), id)
}

func TestLoadFS_VersionTracksContent(t *testing.T) {
	loader := NewLoader()

	first, err := loader.LoadFS(catalogFS())
	require.NoError(t, err)
	again, err := loader.LoadFS(catalogFS())
	require.NoError(t, err)
	assert.Equal(t, first.Version, again.Version)

	changed := catalogFS()
	changed[PartsFile] = &fstest.MapFile{Data: []byte(`{"parts": {"HW-NUT-M8": {"name": "Nut", "type": "HARDWARE"}}}`)}
	other, err := loader.LoadFS(changed)
	require.NoError(t, err)
	assert.NotEqual(t, first.Version, other.Version)
}

func TestLoadFS_RulesFileIsOptional(t *testing.T) {
	fsys := catalogFS()
	delete(fsys, ControlBoxRulesFile)

	data, err := NewLoader().LoadFS(fsys)
	require.NoError(t, err)
	assert.Empty(t, data.ControlBoxRules)
}

func TestLoadFS_Errors(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		data   string
		delete bool
		errMsg string
	}{
		{name: "missing parts", file: PartsFile, delete: true, errMsg: "failed to read parts.json"},
		{name: "malformed assemblies", file: AssembliesFile, data: `{"assemblies": [`, errMsg: "failed to parse assemblies.json"},
		{
			name:   "bad part type",
			file:   PartsFile,
			data:   `{"parts": {"X": {"name": "X", "type": "PLASTIC"}}}`,
			errMsg: "part X: invalid part type: PLASTIC",
		},
		{
			name:   "bad assembly type",
			file:   AssembliesFile,
			data:   `{"assemblies": {"K": {"name": "K", "type": "BUNDLE"}}}`,
			errMsg: "assembly K: invalid assembly type: BUNDLE",
		},
		{
			name:   "non-positive component quantity",
			file:   AssembliesFile,
			data:   `{"assemblies": {"K": {"name": "K", "type": "KIT", "components": [{"childId": "HW-NUT-M8", "quantity": 0}]}}}`,
			errMsg: "assembly K component 1",
		},
		{
			name:   "unknown basin type in rule",
			file:   ControlBoxRulesFile,
			data:   `{"rules": [{"basins": {"E_WASH": 1}, "assemblyId": "CTRL-ESK1"}]}`,
			errMsg: "control_box_rules.json rule 1: invalid basin type: E_WASH",
		},
		{
			name:   "rule without assembly",
			file:   ControlBoxRulesFile,
			data:   `{"rules": [{"basins": {"E_SINK": 1}}]}`,
			errMsg: "assemblyId cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := catalogFS()
			if tt.delete {
				delete(fsys, tt.file)
			} else {
				fsys[tt.file] = &fstest.MapFile{Data: []byte(tt.data)}
			}

			_, err := NewLoader().LoadFS(fsys)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			if tt.delete {
				assert.ErrorIs(t, err, fs.ErrNotExist)
			}
		})
	}
}

func TestLoadDir_ExampleCatalog(t *testing.T) {
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	dir := filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "examples", "catalog")

	data, err := NewLoader().LoadDir(dir)
	require.NoError(t, err)

	catalog, err := memory.NewCatalog(*data)
	require.NoError(t, err)
	assert.False(t, catalog.IntegrityReport().HasErrors())

	parts, assemblies, categories := catalog.Stats()
	assert.Equal(t, 23, parts)
	assert.Equal(t, 29, assemblies)
	assert.Equal(t, 9, categories)
}
