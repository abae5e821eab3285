package arrangement

import (
	"testing"

	"github.com/jsphweid/backingband/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoSectionDoc() model.Document {
	return model.Document{
		Key: "C",
		Sections: []model.SectionDoc{
			{ID: "a", Label: "Verse", Progression: "C | Am | F G | G7"},
			{ID: "b", Label: "Chorus", Progression: "F | C:2 G:2"},
		},
	}
}

func TestBuildLaysOutContiguousSteps(t *testing.T) {
	arr, err := Build(twoSectionDoc())
	require.Nil(t, err)

	assert := assert.New(t)
	assert.Equal(96, arr.TotalSteps)
	assert.Len(arr.Progression, 8)
	assert.Len(arr.SectionMap, 2)

	next := 0
	for _, entry := range arr.StepMap {
		assert.Equal(next, entry.Start)
		assert.Greater(entry.End, entry.Start)
		next = entry.End
	}
	assert.Equal(arr.TotalSteps, next)

	// F G share the third bar
	assert.Equal(model.StepEntry{Start: 32, End: 40, Chord: 2}, arr.StepMap[2])
	assert.Equal("b", arr.Progression[6].SectionID)
	assert.NotEmpty(arr.Progression[0].Voicing)
}

func TestBuildAssignsSectionIDs(t *testing.T) {
	doc := model.Document{Sections: []model.SectionDoc{{Label: "A", Progression: "C"}}}
	arr, err := Build(doc)
	require.Nil(t, err)
	assert.Len(t, arr.Sections[0].ID, 36)
}

func TestBuildRejectsBadInput(t *testing.T) {
	assert := assert.New(t)
	_, err := Build(model.Document{Meter: "9/5"})
	assert.NotNil(err)

	_, err = Build(model.Document{Sections: []model.SectionDoc{{Label: "A", Progression: "C Zz"}}})
	assert.NotNil(err)

	_, err = Build(model.Document{Sections: []model.SectionDoc{{Label: "A", Progression: "C:4 G"}}})
	assert.NotNil(err)
}

func TestEmptyDocumentHasNoSteps(t *testing.T) {
	arr, err := Build(model.Document{})
	require.Nil(t, err)
	assert.Equal(t, 0, arr.TotalSteps)
	_, ok := Lookup(arr, 0)
	assert.False(t, ok)
}

func TestLookupWrapsBothDirections(t *testing.T) {
	arr, err := Build(twoSectionDoc())
	require.Nil(t, err)
	assert := assert.New(t)

	pos, ok := Lookup(arr, 35)
	assert.True(ok)
	assert.Equal("F", pos.Chord.Symbol)
	assert.Equal(3, pos.StepInChord)
	assert.Equal(8, pos.ChordSteps)
	assert.Equal("a", pos.SectionID())
	assert.Equal(35, pos.StepInSection)

	pos, ok = Lookup(arr, -1)
	assert.True(ok)
	assert.Equal(95, pos.Step)
	assert.Equal("G", pos.Chord.Symbol)
	assert.True(pos.IsLastStepOfChord())
	assert.Equal(64, pos.SectionStart)
	assert.Equal(96, pos.SectionEnd)

	pos, ok = Lookup(arr, 96+64)
	assert.True(ok)
	assert.Equal("Chorus", pos.SectionLabel())
}

func TestLookupRejectsCorruptMaps(t *testing.T) {
	arr := &model.Arrangement{
		TotalSteps: 16,
		StepMap:    []model.StepEntry{{Start: 4, End: 16, Chord: 0}},
	}
	_, ok := Lookup(arr, 2)
	assert.False(t, ok)
	_, ok = Lookup(arr, 5)
	assert.False(t, ok)
}

func TestSectionEnergy(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(0.6, SectionEnergy("Pre-Chorus"))
	assert.Equal(0.9, SectionEnergy("Chorus 2"))
	assert.Equal(0.5, SectionEnergy("Section A"))
	assert.Equal(0.5, SectionEnergy(""))
}

func TestAnalyzeFormRoles(t *testing.T) {
	doc := model.Document{
		Key: "C",
		Sections: []model.SectionDoc{
			{ID: "1", Label: "A", Progression: "C | F | G | C"},
			{ID: "2", Label: "A", Progression: "C | F | G | C"},
			{ID: "3", Label: "B", Progression: "Am | Dm | E7 | Am"},
			{ID: "4", Label: "A", Progression: "C | F | G | C"},
			{ID: "5", Label: "Outro", Progression: "C"},
			{ID: "6", Label: "Tag", Role: model.Climax, Progression: "C"},
		},
	}
	arr, err := Build(doc)
	require.Nil(t, err)
	form := AnalyzeForm(arr)

	assert := assert.New(t)
	require.Len(t, form.Sections, 6)
	assert.Equal(model.Exposition, form.Sections[0].Role)
	assert.Equal(1, form.Sections[0].Iteration)
	assert.Equal(1.0, form.Sections[0].Flux)
	assert.Equal(model.Development, form.Sections[1].Role)
	assert.Equal(2, form.Sections[1].Iteration)
	assert.Equal(model.Contrast, form.Sections[2].Role)
	assert.Equal(model.Recapitulation, form.Sections[3].Role)
	assert.Equal(3, form.Sections[3].Iteration)
	assert.Equal(model.Resolution, form.Sections[4].Role)
	assert.Equal(model.Climax, form.Sections[5].Role)

	_, ok := form.At(6)
	assert.False(ok)
}

func TestDecodeYAMLAndJSON(t *testing.T) {
	assert := assert.New(t)
	yamlDoc := []byte("key: Am\nmeter: 3/4\nsections:\n  - label: Verse\n    role: build\n    progression: Am | E7\n")
	doc, err := Decode(yamlDoc, true)
	assert.Nil(err)
	assert.Equal("3/4", doc.Meter)
	assert.Equal(model.Build, doc.Sections[0].Role)

	jsonDoc := []byte(`{"key":"C","sections":[{"label":"A","progression":"C | G"}],"settings":{"genre":"funk","enabled":{"bass":true}}}`)
	doc, err = Decode(jsonDoc, false)
	assert.Nil(err)
	assert.Equal(model.Funk, doc.Settings.Genre)
	assert.True(doc.Settings.Enabled[model.Bass])

	_, err = Decode([]byte("{"), false)
	assert.NotNil(err)
}
