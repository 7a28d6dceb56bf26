package models_test

import (
	"testing"

	"github.com/quietloop/ambientd/internal/models"
	"gopkg.in/yaml.v3"
)

func mustDecode(t *testing.T, doc string) *models.EnvironmentDescriptor {
	t.Helper()
	var d models.EnvironmentDescriptor
	if err := yaml.Unmarshal([]byte(doc), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return &d
}

func TestResolvedAt_DaytimeIsIdentity(t *testing.T) {
	d := mustDecode(t, `
name: Tavern
atmosphere:
  - {url: "u1", volume: 50}
time_variants:
  evening:
    atmosphere:
      - {url: "u2", volume: 10}
`)
	base := d.ResolvedAt(models.Daytime)
	if len(base.Atmosphere) != 1 || base.Atmosphere[0].URL != "u1" {
		t.Fatalf("expected base atmosphere unchanged at Daytime, got %+v", base.Atmosphere)
	}
	if base != d {
		t.Fatalf("ResolvedAt(Daytime) must return the same descriptor, not a merged copy")
	}
}

func TestResolvedAt_VariantMerge(t *testing.T) {
	d := mustDecode(t, `
name: Tavern
category: social
atmosphere:
  - {url: "u1", volume: 50}
time_variants:
  evening:
    atmosphere:
      - {url: "u2", volume: 10}
`)
	merged := d.ResolvedAt(models.Evening)
	if len(merged.Atmosphere) != 1 || merged.Atmosphere[0].URL != "u2" {
		t.Fatalf("expected evening override to replace atmosphere wholesale, got %+v", merged.Atmosphere)
	}
	if merged.Category != "social" {
		t.Fatalf("expected category to survive merge unchanged, got %q", merged.Category)
	}
}

func TestResolvedAt_NoVariantFallsBackToBase(t *testing.T) {
	d := mustDecode(t, `
name: Library
category: quiet
`)
	merged := d.ResolvedAt(models.Morning)
	if merged != d {
		t.Fatalf("expected fallback to base descriptor when no variant exists")
	}
}

func TestValidate_RejectsDaytimeVariant(t *testing.T) {
	d := &models.EnvironmentDescriptor{
		Name: "Bad",
		TimeVariants: map[models.TimeOfDay]*models.DescriptorOverride{
			models.Daytime: {},
		},
	}
	if err := d.Validate(); err == nil {
		t.Fatalf("expected error for time_variants.daytime")
	}
}

func TestValidate_RejectsOutOfRangeVolume(t *testing.T) {
	d := &models.EnvironmentDescriptor{
		Name:       "Bad",
		Atmosphere: []models.MixEntry{{URL: "u", Volume: 0}},
	}
	if err := d.Validate(); err == nil {
		t.Fatalf("expected error for volume 0")
	}
}

func TestValidate_RejectsNonPositiveCycletime(t *testing.T) {
	d := &models.EnvironmentDescriptor{
		Name:   "Bad",
		Lights: &models.AnimationProgram{CycleTime: 0},
	}
	if err := d.Validate(); err == nil {
		t.Fatalf("expected error for non-positive cycletime")
	}
}

func TestDecode_GroupProgramKinds(t *testing.T) {
	d := mustDecode(t, `
name: Tavern
lights:
  cycletime: 2.0
  groups:
    backdrop:
      kind: rgb
      base: [200, 150, 60]
      variance: [10, 10, 10]
      brightness: {min: 40, max: 100}
    overhead:
      kind: inherit_backdrop
    battlefield:
      kind: off
`)
	if d.Lights == nil {
		t.Fatal("expected lights program")
	}
	if _, ok := d.Lights.Groups["backdrop"].(*models.RgbProgram); !ok {
		t.Fatalf("expected backdrop to decode as RgbProgram, got %T", d.Lights.Groups["backdrop"])
	}
	if _, ok := d.Lights.Groups["overhead"].(*models.InheritBackdropProgram); !ok {
		t.Fatalf("expected overhead to decode as InheritBackdropProgram, got %T", d.Lights.Groups["overhead"])
	}
	if _, ok := d.Lights.Groups["battlefield"].(*models.OffProgram); !ok {
		t.Fatalf("expected battlefield to decode as OffProgram, got %T", d.Lights.Groups["battlefield"])
	}
}

func TestResolvedAt_LightsMergeKeyWise(t *testing.T) {
	d := mustDecode(t, `
name: Tavern
lights:
  cycletime: 2.0
  groups:
    backdrop:
      kind: rgb
      base: [200, 150, 60]
      variance: [0, 0, 0]
      brightness: {min: 40, max: 100}
    overhead:
      kind: inherit_backdrop
    battlefield:
      kind: off
time_variants:
  evening:
    lights:
      cycletime: 4.0
      groups:
        backdrop:
          kind: off
        overhead: null
`)
	merged := d.ResolvedAt(models.Evening)

	if _, ok := merged.Lights.Groups["backdrop"].(*models.OffProgram); !ok {
		t.Fatalf("expected backdrop override to replace the base rgb program, got %T", merged.Lights.Groups["backdrop"])
	}
	if _, present := merged.Lights.Groups["overhead"]; present {
		t.Fatalf("expected null override to remove overhead from the merged groups, got %v", merged.Lights.Groups["overhead"])
	}
	if _, ok := merged.Lights.Groups["battlefield"].(*models.OffProgram); !ok {
		t.Fatalf("expected battlefield (absent from override) to survive from base unchanged, got %T", merged.Lights.Groups["battlefield"])
	}
	if merged.Lights.CycleTime != 4.0 {
		t.Fatalf("expected cycletime override to apply, got %v", merged.Lights.CycleTime)
	}

	if _, ok := d.Lights.Groups["backdrop"].(*models.RgbProgram); !ok {
		t.Fatalf("base descriptor's own groups must not be mutated by the merge")
	}
}
