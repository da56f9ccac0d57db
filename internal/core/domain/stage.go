package domain

import (
	"regexp"
	"strings"
)

// Canonical production stage identifiers.
const (
	StageReception    = "stage-reception"
	StageModelisation = "stage-modelisation"
	StageProduction   = "stage-production"
	StageFinition     = "stage-finition"
	StageControle     = "stage-controle"
	StageExpedition   = "stage-expedition"
)

var canonicalStagePattern = regexp.MustCompile(`^stage-[a-z0-9]+(-[a-z0-9]+)*$`)

// legacyStageNames maps lowercased stage display names to canonical ids.
// Only used to migrate role permissions that still reference production
// stages by row id; new stages must be stored with their canonical id.
var legacyStageNames = map[string]string{
	"réception":        StageReception,
	"reception":        StageReception,
	"modélisation":     StageModelisation,
	"modelisation":     StageModelisation,
	"design":           StageModelisation,
	"production":       StageProduction,
	"fabrication":      StageProduction,
	"fraisage":         StageProduction,
	"finition":         StageFinition,
	"finitions":        StageFinition,
	"céramique":        StageFinition,
	"ceramique":        StageFinition,
	"contrôle":         StageControle,
	"controle":         StageControle,
	"contrôle qualité": StageControle,
	"controle qualite": StageControle,
	"expédition":       StageExpedition,
	"expedition":       StageExpedition,
	"livraison":        StageExpedition,
}

// IsCanonicalStageID reports whether id follows the stage-<slug> convention.
func IsCanonicalStageID(id string) bool {
	return canonicalStagePattern.MatchString(id)
}

// CanonicalStageForName returns the canonical id for a legacy stage name.
func CanonicalStageForName(name string) (string, bool) {
	id, ok := legacyStageNames[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}
