package pipeline

import (
	"fmt"
	"sort"
)

// Pipeline versions.
const (
	V1 = "v1"
	V2 = "v2"

	DefaultVersion = V2
)

// Versions maps each pipeline version to its ordered transform names.
//
// Migrators run before reconcile-lists so re-tagged media are hashed under
// their canonical subtype, and locations are extracted after annotation so
// the case record location is in place on the first run.
var Versions = map[string][]string{
	V1: {
		ScrubDownloadTimestamps,
		CoerceRelevant,
		CoerceDates,
		MigratePipelineDate,
		MigrateContentField,
		MigrateMediaSubtype,
		Annotate,
	},
	V2: {
		ScrubDownloadTimestamps,
		EmptyToNull,
		CoerceBooleans,
		CoerceViolations,
		CoerceDates,
		CoerceCoordinates,
		MigratePipelineDate,
		MigrateContentField,
		MergeRelatedLinks,
		MigrateMediaSubtype,
		ReconcileLists,
		Annotate,
		ExtractLocations,
	},
}

// VersionNames lists the known versions in sorted order.
func VersionNames() []string {
	names := make([]string, 0, len(Versions))
	for v := range Versions {
		names = append(names, v)
	}
	sort.Strings(names)
	return names
}

// TransformsFor returns a copy of the transform names of version.
func TransformsFor(version string) ([]string, error) {
	names, ok := Versions[version]
	if !ok {
		return nil, fmt.Errorf("unknown pipeline version %q (available: %v)", version, VersionNames())
	}
	out := make([]string, len(names))
	copy(out, names)
	return out, nil
}
