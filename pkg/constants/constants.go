// Package constants provides shared constants used throughout the custody codebase.
// This includes the wire keys of the observation data format, the known
// entity-list fields, timeouts, limits and file permissions that should be
// consistent across the application.
package constants

import "time"

// Observation envelope keys. These are the keys harvested records carry on the wire.
const (
	// FieldIDFields lists the field names used to derive the observation identity hash
	FieldIDFields = "_sc_id_fields"

	// FieldContentFields lists the field names used to derive the observation content hash
	FieldContentFields = "_sc_content_fields"

	// FieldIDHash is the identity hash of an observation or of a sub-entity
	FieldIDHash = "_sc_id_hash"

	// FieldContentHash is the content hash of an observation
	FieldContentHash = "_sc_content_hash"

	// FieldSource is the provenance type of an observation
	FieldSource = "_sc_source"

	// FieldPubDates holds the fetch, source and legacy pipeline timestamps
	FieldPubDates = "_sc_pubdates"

	// FieldLanguage is the detected language of an observation
	FieldLanguage = "_sc_language"

	// FieldLocalized holds translated variants; it is passed through untouched
	FieldLocalized = "_sc_localized"

	// FieldCaseRecord is the canonical annotation record
	FieldCaseRecord = "cid"
)

// Entity-list keys.
const (
	// FieldDownloads lists file downloads
	FieldDownloads = "_sc_downloads"

	// FieldMedia lists media references
	FieldMedia = "_sc_media"

	// FieldLocations lists geolocations
	FieldLocations = "_sc_locations"

	// FieldQueries lists follow-up queries
	FieldQueries = "_sc_queries"

	// FieldRelations lists relations to other observations
	FieldRelations = "_sc_relations"

	// FieldRelated is the deprecated list that is folded into FieldMedia
	FieldRelated = "_sc_related"

	// FieldRelatedLinks is an older alias of FieldRelated
	FieldRelatedLinks = "relatedLinks"
)

// EntityLists are the entity-list fields reconciled on every observation, in order.
var EntityLists = []string{
	FieldDownloads,
	FieldMedia,
	FieldLocations,
	FieldQueries,
	FieldRelations,
}

// Publication date keys inside FieldPubDates.
const (
	PubDateFetch    = "fetch"
	PubDatePipeline = "pipeline"
	PubDateSource   = "source"
)

// Sub-entity keys shared by every entity list.
const (
	EntityType        = "type"
	EntityTerm        = "term"
	EntityLocation    = "location"
	EntityDescription = "description"
	EntityTimestamp   = "timestamp"
	EntitySHA256      = "sha256"
	EntityMD5         = "md5"
)

// Media and download type tags.
const (
	MediaVideo = "video"
	MediaImage = "image"
	MediaURL   = "url"
)

// TimestampFailed marks a download whose notarization failed.
const TimestampFailed = "failed"

// ReferenceCodeLength is the number of identity hash characters used as the case reference code
const ReferenceCodeLength = 8

// Limit constants define various limits and capacities
const (
	// DefaultConcurrency is the default number of observations normalized in parallel
	DefaultConcurrency = 8

	// MaxConcurrency caps the configured worker count
	MaxConcurrency = 256

	// MaxBatchSize is the largest batch a single normalize run accepts
	MaxBatchSize = 1_000_000

	// ReadBufferSize is the scanner buffer used for NDJSON batches (16 MB per line)
	ReadBufferSize = 16 * 1024 * 1024
)

// Timeout constants
const (
	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// ShutdownTimeout is how long graceful shutdown may take
	ShutdownTimeout = 5 * time.Second

	// StoreTimeout bounds a single archive operation
	StoreTimeout = 30 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Path constants
const (
	// DefaultConfigName is the config file name searched in $HOME and the working directory
	DefaultConfigName = ".custody"

	// DefaultArchivePath is the default sqlite archive location
	DefaultArchivePath = "custody.db"

	// EnvPrefix prefixes every environment variable read through viper
	EnvPrefix = "CUSTODY"
)
