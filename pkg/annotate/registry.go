package annotate

import (
	"sort"

	"github.com/agentstation/custody/pkg/constants"
	"github.com/agentstation/custody/pkg/observation"
)

// ExtractFunc reads the source-specific case record fields of an
// observation. Missing values are nil; empty strings are stored as null.
type ExtractFunc func(obs observation.Observation) map[string]any

// Registry maps source kinds to their extractor.
type Registry map[observation.SourceKind]ExtractFunc

// DefaultRegistry returns the built-in extractor for every known source.
func DefaultRegistry() Registry {
	return Registry{
		observation.SourceYoutubeChannel:  Youtube,
		observation.SourceYoutubeVideo:    Youtube,
		observation.SourceTwitterFeed:     Twitter,
		observation.SourceTwitterTweet:    Twitter,
		observation.SourceFacebookAPIFeed: Facebook,
		observation.SourceFilesystem:      Filesystem,
		observation.SourceTelegramChannel: Telegram,
		observation.SourceLiveuamapRegion: Liveuamap,
	}
}

// Lookup returns the extractor registered for source.
func (r Registry) Lookup(source observation.SourceKind) (ExtractFunc, bool) {
	fn, ok := r[source]
	return fn, ok && fn != nil
}

// Sources lists the registered source kinds in sorted order.
func (r Registry) Sources() []observation.SourceKind {
	out := make([]observation.SourceKind, 0, len(r))
	for s := range r {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PrimaryDownload returns the first media entity typed video and the
// download sharing its term. Either may be nil.
func PrimaryDownload(obs observation.Observation) (media, download observation.Entity) {
	for _, m := range obs.Entities(constants.FieldMedia) {
		if m.Type() == constants.MediaVideo {
			media = m
			break
		}
	}
	if media == nil {
		return nil, nil
	}
	term := media.Term()
	for _, d := range obs.Entities(constants.FieldDownloads) {
		if d.Term() == term {
			return media, d
		}
	}
	return media, nil
}

// fileFields are the case record fields every extractor takes from the
// primary download.
func fileFields(obs observation.Observation) map[string]any {
	_, file := PrimaryDownload(obs)
	return map[string]any{
		"filename":    file[constants.EntityLocation],
		"md5_hash":    file[constants.EntityMD5],
		"sha256_hash": file[constants.EntitySHA256],
	}
}

// titled sets the online title, its translations and the description.
func titled(fields map[string]any, title, description any) map[string]any {
	fields["online_title"] = title
	fields["online_title_ar"] = title
	fields["online_title_en"] = title
	fields["description"] = description
	return fields
}

// credited sets the creator, acquisition and rights owner fields.
func credited(fields map[string]any, creator any) map[string]any {
	fields["creator"] = creator
	fields["acquired_from"] = creator
	fields["rights_owner"] = creator
	return fields
}
