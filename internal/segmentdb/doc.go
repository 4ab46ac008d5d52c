// Package segmentdb loads the bundled and community segment catalogs.
//
// Both catalogs share one JSON shape: a list of records keyed by movie ID,
// each carrying raw segment dictionaries. The community catalog is fetched
// from an ordered list of mirror URLs where the first non-empty result
// wins; unavailable mirrors are logged and skipped. The bundled catalog is
// read from a local file. Both are cached behind a TTL so repeated
// reconciliations within a viewing session do not re-read or re-fetch.
//
// RemoteSegments is the read path the reconciler uses: community first when
// sync is enabled, bundled as the fallback, parsed with community-tier
// defaults either way.
package segmentdb
