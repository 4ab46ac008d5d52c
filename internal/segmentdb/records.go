package segmentdb

import (
	"encoding/json"
	"strings"

	"scenefilter/internal/segment"
)

// Record is one catalog entry: a movie ID and its raw segment dictionaries.
type Record struct {
	ID       string        `json:"id"`
	Segments []segment.Raw `json:"segments"`
}

// rawRecord tolerates entries whose fields carry unexpected types; only the
// salvageable ones survive normalizeRecords.
type rawRecord struct {
	ID       json.RawMessage `json:"id"`
	Segments []segment.Raw   `json:"segments"`
}

// normalizeRecords decodes a catalog document, keeping entries with a
// non-empty string ID and dropping everything else. The document must be a
// JSON array; anything else fails as a structural error.
func normalizeRecords(data []byte) (map[string]Record, error) {
	var entries []rawRecord
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	records := make(map[string]Record, len(entries))
	for _, entry := range entries {
		var id string
		if err := json.Unmarshal(entry.ID, &id); err != nil {
			continue
		}
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := records[id]; dup {
			continue
		}
		records[id] = Record{ID: id, Segments: entry.Segments}
	}
	return records, nil
}
