package document

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	domdoc "github.com/kailas-cloud/gymdex/internal/domain/document"
)

// jsonDoc is the stored shape: the document plus index-only helper fields.
type jsonDoc struct {
	domdoc.Document

	// Geo is "lng,lat" as the GEO index expects.
	Geo string `json:"geo"`
	// CityText duplicates city into a TEXT field for free-text and prefix matching.
	CityText string `json:"city_text"`
	// Is24HourTag carries is_24_hour as a TAG value ("true"/"false").
	Is24HourTag string `json:"is_24_hour_tag"`
}

func buildJSONDoc(doc *domdoc.Document) jsonDoc {
	return jsonDoc{
		Document: *doc,
		Geo: strconv.FormatFloat(doc.Lng(), 'f', -1, 64) + "," +
			strconv.FormatFloat(doc.Lat(), 'f', -1, 64),
		CityText:    doc.City,
		Is24HourTag: strconv.FormatBool(doc.Is24Hour),
	}
}

func marshalDoc(doc *domdoc.Document) ([]byte, error) {
	data, err := json.Marshal(buildJSONDoc(doc))
	if err != nil {
		return nil, fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}
	return data, nil
}

// ParseStored decodes a stored document. JSON.GET with "$" wraps the object in an array.
func ParseStored(raw string) (domdoc.Document, error) {
	raw = strings.TrimSpace(raw)
	var doc domdoc.Document
	if strings.HasPrefix(raw, "[") {
		var docs []domdoc.Document
		if err := json.Unmarshal([]byte(raw), &docs); err != nil {
			return domdoc.Document{}, fmt.Errorf("unmarshal document: %w", err)
		}
		if len(docs) == 0 {
			return domdoc.Document{}, fmt.Errorf("empty JSON.GET result")
		}
		return docs[0], nil
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return domdoc.Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}
