package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// LibrarySongsResponse is the body of /v1/me/library/songs
type LibrarySongsResponse struct {
	Data []LibrarySong `json:"data"`
	Next string        `json:"next,omitempty"`
}

// LibrarySong is one entry of the user's library listing
type LibrarySong struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes *SongAttributes `json:"attributes,omitempty"`
}

// SongAttributes are the song attributes shared by library and catalog resources
type SongAttributes struct {
	Name             string      `json:"name"`
	ArtistName       string      `json:"artistName"`
	AlbumName        string      `json:"albumName,omitempty"`
	TrackNumber      int         `json:"trackNumber,omitempty"`
	DiscNumber       int         `json:"discNumber,omitempty"`
	DurationInMillis int64       `json:"durationInMillis,omitempty"`
	PlayParams       *PlayParams `json:"playParams,omitempty"`
}

// PlayParams carries the identifiers a displayed track can be matched against
type PlayParams struct {
	ID        FlexString `json:"id"`
	Kind      string     `json:"kind,omitempty"`
	CatalogID FlexString `json:"catalogId"`
	IsLibrary bool       `json:"isLibrary,omitempty"`
}

// FlexString decodes a JSON string or number into its string form.
// Any other JSON type decodes to the empty string rather than failing the page.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*f = ""
			return nil
		}
		*f = FlexString(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			*f = ""
			return nil
		}
		if i, err := n.Int64(); err == nil {
			*f = FlexString(strconv.FormatInt(i, 10))
		} else {
			*f = FlexString(n.String())
		}
	default:
		*f = ""
	}
	return nil
}

// ResourceResponse is the envelope for catalog album and playlist lookups
type ResourceResponse struct {
	Data []Resource `json:"data"`
}

// Resource is an album or playlist with its track relationship
type Resource struct {
	ID            string              `json:"id"`
	Type          string              `json:"type"`
	Attributes    *ResourceAttributes `json:"attributes,omitempty"`
	Relationships *Relationships      `json:"relationships,omitempty"`
}

// ResourceAttributes are the container-level attributes
type ResourceAttributes struct {
	Name        string `json:"name"`
	ArtistName  string `json:"artistName,omitempty"`
	CuratorName string `json:"curatorName,omitempty"`
	TrackCount  int    `json:"trackCount,omitempty"`
}

// Relationships holds the embedded tracks of a container
type Relationships struct {
	Tracks struct {
		Data []TrackResource `json:"data"`
	} `json:"tracks"`
}

// TrackResource is a catalog song or music video inside a container
type TrackResource struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes *SongAttributes `json:"attributes,omitempty"`
}
