package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mmcdole/checkmark/internal/domain"
)

const (
	// LibraryPageSize is the page size requested from the library listing
	LibraryPageSize = 100

	// MaxLibraryItems caps how many library songs are fetched in one cycle
	MaxLibraryItems = 25000

	progressEvery    = 500
	librarySongsPath = "/v1/me/library/songs"
)

// FetchLibraryIDs returns every catalog id in the user's library.
//
// Missing tokens return an empty set without touching the network.
// A non-success page ends pagination and keeps what was already collected;
// a transport or decode failure discards everything and returns an empty set.
func (c *Client) FetchLibraryIDs(ctx context.Context, tokens domain.Tokens) domain.CatalogIDSet {
	if !tokens.Complete() {
		c.logger.Debug("catalog tokens missing, skipping library fetch")
		return domain.CatalogIDSet{}
	}

	c.logger.Info("fetching library")

	songs, err := c.fetchLibrarySongs(ctx, tokens)
	if err != nil {
		c.logger.Error("library fetch error", "error", err)
		return domain.CatalogIDSet{}
	}

	ids := ExtractCatalogIDs(songs)
	c.logger.Info("fetched library", "songs", len(songs), "catalogIDs", ids.Len())
	return ids
}

// fetchLibrarySongs pages through the library listing sequentially.
// The next offset depends on how many items the previous page returned.
func (c *Client) fetchLibrarySongs(ctx context.Context, tokens domain.Tokens) ([]LibrarySong, error) {
	var all []LibrarySong
	offset := 0

	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(LibraryPageSize))
		query.Set("offset", strconv.Itoa(offset))

		body, err := c.doRequest(ctx, tokens, librarySongsPath, query)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				c.logger.Warn("library page rejected, keeping partial result",
					"status", statusErr.StatusCode, "offset", offset, "fetched", len(all))
				return all, nil
			}
			return nil, err
		}

		var page LibrarySongsResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to parse library page at offset %d: %w", offset, err)
		}

		if len(page.Data) == 0 {
			break
		}

		all = append(all, page.Data...)

		if len(all)%progressEvery == 0 {
			c.logger.Debug("library fetch progress", "fetched", len(all))
		}

		if len(page.Data) < LibraryPageSize {
			break
		}

		offset += len(page.Data)

		if offset >= MaxLibraryItems {
			c.logger.Warn("library size limit reached, truncating", "limit", MaxLibraryItems)
			break
		}
	}

	return all, nil
}

// VerifyTokens requests a single library item to confirm the tokens are accepted
func (c *Client) VerifyTokens(ctx context.Context, tokens domain.Tokens) error {
	if !tokens.Complete() {
		return domain.ErrNotAuthenticated
	}
	query := url.Values{}
	query.Set("limit", "1")
	_, err := c.doRequest(ctx, tokens, librarySongsPath, query)
	return err
}
