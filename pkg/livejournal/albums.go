package livejournal

import (
	"context"
	"encoding/json"

	"ljdl/pkg/errors"
)

type getAlbumsParams struct {
	AuthToken string `json:"auth_token"`
	User      string `json:"user"`
}

type albumsResult struct {
	Albums *[]Album `json:"albums"`
}

// GetAlbums lists the target user's albums. In single mode only the
// requested album is returned, or a not-found error when it is absent.
func (c *Client) GetAlbums(ctx context.Context, session *Session, target *Target) ([]Album, error) {
	c.logger.DebugWithFields("fetching album list", map[string]interface{}{
		"user": target.Username,
		"mode": target.Mode.String(),
	})

	envelopes, err := c.call(ctx, session, PhotoReferer(target), target.Origin(), MethodGetAlbums, getAlbumsID, getAlbumsParams{
		AuthToken: session.AuthToken,
		User:      target.Username,
	})
	if err != nil {
		return nil, err
	}

	var albums []Album
	found := false
	for _, env := range envelopes {
		if len(env.Result) == 0 {
			continue
		}
		var res albumsResult
		if err := json.Unmarshal(env.Result, &res); err != nil {
			return nil, errors.Wrap(errors.ErrorTypeAPI, err, "unexpected %s result", MethodGetAlbums)
		}
		if res.Albums != nil {
			albums = *res.Albums
			found = true
			break
		}
	}
	if !found {
		return nil, errors.API("can't find %q key in %s response", "albums", MethodGetAlbums)
	}

	c.logger.DebugWithFields("album list received", map[string]interface{}{
		"user":   target.Username,
		"albums": len(albums),
	})

	if !target.Single() {
		return albums, nil
	}
	for _, album := range albums {
		if album.ID == target.AlbumID {
			return []Album{album}, nil
		}
	}
	return nil, errors.NotFound("album %s not found in %s's journal", target.AlbumID, target.Username)
}
