package livejournal

import (
	"context"
	"encoding/json"

	"ljdl/pkg/errors"
)

type getRecordsParams struct {
	AlbumID      ID     `json:"albumid"`
	User         string `json:"user"`
	Offset       int    `json:"offset"`
	Limit        int    `json:"limit"`
	Sort         string `json:"sort"`
	Order        string `json:"order"`
	MigratedInfo int    `json:"migrated_info"`
	AuthToken    string `json:"auth_token"`
}

type recordsResult struct {
	Records *[]RawRecord `json:"records"`
}

// GetRecords fetches every record of album in one call and returns them
// normalized, in response order
func (c *Client) GetRecords(ctx context.Context, session *Session, target *Target, album Album) ([]Record, error) {
	log := c.logger.WithFields(map[string]interface{}{
		"user":     target.Username,
		"album_id": album.ID.String(),
	})
	log.DebugWithFields("fetching album records", map[string]interface{}{"limit": album.Count})

	envelopes, err := c.call(ctx, session, AlbumReferer(target, album.ID), target.Origin(), MethodGetRecords, getRecordsID, getRecordsParams{
		AlbumID:      album.ID,
		User:         target.Username,
		Offset:       0,
		Limit:        album.Count,
		Sort:         "timecreate",
		Order:        "desc",
		MigratedInfo: 1,
		AuthToken:    session.AuthToken,
	})
	if err != nil {
		return nil, err
	}

	for _, env := range envelopes {
		if len(env.Result) == 0 {
			continue
		}
		var res recordsResult
		if err := json.Unmarshal(env.Result, &res); err != nil {
			return nil, errors.Wrap(errors.ErrorTypeAPI, err, "unexpected %s result for album %s", MethodGetRecords, album.ID)
		}
		if res.Records == nil {
			continue
		}

		records := NormalizeRecords(*res.Records)
		if len(records) != album.Count {
			log.WarnWithFields("record count differs from album summary", map[string]interface{}{
				"expected": album.Count,
				"received": len(records),
			})
		}
		return records, nil
	}

	return nil, errors.API("can't find %q key in %s response for album %s", "records", MethodGetRecords, album.ID)
}
