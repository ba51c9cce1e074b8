package matchup_api_client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/makeorbreakshop/thumbnail-battle/go/internal/models"
)

type videoPayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	ViewCount int64  `json:"view_count"`
}

type channelPayload struct {
	Title           string `json:"title"`
	Avatar          string `json:"avatar"`
	SubscriberCount int64  `json:"subscriber_count"`
}

type matchupResponse struct {
	MatchupID string         `json:"matchup_id"`
	Channel   channelPayload `json:"channel"`
	VideoA    videoPayload   `json:"video_a"`
	VideoB    videoPayload   `json:"video_b"`
}

// GetMatchup fetches one battle from the matchup service. Performance scores
// are never present in the response; only the verifier reveals them.
func (c *MatchupApiClient) GetMatchup(ctx context.Context) (*models.Battle, error) {
	body, err := c.Get(ctx, MatchupEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get matchup: %w", err)
	}

	var response matchupResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal matchup response: %w, raw response: %s", err, string(body))
	}

	if response.MatchupID == "" {
		return nil, fmt.Errorf("matchup response missing matchup_id, raw response: %s", string(body))
	}

	return &models.Battle{
		MatchupID: response.MatchupID,
		Channel: models.Channel{
			Title:       response.Channel.Title,
			Avatar:      response.Channel.Avatar,
			Subscribers: response.Channel.SubscriberCount,
		},
		VideoA: videoToModel(response.VideoA),
		VideoB: videoToModel(response.VideoB),
	}, nil
}

func videoToModel(v videoPayload) models.Video {
	return models.Video{
		ID:        v.ID,
		Title:     v.Title,
		Thumbnail: v.Thumbnail,
		ViewCount: v.ViewCount,
	}
}
