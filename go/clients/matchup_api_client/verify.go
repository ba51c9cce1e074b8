package matchup_api_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

type VerifyAnswerRequest struct {
	MatchupID       string `json:"matchup_id"`
	Selection       string `json:"selection"`
	ElapsedMs       int64  `json:"elapsed_ms"`
	PlayerSessionID string `json:"player_session_id"`
}

type VerifyAnswerResponse struct {
	Correct       bool    `json:"correct"`
	VideoAScore   float64 `json:"video_a_score"`
	VideoBScore   float64 `json:"video_b_score"`
	PointsAwarded int     `json:"points_awarded"`
}

// VerifyAnswer submits a selection for authoritative scoring. The points in
// the response are the only value ever credited to the player; any locally
// sampled estimate is display-only.
func (c *MatchupApiClient) VerifyAnswer(ctx context.Context, req VerifyAnswerRequest) (*VerifyAnswerResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verify request: %w", err)
	}

	body, err := c.Post(ctx, VerifyEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to verify answer: %w", err)
	}

	var response VerifyAnswerResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verify response: %w, raw response: %s", err, string(body))
	}

	return &response, nil
}
