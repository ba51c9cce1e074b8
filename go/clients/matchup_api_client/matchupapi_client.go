package matchup_api_client

import (
	"github.com/makeorbreakshop/thumbnail-battle/go/clients"
)

type MatchupApiClient struct {
	*clients.BaseClient
}

func NewMatchupApiClient(baseURL, apiKey string) *MatchupApiClient {
	client := &MatchupApiClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	client.SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetHeader(APIKeyHeader, apiKey)
	}

	return client
}
