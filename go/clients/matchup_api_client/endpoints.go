package matchup_api_client

const (
	APIKeyHeader = "X-Api-Key"

	MatchupEndpoint = "/api/matchup"
	VerifyEndpoint  = "/api/matchup/verify"
)
