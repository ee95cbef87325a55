// arbiter/riot.go
package arbiter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wfunc/spygame/logger"
)

// RiotClient checks the latest League of Legends match of a Riot id.
// Account lookups go to the regional account host, match lookups to the
// match host; both are configurable.
type RiotClient struct {
	apiKey      string
	accountHost string
	matchHost   string
	client      *http.Client
}

func NewRiotClient(apiKey, accountHost, matchHost string, timeout time.Duration) *RiotClient {
	return &RiotClient{
		apiKey:      apiKey,
		accountHost: accountHost,
		matchHost:   matchHost,
		client:      &http.Client{Timeout: timeout},
	}
}

func (c *RiotClient) CheckOutcome(ctx context.Context, identity string) (*Result, error) {
	gameName, tagLine, ok := SplitIdentity(identity)
	if !ok {
		return nil, ErrInvalidIdentity
	}
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	logger.Log.Infof("Checking outcome for %s#%s", gameName, tagLine)

	puuid, err := c.riotIDToPUUID(ctx, gameName, tagLine)
	if err != nil {
		return nil, err
	}

	matchIDs, err := c.matchIDs(ctx, puuid, 5)
	if err != nil {
		return nil, err
	}
	if len(matchIDs) == 0 {
		return nil, ErrNoRecentMatches
	}

	detail, err := c.matchDetail(ctx, matchIDs[0])
	if err != nil {
		return nil, err
	}

	for _, p := range detail.Info.Participants {
		if p.PUUID == puuid {
			return &Result{
				Win:              p.Win,
				MatchID:          detail.Metadata.MatchID,
				GameMode:         detail.Info.GameMode,
				GameDuration:     detail.Info.GameDuration,
				GameEndTimestamp: detail.Info.GameEndTimestamp,
				Champion:         p.ChampionName,
				Kills:            p.Kills,
				Deaths:           p.Deaths,
				Assists:          p.Assists,
				PUUID:            puuid,
				TotalMatches:     len(matchIDs),
				AllMatchIDs:      matchIDs,
			}, nil
		}
	}
	return nil, fmt.Errorf("puuid %s not in match %s", puuid, detail.Metadata.MatchID)
}

type accountResponse struct {
	PUUID string `json:"puuid"`
}

type matchResponse struct {
	Metadata struct {
		MatchID string `json:"matchId"`
	} `json:"metadata"`
	Info struct {
		GameMode         string `json:"gameMode"`
		GameDuration     int64  `json:"gameDuration"`
		GameEndTimestamp int64  `json:"gameEndTimestamp"`
		Participants     []struct {
			PUUID        string `json:"puuid"`
			Win          bool   `json:"win"`
			ChampionName string `json:"championName"`
			Kills        int    `json:"kills"`
			Deaths       int    `json:"deaths"`
			Assists      int    `json:"assists"`
		} `json:"participants"`
	} `json:"info"`
}

func (c *RiotClient) riotIDToPUUID(ctx context.Context, gameName, tagLine string) (string, error) {
	u := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.accountHost, url.PathEscape(gameName), url.PathEscape(tagLine))

	var account accountResponse
	if err := c.get(ctx, u, &account); err != nil {
		return "", err
	}
	return account.PUUID, nil
}

func (c *RiotClient) matchIDs(ctx context.Context, puuid string, count int) ([]string, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?start=0&count=%s",
		c.matchHost, url.PathEscape(puuid), strconv.Itoa(count))

	var ids []string
	if err := c.get(ctx, u, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *RiotClient) matchDetail(ctx context.Context, matchID string) (*matchResponse, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.matchHost, url.PathEscape(matchID))

	var detail matchResponse
	if err := c.get(ctx, u, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *RiotClient) get(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("GET %s: %w", u, ErrPlayerNotFound)
	case http.StatusForbidden, http.StatusUnauthorized:
		return fmt.Errorf("GET %s: %w", u, ErrKeyRejected)
	default:
		return fmt.Errorf("GET %s: unexpected status %d", u, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
