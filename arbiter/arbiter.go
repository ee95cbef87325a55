// Package arbiter resolves a finished round against an external
// match-history lookup. The round core only depends on OutcomeChecker;
// the Riot implementation lives in riot.go.
package arbiter

import (
	"context"
	"errors"
	"strings"
)

// Result is a successful outcome check. Win reports whether the checked
// identity won its latest match; the rest is match metadata forwarded to
// clients verbatim.
type Result struct {
	Win              bool     `json:"win"`
	MatchID          string   `json:"match_id"`
	GameMode         string   `json:"game_mode"`
	GameDuration     int64    `json:"game_duration"`
	GameEndTimestamp int64    `json:"game_end_timestamp"`
	Champion         string   `json:"champion"`
	Kills            int      `json:"kills"`
	Deaths           int      `json:"deaths"`
	Assists          int      `json:"assists"`
	PUUID            string   `json:"puuid"`
	TotalMatches     int      `json:"total_matches"`
	AllMatchIDs      []string `json:"all_match_ids"`
}

// OutcomeChecker is injected into the room layer. A failed check is never
// fatal to a round; the caller degrades to voting.
type OutcomeChecker interface {
	CheckOutcome(ctx context.Context, identity string) (*Result, error)
}

var (
	ErrInvalidIdentity = errors.New("identity is not in name#tag form")
	ErrNoAPIKey        = errors.New("no API key configured")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrKeyRejected     = errors.New("API key rejected")
	ErrNoRecentMatches = errors.New("no recent matches found")
)

// SplitIdentity splits a "GameName#TAG" identity.
func SplitIdentity(identity string) (gameName, tagLine string, ok bool) {
	i := strings.Index(identity, "#")
	if i <= 0 || i == len(identity)-1 {
		return "", "", false
	}
	return identity[:i], identity[i+1:], true
}

// WellFormed reports whether identity can be used for an outcome check.
func WellFormed(identity string) bool {
	_, _, ok := SplitIdentity(identity)
	return ok
}

// FailureReason maps a check error to the reason string sent to clients.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidIdentity):
		return "invalid_identity"
	case errors.Is(err, ErrNoAPIKey):
		return "no_api_key"
	case errors.Is(err, ErrPlayerNotFound):
		return "player_not_found"
	case errors.Is(err, ErrKeyRejected):
		return "api_key_issue"
	case errors.Is(err, ErrNoRecentMatches):
		return "no_recent_matches"
	default:
		return "api_error"
	}
}
