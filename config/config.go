package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
	Riot     RiotConfig     `mapstructure:"riot"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	HeartbeatMS    int    `mapstructure:"heartbeat_ms"`
}

// Heartbeat is the interval clients must ping within; reads time out at
// twice this. 0 disables the deadline.
func (s ServerConfig) Heartbeat() time.Duration {
	return time.Duration(s.HeartbeatMS) * time.Millisecond
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// GameConfig is the room/round policy. Two variants of the start policy were
// observed in production (exactly 5 players vs. 2..5); it is configurable
// rather than hardcoded. VoteRoundLimit of 0 means tie re-votes repeat
// without bound.
type GameConfig struct {
	MinPlayers         int `mapstructure:"min_players"`
	MaxPlayers         int `mapstructure:"max_players"`
	VoteRoundLimit     int `mapstructure:"vote_round_limit"`
	ArbitrationDelayMS int `mapstructure:"arbitration_delay_ms"`
}

type RiotConfig struct {
	APIKey      string `mapstructure:"api_key"`
	AccountHost string `mapstructure:"account_host"`
	MatchHost   string `mapstructure:"match_host"`
	TimeoutMS   int    `mapstructure:"timeout_ms"`
}

func (g GameConfig) ArbitrationDelay() time.Duration {
	return time.Duration(g.ArbitrationDelayMS) * time.Millisecond
}

func (r RiotConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("server.metrics_address", ":9100")
	viper.SetDefault("server.heartbeat_ms", 30000)
	viper.SetDefault("game.min_players", 2)
	viper.SetDefault("game.max_players", 5)
	viper.SetDefault("game.vote_round_limit", 0)
	// The delay before arbitration queries gives clients time to subscribe
	// to the result events. Removing it makes them miss the result.
	viper.SetDefault("game.arbitration_delay_ms", 1000)
	viper.SetDefault("riot.account_host", "https://asia.api.riotgames.com")
	viper.SetDefault("riot.match_host", "https://sea.api.riotgames.com")
	viper.SetDefault("riot.timeout_ms", 10000)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
