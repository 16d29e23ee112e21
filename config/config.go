package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Duel     DuelConfig     `mapstructure:"duel"`
	NATS     NATSConfig     `mapstructure:"nats"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
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

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// DuelConfig 对决规则配置
type DuelConfig struct {
	MinDeckSize int `mapstructure:"min_deck_size"`
	HandSize    int `mapstructure:"hand_size"`
	WinScore    int `mapstructure:"win_score"`
	MaxRounds   int `mapstructure:"max_rounds"`
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("server.metrics_address", ":9090")
	viper.SetDefault("duel.min_deck_size", 10)
	viper.SetDefault("duel.hand_size", 3)
	viper.SetDefault("duel.win_score", 2)
	viper.SetDefault("duel.max_rounds", 3)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
