package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is read once at startup and passed by value.
type Config struct {
	AppTitle       string
	AppIcon        string
	Location       string
	Scope          string
	AuthnEndpoint  string
	WalletNode     string
	AccessNode     string
	Network        string
	Contracts      map[string]string
	ComputeLimit   int
	PollMin        time.Duration
	PollMax        time.Duration
	HTTPTimeout    time.Duration
	AllowedScripts []string
}

func setDefaults() {
	viper.SetDefault("FCL_APP_TITLE", "FCL Gateway")
	viper.SetDefault("FCL_ACCESS_NODE", "access.devnet.nodes.onflow.org:9000")
	viper.SetDefault("FCL_NETWORK", "testnet")
	viper.SetDefault("FCL_COMPUTE_LIMIT", 999)
	viper.SetDefault("FCL_POLL_MIN", "500ms")
	viper.SetDefault("FCL_POLL_MAX", "5s")
	viper.SetDefault("FCL_HTTP_TIMEOUT", "30s")
}

// splitList splits a comma separated value and drops empty items.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func Load() Config {
	setDefaults()

	// FCL_CONTRACT_ADDRESSES=Name=0x01,Other=0x02
	contracts := map[string]string{}
	for _, pair := range splitList(viper.GetString("FCL_CONTRACT_ADDRESSES")) {
		name, address, ok := strings.Cut(pair, "=")
		if ok && name != "" && address != "" {
			contracts[strings.TrimSpace(name)] = strings.TrimSpace(address)
		}
	}

	return Config{
		AppTitle:       viper.GetString("FCL_APP_TITLE"),
		AppIcon:        viper.GetString("FCL_APP_ICON"),
		Location:       viper.GetString("FCL_LOCATION"),
		Scope:          viper.GetString("FCL_SCOPE"),
		AuthnEndpoint:  viper.GetString("FCL_AUTHN_ENDPOINT"),
		WalletNode:     viper.GetString("FCL_WALLET_NODE"),
		AccessNode:     viper.GetString("FCL_ACCESS_NODE"),
		Network:        viper.GetString("FCL_NETWORK"),
		Contracts:      contracts,
		ComputeLimit:   viper.GetInt("FCL_COMPUTE_LIMIT"),
		PollMin:        viper.GetDuration("FCL_POLL_MIN"),
		PollMax:        viper.GetDuration("FCL_POLL_MAX"),
		HTTPTimeout:    viper.GetDuration("FCL_HTTP_TIMEOUT"),
		AllowedScripts: splitList(viper.GetString("COSIGN_ALLOWED_SCRIPTS")),
	}
}
