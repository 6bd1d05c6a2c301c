package config

type App struct {
	Port            string `env:"APP_PORT" default:"8080"`
	DatabaseURL     string `env:"DATABASE_URL,required"`
	JWTSecret       string `env:"JWT_SECRET,required"`
	ChainGatewayURL string `env:"CHAIN_GATEWAY_URL,required"`
	ChainGatewayKey string `env:"CHAIN_GATEWAY_KEY"`
	ChainHookSecret string `env:"CHAIN_HOOK_SECRET"`
	MarketAddress   string `env:"MARKET_ADDRESS,required"`
	OwnerAddress    string `env:"OWNER_ADDRESS,required"`
	Env             string `env:"APP_ENV" default:"dev"`
}
