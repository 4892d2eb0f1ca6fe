package main

import (
	"github.com/sats-mint/gonuts/mint"
	"github.com/sats-mint/gonuts/mint/config"
)

const configPath = "../mint/config/config.json"

func main() {
	mintConfig := config.GetConfig(configPath)
	mintServer := mint.SetupMintServer(mintConfig)
	mint.StartMintServer(mintServer)
}
