package main

import (
	"log"
	"time"

	"dealboard-bot/bot"
	"dealboard-bot/catalog"
	"dealboard-bot/config"
	"dealboard-bot/database"
	"dealboard-bot/handlers"
	"dealboard-bot/navigation"
	"dealboard-bot/utils"

	"github.com/spf13/viper"
)

func main() {
	config.LoadConfig()

	baseURL := viper.GetString("catalog.baseUrl")
	if baseURL == "" {
		log.Fatal("catalog.baseUrl is not configured. Set it in config.yaml or via the CATALOG_BASEURL environment variable.")
	}

	db, err := database.InitDB(viper.GetString("database.path"))
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	store := database.NewBoardStore(db)

	session, err := catalog.NewSession(baseURL, time.Duration(viper.GetInt("catalog.timeoutMs"))*time.Millisecond)
	if err != nil {
		log.Fatalf("Error creating storefront session: %v", err)
	}
	fetcher := catalog.NewFetcher(session, baseURL, viper.GetInt("catalog.pageSize"))

	cache, err := catalog.NewPageCache(
		fetcher,
		viper.GetInt("catalog.cache.capacity"),
		time.Duration(viper.GetInt("catalog.cache.ttlMinutes"))*time.Minute,
		viper.GetBool("catalog.cache.extendOnHit"),
	)
	if err != nil {
		log.Fatalf("Error creating page cache: %v", err)
	}

	warmer := catalog.NewWarmer(cache, catalog.WarmerOptions{
		ForwardWindow:  viper.GetInt("catalog.warm.forwardWindow"),
		BackwardWindow: viper.GetInt("catalog.warm.backwardWindow"),
		Spacing:        time.Duration(viper.GetInt("catalog.warm.spacingMs")) * time.Millisecond,
		FullWarmDelay:  time.Duration(viper.GetInt("catalog.warm.fullDelaySeconds")) * time.Second,
		FullWarmEvery:  time.Duration(viper.GetInt("catalog.warm.fullEverySeconds")) * time.Second,
	})

	b, err := bot.NewBot()
	if err != nil {
		log.Fatalf("Error initializing bot: %v", err)
	}
	utils.InitLogger(b.Session)

	b.Store = store
	b.Status = database.NewStatusManager(viper.GetString("database.statusFile"))
	b.Cache = cache
	b.Warmer = warmer
	b.Msgr = handlers.NewMessenger(b.Session)
	b.Nav = navigation.NewController(cache, b.Msgr, warmer, navigation.Options{
		Cooldown:     time.Duration(viper.GetInt("nav.cooldownMs")) * time.Millisecond,
		UserCooldown: time.Duration(viper.GetInt("nav.userCooldownMs")) * time.Millisecond,
		StateTTL:     time.Duration(viper.GetInt("nav.stateTtlMinutes")) * time.Minute,
		FetchTimeout: time.Duration(viper.GetInt("nav.fetchTimeoutMs")) * time.Millisecond,
	})

	b.Run(handlers.Register)
}
