package bot

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"dealboard-bot/catalog"
	"dealboard-bot/command"
	"dealboard-bot/database"
	"dealboard-bot/navigation"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// Bot encapsulates the bot's state and the collaborators handlers and the
// scheduler work with.
type Bot struct {
	Session *discordgo.Session
	Store   *database.BoardStore
	Status  *database.StatusManager
	Nav     *navigation.Controller
	Msgr    navigation.Messenger
	Cache   *catalog.PageCache
	Warmer  *catalog.Warmer
}

// NewBot creates and initializes a new Bot instance.
func NewBot() (*Bot, error) {
	token := viper.GetString("BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("no bot token provided")
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	return &Bot{Session: dg}, nil
}

// Start opens the bot's session, registers handlers and slash commands, and
// kicks off the scheduler.
func (b *Bot) Start(registerHandlers func(*Bot)) error {
	registerHandlers(b)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands
	for _, def := range command.GetCommandDefinitions() {
		if _, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, "", def); err != nil {
			log.Printf("Cannot create '%v' command: %v", def.Name, err)
		}
	}

	startScheduler(b)

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop gracefully shuts the bot down: scheduler first so no refresh fires
// into a closing session, then the session, then navigation and storage.
func (b *Bot) Stop() {
	stopScheduler()
	if b.Session != nil {
		b.Session.Close()
	}
	if b.Nav != nil {
		b.Nav.Close()
	}
	if b.Store != nil {
		b.Store.Close()
	}
	fmt.Println("Bot stopped gracefully.")
}

// Run starts the bot and blocks until SIGINT or SIGTERM.
func (b *Bot) Run(registerHandlers func(*Bot)) {
	if err := b.Start(registerHandlers); err != nil {
		log.Fatalf("Error starting bot: %v", err)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	b.Stop()
}
