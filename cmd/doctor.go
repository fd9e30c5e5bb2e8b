package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/config"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/contacts"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/telegram"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("tgva doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, using defaults)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  Providers:")
	checkKey("Groq", cfg.Providers.Groq.APIKey)
	checkKey("Gemini", cfg.Providers.Gemini.APIKey)
	if cfg.Providers.Groq.APIKey == "" && cfg.Providers.Gemini.APIKey == "" {
		fmt.Println("    (none configured — grammar correction falls back to basic cleanup)")
	}

	fmt.Println()
	fmt.Println("  Contacts:")
	store := contacts.NewFileStore(cfg.ContactsPath())
	dir, err := contacts.Open(store)
	if err != nil {
		fmt.Printf("    %-12s LOAD FAILED (%s)\n", cfg.ContactsPath()+":", err)
	} else {
		fmt.Printf("    %-12s %d contacts\n", "Directory:", dir.Len())
	}

	fmt.Println()
	fmt.Println("  Telegram:")
	if cfg.Telegram.Token == "" {
		fmt.Println("    Token:       NOT SET (set TGVA_TELEGRAM_TOKEN)")
		return
	}
	fmt.Println("    Token:       set")

	tg, err := telegram.New(cfg.Telegram.Token, "")
	if err != nil {
		fmt.Printf("    Client:      CREATE FAILED (%s)\n", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := tg.Connect(ctx); err != nil {
		fmt.Printf("    Connection:  FAILED (%s)\n", err)
		return
	}
	fmt.Printf("    Connection:  OK (@%s)\n", tg.Username())
}

func checkKey(name, key string) {
	status := "NOT SET"
	if key != "" {
		status = "set"
	}
	fmt.Printf("    %-12s %s\n", name+":", status)
}
