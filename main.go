package main

import "github.com/kapilthakare-cyberpunk/telegram-voice-assistant/cmd"

func main() {
	cmd.Execute()
}
