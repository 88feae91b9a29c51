package command

import (
	"fmt"
	"strings"
)

// HelpText is posted in reply to any message containing "help".
const HelpText = "Here are some things I can do:\n" +
	"    - type help to see this message\n" +
	"    - type \"Standup for: <comma separated members list>\" to start recording the standup"

// PromptText is sent privately to every standup participant.
const PromptText = "Hey! It's standup time! Please answer:\n" +
	"1. What are you working on?\n" +
	"2. Do you encounter any problems?\n" +
	"3. What are your plans for later?"

// SummaryText announces which participants were prompted.
func SummaryText(handles []string) string {
	return "Be right back! Gathering feedback from " + strings.Join(handles, ", ")
}

// RelayText carries a participant's reply back to the origin channel.
func RelayText(author, reply string) string {
	return fmt.Sprintf("Here is the standup from %s\n%s", author, reply)
}
