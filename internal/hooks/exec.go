package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/soyeahso/standupbot/internal/config"
)

const defaultHookTimeout = 10 * time.Second

// RegisterCommands wires the shell hooks from config onto the manager. Each
// command runs via "sh -c" with the JSON payload on stdin and the event name
// in STANDUPBOT_EVENT.
func (m *Manager) RegisterCommands(cfg config.HooksConfig) int {
	byEvent := map[string][]config.HookEntry{
		EventBotStart:       cfg.BotStart,
		EventBotStop:        cfg.BotStop,
		EventCommandMatched: cfg.CommandMatched,
		EventSessionStart:   cfg.SessionStart,
		EventSessionEnd:     cfg.SessionEnd,
		EventSessionExpired: cfg.SessionExpired,
	}

	n := 0
	for _, event := range AllEvents {
		for i, entry := range byEvent[event] {
			name := fmt.Sprintf("config:%s:%d", event, i)
			m.On(event, name, commandHandler(entry))
			n++
		}
	}
	return n
}

func commandHandler(entry config.HookEntry) Handler {
	timeout := defaultHookTimeout
	if entry.Timeout > 0 {
		timeout = time.Duration(entry.Timeout) * time.Millisecond
	}

	return func(ctx context.Context, p Payload) error {
		input, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding hook payload: %w", err)
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, "sh", "-c", entry.Command)
		cmd.Stdin = bytes.NewReader(input)
		cmd.Env = append(cmd.Environ(), "STANDUPBOT_EVENT="+p.Event)

		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return fmt.Errorf("hook %q: %w: %s", entry.Command, err, msg)
			}
			return fmt.Errorf("hook %q: %w", entry.Command, err)
		}
		return nil
	}
}
