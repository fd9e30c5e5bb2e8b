// Package telegram wraps the Bot API client used to deliver composed
// messages. It resolves recipient handles to chat ids and keeps a small
// on-disk session cache so known handles survive restarts.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// ErrUnsupportedHandle is returned for handles the bot API cannot address,
// such as raw phone numbers.
var ErrUnsupportedHandle = errors.New("handle not addressable via bot API")

// Client is the delivery collaborator for the pipeline. All methods are
// safe for concurrent use.
type Client struct {
	bot         *telego.Bot
	sessionFile string

	mu        sync.RWMutex
	connected bool
	username  string
	chatCache map[string]int64 // lowercase @username -> chat id
}

// New creates a client for the given bot token. The session file is
// optional; when set, the handle->chat cache persists across restarts.
func New(token, sessionFile string) (*Client, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	c := &Client{
		bot:         bot,
		sessionFile: sessionFile,
		chatCache:   make(map[string]int64),
	}
	c.loadSession()
	return c, nil
}

// Connect validates the token against the Bot API and records the bot's
// own identity. It is idempotent.
func (c *Client) Connect(ctx context.Context) error {
	me, err := c.bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram auth: %w", err)
	}

	c.mu.Lock()
	c.connected = true
	c.username = me.Username
	c.mu.Unlock()

	slog.Info("telegram connected", "bot", me.Username)
	return nil
}

// Disconnect marks the client offline and flushes the session cache.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.saveSession()
}

// Connected reports whether Connect has succeeded.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Username returns the bot's own username, empty before Connect.
func (c *Client) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

// ResolveHandle maps a stored contact handle to a chat id. Numeric handles
// pass through as chat ids; @usernames hit the cache first, then the API.
// Phone numbers cannot be resolved through the bot API.
func (c *Client) ResolveHandle(ctx context.Context, handle string) (int64, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return 0, fmt.Errorf("empty handle")
	}

	// Checked before the numeric parse: ParseInt accepts a leading "+",
	// which would turn a phone number into a bogus chat id.
	if strings.HasPrefix(handle, "+") {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedHandle, handle)
	}

	if id, err := strconv.ParseInt(handle, 10, 64); err == nil {
		return id, nil
	}

	key := strings.ToLower(handle)
	c.mu.RLock()
	id, ok := c.chatCache[key]
	c.mu.RUnlock()
	if ok {
		return id, nil
	}

	chat, err := c.bot.GetChat(ctx, &telego.GetChatParams{ChatID: tu.Username(ensureAt(handle))})
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", handle, err)
	}

	c.mu.Lock()
	c.chatCache[key] = chat.ID
	c.mu.Unlock()
	c.saveSession()

	return chat.ID, nil
}

// Send resolves the handle and delivers text, returning the Telegram
// message id.
func (c *Client) Send(ctx context.Context, handle, text string) (int, error) {
	chatID, err := c.ResolveHandle(ctx, handle)
	if err != nil {
		return 0, err
	}

	msg, err := c.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text))
	if err != nil {
		return 0, fmt.Errorf("send to %s: %w", handle, err)
	}
	return msg.MessageID, nil
}

func ensureAt(handle string) string {
	if strings.HasPrefix(handle, "@") {
		return handle
	}
	return "@" + handle
}

type sessionData struct {
	ChatCache map[string]int64 `json:"chat_cache"`
}

func (c *Client) loadSession() {
	if c.sessionFile == "" {
		return
	}
	raw, err := os.ReadFile(c.sessionFile)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read telegram session", "path", c.sessionFile, "error", err)
		}
		return
	}
	var data sessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		slog.Warn("corrupt telegram session, starting fresh", "path", c.sessionFile, "error", err)
		return
	}
	c.mu.Lock()
	for k, v := range data.ChatCache {
		c.chatCache[k] = v
	}
	c.mu.Unlock()
}

func (c *Client) saveSession() {
	if c.sessionFile == "" {
		return
	}
	c.mu.RLock()
	data := sessionData{ChatCache: make(map[string]int64, len(c.chatCache))}
	for k, v := range c.chatCache {
		data.ChatCache[k] = v
	}
	c.mu.RUnlock()

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.sessionFile), 0o755); err != nil {
		slog.Warn("failed to create session dir", "error", err)
		return
	}
	if err := os.WriteFile(c.sessionFile, raw, 0o600); err != nil {
		slog.Warn("failed to write telegram session", "path", c.sessionFile, "error", err)
	}
}
