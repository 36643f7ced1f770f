// Package bot implements the Telegram surface: plate intake, inline
// keyboards, and screenshot job orchestration.
package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/platewatch/scoreshot/internal/capture"
	"github.com/platewatch/scoreshot/internal/metrics"
	"github.com/platewatch/scoreshot/internal/plate"
	"github.com/platewatch/scoreshot/internal/probe"
	"github.com/platewatch/scoreshot/internal/session"
)

// Sender is the slice of the Telegram API the bot uses. Implemented by
// *tgbotapi.BotAPI, faked in tests.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// ArtifactStore issues and reclaims temp screenshot paths.
type ArtifactStore interface {
	NewPath(vrm string) (string, error)
	Remove(path string) error
}

// Prober answers whether the score site is reachable, for /status.
type Prober interface {
	Check(ctx context.Context) (probe.Result, error)
}

// Clock supplies timestamps for session state.
type Clock interface {
	Now() time.Time
}

// callbackScreenshot is the datum carried by the screenshot button.
const callbackScreenshot = "shot"

const statusProbeTimeout = 10 * time.Second

// Update kinds and plate results as recorded in metrics.
const (
	kindMessage  = "message"
	kindCommand  = "command"
	kindCallback = "callback"
	kindIgnored  = "ignored"

	plateAccepted = "accepted"
	plateRejected = "rejected"
)

// Bot consumes Telegram updates and turns accepted plates into score
// links and screenshot jobs.
type Bot struct {
	sender    Sender
	updates   <-chan tgbotapi.Update
	rules     plate.Rules
	links     plate.LinkBuilder
	engine    capture.Engine
	artifacts ArtifactStore
	sessions  *session.Store
	prober    Prober
	clock     Clock
	logger    *zap.Logger

	wg sync.WaitGroup
}

// New constructs a Bot.
func New(
	sender Sender,
	updates <-chan tgbotapi.Update,
	rules plate.Rules,
	links plate.LinkBuilder,
	engine capture.Engine,
	artifacts ArtifactStore,
	sessions *session.Store,
	prober Prober,
	clock Clock,
	logger *zap.Logger,
) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		sender:    sender,
		updates:   updates,
		rules:     rules,
		links:     links,
		engine:    engine,
		artifacts: artifacts,
		sessions:  sessions,
		prober:    prober,
		clock:     clock,
		logger:    logger,
	}
}

// Run consumes updates until the context finishes or the channel
// closes, then waits for in-flight capture jobs. Message handling is
// sequential; captures run in their own goroutines.
func (b *Bot) Run(ctx context.Context) {
	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("update loop stopped", zap.Int("open_sessions", b.sessions.Len()))
			return
		case update, ok := <-b.updates:
			if !ok {
				b.logger.Info("update channel closed")
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		metrics.ObserveUpdate(kindCommand)
		b.handleCommand(ctx, update.Message)
	case update.Message != nil:
		metrics.ObserveUpdate(kindMessage)
		b.handleMessage(update.Message)
	case update.CallbackQuery != nil:
		metrics.ObserveUpdate(kindCallback)
		b.handleCallback(ctx, update.CallbackQuery)
	default:
		metrics.ObserveUpdate(kindIgnored)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.reply(msg.Chat.ID, welcomeText)
	case "status":
		b.handleStatus(ctx, msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, unknownCommandText)
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	vrm := plate.Normalize(msg.Text)
	if !b.rules.Valid(vrm) {
		metrics.ObservePlate(plateRejected)
		minLen, maxLen := b.rules.Bounds()
		b.reply(msg.Chat.ID, fmt.Sprintf(
			"That doesn't look like a registration mark. Send %d to %d letters and digits, like VN64NWG.",
			minLen, maxLen))
		return
	}
	metrics.ObservePlate(plateAccepted)

	link := b.links.ScoreURL(vrm)
	b.sessions.Put(msg.Chat.ID, session.State{VRM: vrm, URL: link, SavedAt: b.clock.Now()})

	reply := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf("Plate: %s", vrm))
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📸 Screenshot", callbackScreenshot),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔗 Open link", link),
		),
	)
	if _, err := b.sender.Send(reply); err != nil {
		b.logger.Error("send keyboard failed", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		return
	}
	b.logger.Debug("plate accepted", zap.String("vrm", vrm), zap.Int64("chat_id", msg.Chat.ID))
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64) {
	probeCtx, cancel := context.WithTimeout(ctx, statusProbeTimeout)
	defer cancel()

	res, err := b.prober.Check(probeCtx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Score site check failed: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Score site is reachable: HTTP %d in %d ms.",
		res.StatusCode, res.Latency.Milliseconds()))
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// Answer immediately so the client stops its spinner, whatever
	// happens next.
	if _, err := b.sender.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.Warn("answer callback failed", zap.Error(err))
	}
	if cq.Data != callbackScreenshot {
		b.logger.Debug("ignoring unknown callback", zap.String("data", cq.Data))
		return
	}
	if cq.Message == nil {
		b.logger.Warn("callback without source message")
		return
	}

	chatID := cq.Message.Chat.ID
	st, ok := b.sessions.Get(chatID)
	if !ok {
		b.edit(chatID, cq.Message.MessageID, noSessionText)
		return
	}

	b.edit(chatID, cq.Message.MessageID, fmt.Sprintf("Taking a screenshot of %s...", st.VRM))
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.runCapture(ctx, chatID, cq.Message.MessageID, st)
	}()
}

// runCapture owns one screenshot job end to end: a unique artifact
// path, the browser run, photo delivery, and cleanup.
func (b *Bot) runCapture(ctx context.Context, chatID int64, messageID int, st session.State) {
	metrics.IncActiveCaptures()
	defer metrics.DecActiveCaptures()
	start := time.Now()

	dest, err := b.artifacts.NewPath(st.VRM)
	if err != nil {
		metrics.ObserveCapture(metrics.OutcomeError, time.Since(start))
		b.logger.Error("artifact path failed", zap.String("vrm", st.VRM), zap.Error(err))
		b.edit(chatID, messageID, captureFailedText(st))
		return
	}
	defer b.removeArtifact(dest)

	if err := b.engine.Capture(ctx, st.URL, dest); err != nil {
		metrics.ObserveCapture(metrics.OutcomeError, time.Since(start))
		b.logger.Error("capture failed",
			zap.String("vrm", st.VRM), zap.String("url", st.URL), zap.Error(err))
		b.edit(chatID, messageID, captureFailedText(st))
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(dest))
	photo.Caption = fmt.Sprintf("%s\n%s", st.VRM, st.URL)
	if _, err := b.sender.Send(photo); err != nil {
		metrics.ObserveCapture(metrics.OutcomeError, time.Since(start))
		b.logger.Error("send photo failed", zap.Int64("chat_id", chatID), zap.Error(err))
		b.edit(chatID, messageID, captureFailedText(st))
		return
	}

	metrics.ObserveCapture(metrics.OutcomeOK, time.Since(start))
	b.logger.Info("screenshot delivered",
		zap.String("vrm", st.VRM),
		zap.Int64("chat_id", chatID),
		zap.Duration("took", time.Since(start)))
}

// removeArtifact is best-effort: the photo is already with the user, so
// a leftover file is only worth a warning. A missing file is not even
// that; captures that failed before the write leave nothing behind.
func (b *Bot) removeArtifact(path string) {
	if err := b.artifacts.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		b.logger.Warn("artifact cleanup failed", zap.String("path", path), zap.Error(err))
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error("send message failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	if _, err := b.sender.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		b.logger.Warn("edit message failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

const (
	welcomeText = "Send me a UK registration mark, for example VN64NWG, " +
		"and I'll fetch the vehicle's score page for you."
	unknownCommandText = "Unknown command. Send a registration mark like VN64NWG, " +
		"or /status to check the score site."
	noSessionText = "Send me a registration mark first."
)

func captureFailedText(st session.State) string {
	return fmt.Sprintf("Couldn't capture %s. You can open the page yourself:\n%s", st.VRM, st.URL)
}
