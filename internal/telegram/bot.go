package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"ai-vacation-planner/internal/app"
	"ai-vacation-planner/internal/config"
	"ai-vacation-planner/internal/trip"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot wraps the Telegram API and the vacation planner core. Free text is
// treated as a planning request; booking happens only through the inline
// confirmation keyboard attached to a proposal.
type Bot struct {
	api *tgbotapi.BotAPI
	app *app.App
	cfg *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, application *app.App) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{api: bot, app: application, cfg: cfg}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.CallbackQuery != nil {
		if b.isAllowed(update.CallbackQuery.From.ID) {
			b.handleCallbackQuery(update.CallbackQuery)
		}
		return
	}

	if update.Message == nil {
		return
	}

	if !b.isAllowed(update.Message.From.ID) {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) isAllowed(userID int64) bool {
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if userID == id {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	if msg.Text == "/metrics" {
		b.handleMetricsRequest(msg)
		return
	}
	b.handlePlanningRequest(msg)
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "⛔ *Access Denied*: Admin only."))
		return
	}
	b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, b.app.Metrics().Summary(7)))
}

func (b *Bot) handlePlanningRequest(msg *tgbotapi.Message) {
	statusText := "✈️ *Thinking...* \n(Checking your calendar and searching flights and hotels)"
	replyMsg := tgbotapi.NewMessage(msg.Chat.ID, statusText)
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	ctx := context.Background()
	userID := fmt.Sprintf("%d", msg.From.ID)
	log.Printf("Planning request from user %s: %s", userID, msg.Text)

	plan, err := b.app.PlanVacation(ctx, userID, msg.Text)
	if err != nil {
		b.editPlain(msg.Chat.ID, sentMsg.MessageID, planErrorText(err))
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Book it", "book|"+plan.ID),
			tgbotapi.NewInlineKeyboardButtonData("❌ Dismiss", "dismiss|"+plan.ID),
		),
	)

	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, sentMsg.MessageID, formatPlan(plan))
	edit.ParseMode = "Markdown"
	edit.ReplyMarkup = &keyboard
	b.api.Send(edit)
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	userID := fmt.Sprintf("%d", query.From.ID)
	parts := strings.Split(query.Data, "|")
	if len(parts) != 2 {
		return
	}
	action, planID := parts[0], parts[1]

	// Answer callback to remove the spinner
	b.api.Request(tgbotapi.NewCallback(query.ID, ""))

	var finalText string
	switch action {
	case "book":
		bk, err := b.app.ConfirmBooking(planID, userID)
		if err != nil {
			finalText = bookingErrorText(err)
			break
		}
		finalText = fmt.Sprintf(
			"🎉 *Booked!*\n\nFlight confirmation: `%s`\nHotel confirmation: `%s`\nTotal charged: %.2f %s",
			bk.FlightConfirmationCode, bk.HotelConfirmationCode, bk.TotalCharged, bk.Currency)
	case "dismiss":
		if err := b.app.CancelPlan(planID, userID); err != nil {
			finalText = bookingErrorText(err)
			break
		}
		finalText = "🗑️ Proposal dismissed. Send a new request whenever you like."
	default:
		return
	}

	edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, finalText)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func (b *Bot) editPlain(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func planErrorText(err error) string {
	var clarification *trip.ClarificationError
	var validation *trip.ValidationError
	switch {
	case errors.As(err, &clarification):
		if clarification.Question != "" {
			return "🤔 " + clarification.Question
		}
		return "🤔 I need a bit more detail. Where do you want to go, and for how long?"
	case errors.As(err, &validation):
		return "❌ I couldn't fit a plan within your constraints:\n" + strings.Join(validation.Violations, "\n")
	case errors.Is(err, trip.ErrUpstreamUnavailable):
		return "⏳ The planning service is unavailable right now. Please try again in a moment."
	default:
		log.Printf("Planning failed: %v", err)
		return "❌ Something went wrong while planning. Please try again."
	}
}

func bookingErrorText(err error) string {
	switch {
	case errors.Is(err, trip.ErrInvalidState):
		return "⚠️ That proposal is no longer active. Ask for a new plan first."
	case errors.Is(err, trip.ErrNotFound):
		return "⚠️ I couldn't find that proposal anymore."
	default:
		log.Printf("Booking action failed: %v", err)
		return "❌ Something went wrong. Please try again."
	}
}

func formatPlan(plan *trip.VacationPlan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🌴 *Trip to %s*\n", plan.Destination)
	if len(plan.Days) > 0 {
		r := plan.Range()
		fmt.Fprintf(&sb, "%s → %s (%d days)\n\n", r.Start, r.End, len(plan.Days))
	}
	for i, day := range plan.Days {
		fmt.Fprintf(&sb, "*Day %d — %s*\n", i+1, day.Date)
		for _, seg := range day.Segments {
			fmt.Fprintf(&sb, "  • %s (%.2f %s)\n", seg.Description, seg.Cost, plan.Currency)
		}
	}
	fmt.Fprintf(&sb, "\n*Total: %.2f %s*\n\nShall I book it?", plan.TotalCost, plan.Currency)
	return sb.String()
}
