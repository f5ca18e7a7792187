package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"library_project/internal/db"
	"library_project/internal/models"
	"library_project/internal/service"
)

// Bot is the chat front end of the library: catalog browsing with
// borrow/return buttons, recommendations, insights and history export.
// All state here is presentation state (page positions); the core is
// re-invoked with explicit parameters on every request.
type Bot struct {
	bot        *tgbotapi.BotAPI
	lib        *service.Library
	reportsDir string
	miniAppURL string
	adminIDs   []int64
	sessions   map[int64]*catalogSession
	sessionsMu sync.Mutex
}

// catalogSession remembers where a chat is in the paged catalog view.
type catalogSession struct {
	books     []models.Book
	held      map[int64]bool
	page      int
	pageSize  int
	messageID int
}

const (
	defaultPageSize = 8
	cbPagePrefix    = "page:"
	cbBorrowPrefix  = "borrow:"
	cbReturnPrefix  = "return:"
)

func NewBot(token string, lib *service.Library, reportsDir string, miniAppURL string, adminIDs []int64) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	bot.Debug = false
	log.Printf("authorized as %s", bot.Self.UserName)

	return &Bot{
		bot:        bot,
		lib:        lib,
		reportsDir: reportsDir,
		miniAppURL: miniAppURL,
		adminIDs:   adminIDs,
		sessions:   make(map[int64]*catalogSession),
	}, nil
}

// Start runs the update loop until the process stops.
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message != nil {
			b.handleMessage(update.Message)
		}
		if update.CallbackQuery != nil {
			b.handleCallback(update.CallbackQuery)
		}
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	ctx := context.Background()
	chatID := msg.Chat.ID

	if msg.From == nil {
		return
	}

	// Register the reader on first contact; later calls are no-ops.
	if err := b.lib.RegisterUser(ctx, msg.From.ID, msg.From.UserName); err != nil {
		log.Printf("register user error: %v", err)
		b.sendMessage(chatID, "❌ Something went wrong, try again.")
		return
	}

	if !msg.IsCommand() {
		b.sendMessage(chatID, "Use /books to browse the catalog, /recs for suggestions.")
		return
	}

	switch msg.Command() {
	case "start":
		b.sendStart(chatID)
	case "books":
		b.sendCatalog(ctx, chatID, msg.From.ID)
	case "mine":
		b.sendBorrowed(ctx, chatID, msg.From.ID)
	case "recs":
		b.sendRecommendations(ctx, chatID, msg.From.ID)
	case "top":
		b.sendInsights(ctx, chatID)
	case "export":
		b.sendHistoryExport(ctx, chatID, msg.From.ID)
	case "add":
		b.addBook(ctx, chatID, msg.From.ID, msg.CommandArguments())
	default:
		b.sendMessage(chatID, "Unknown command. Try /books, /mine, /recs, /top or /export.")
	}
}

func (b *Bot) sendStart(chatID int64) {
	text := "📚 Welcome to the library!\n\n" +
		"/books — browse the catalog and borrow\n" +
		"/mine — books you currently hold\n" +
		"/recs — recommended for you\n" +
		"/top — most borrowed books\n" +
		"/export — your borrowing history as CSV"

	msg := tgbotapi.NewMessage(chatID, text)
	if b.miniAppURL != "" {
		// The library predates web_app buttons, so the markup is built by hand.
		type webAppInfo struct {
			URL string `json:"url"`
		}
		type inlineKeyboardButton struct {
			Text   string      `json:"text"`
			WebApp *webAppInfo `json:"web_app,omitempty"`
		}
		type inlineKeyboardMarkup struct {
			InlineKeyboard [][]inlineKeyboardButton `json:"inline_keyboard"`
		}

		msg.ReplyMarkup = inlineKeyboardMarkup{
			InlineKeyboard: [][]inlineKeyboardButton{
				{
					{Text: "Open the library app", WebApp: &webAppInfo{URL: b.miniAppURL}},
				},
			},
		}
	}
	b.bot.Send(msg)
}

// sendCatalog loads a fresh catalog snapshot into the chat session and
// shows the first page.
func (b *Bot) sendCatalog(ctx context.Context, chatID int64, userID int64) {
	books, err := b.lib.Books(ctx)
	if err != nil {
		log.Printf("list books error: %v", err)
		b.sendMessage(chatID, "❌ Could not load the catalog.")
		return
	}
	if len(books) == 0 {
		b.sendMessage(chatID, "The catalog is empty.")
		return
	}

	held, err := b.lib.Borrowed(ctx, userID)
	if err != nil {
		log.Printf("borrow state error: %v", err)
		b.sendMessage(chatID, "❌ Could not load your borrow state.")
		return
	}

	b.storeSession(chatID, books, held)
	b.sendCatalogPage(chatID, 0)
}

func (b *Bot) storeSession(chatID int64, books []models.Book, held map[int64]bool) {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()

	b.sessions[chatID] = &catalogSession{
		books:    books,
		held:     held,
		page:     0,
		pageSize: defaultPageSize,
	}
}

func (b *Bot) getSession(chatID int64) (*catalogSession, bool) {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()

	session, ok := b.sessions[chatID]
	return session, ok
}

func clampPage(page, totalPages int) int {
	if totalPages <= 0 {
		return 0
	}
	if page < 0 {
		return 0
	}
	if page >= totalPages {
		return totalPages - 1
	}
	return page
}

func totalPages(total, pageSize int) int {
	if total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

func (b *Bot) buildCatalogPage(chatID int64, page int) (string, tgbotapi.InlineKeyboardMarkup, bool) {
	session, ok := b.getSession(chatID)
	if !ok || len(session.books) == 0 {
		return "", tgbotapi.InlineKeyboardMarkup{}, false
	}

	total := len(session.books)
	pages := totalPages(total, session.pageSize)
	page = clampPage(page, pages)

	start := page * session.pageSize
	end := start + session.pageSize
	if end > total {
		end = total
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, book := range session.books[start:end] {
		var text, data string
		if session.held[book.ID] {
			text = fmt.Sprintf("🟡 %s — return", book.Title)
			data = cbReturnPrefix + strconv.FormatInt(book.ID, 10)
		} else {
			text = fmt.Sprintf("🟢 %s (%s)", book.Title, book.Genre)
			data = cbBorrowPrefix + strconv.FormatInt(book.ID, 10)
		}
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(text, data),
		})
	}

	if pages > 1 {
		var navRow []tgbotapi.InlineKeyboardButton
		if page > 0 {
			navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData("⬅️", fmt.Sprintf("%s%d", cbPagePrefix, page-1)))
		}
		navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("• %d/%d •", page+1, pages),
			fmt.Sprintf("%s%d", cbPagePrefix, page),
		))
		if page < pages-1 {
			navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData("➡️", fmt.Sprintf("%s%d", cbPagePrefix, page+1)))
		}
		rows = append(rows, navRow)
	}

	b.sessionsMu.Lock()
	if session, ok := b.sessions[chatID]; ok {
		session.page = page
	}
	b.sessionsMu.Unlock()

	text := fmt.Sprintf("📚 Library collection: %d books\nPage %d/%d\n🟢 available · 🟡 in your hands", total, page+1, pages)
	return text, tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func (b *Bot) sendCatalogPage(chatID int64, page int) {
	text, markup, ok := b.buildCatalogPage(chatID, page)
	if !ok {
		b.sendMessage(chatID, "⚠️ The catalog view is stale. Send /books again.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	sent, err := b.bot.Send(msg)
	if err != nil {
		log.Printf("send catalog error: %v", err)
		return
	}

	b.sessionsMu.Lock()
	if session, ok := b.sessions[chatID]; ok {
		session.messageID = sent.MessageID
	}
	b.sessionsMu.Unlock()
}

func (b *Bot) editCatalogPage(chatID int64, messageID int, page int) {
	text, markup, ok := b.buildCatalogPage(chatID, page)
	if !ok {
		b.sendMessage(chatID, "⚠️ The catalog view is stale. Send /books again.")
		return
	}

	editText := tgbotapi.NewEditMessageText(chatID, messageID, text)
	editText.ReplyMarkup = &markup
	if _, err := b.bot.Send(editText); err != nil {
		log.Printf("edit message error: %v", err)
	}
}

func (b *Bot) sendBorrowed(ctx context.Context, chatID int64, userID int64) {
	held, err := b.lib.BorrowedBooks(ctx, userID)
	if err != nil {
		log.Printf("borrowed books error: %v", err)
		b.sendMessage(chatID, "❌ Could not load your books.")
		return
	}
	if len(held) == 0 {
		b.sendMessage(chatID, "You are not holding any books. Try /books.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, book := range held {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("📤 Return %s", book.Title),
				cbReturnPrefix+strconv.FormatInt(book.ID, 10),
			),
		})
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🟡 You currently hold %d book(s):", len(held)))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.bot.Send(msg)
}

func (b *Bot) sendRecommendations(ctx context.Context, chatID int64, userID int64) {
	list, err := b.lib.Recommend(ctx, userID)
	if err != nil {
		log.Printf("recommend error: %v", err)
		b.sendMessage(chatID, "❌ Could not compute recommendations.")
		return
	}
	if len(list) == 0 {
		b.sendMessage(chatID, "Borrow a few books first — recommendations need some activity in the library.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🎯 Recommended for you:\n\n")
	for i, rec := range list {
		fmt.Fprintf(&sb, "%d. %s\n    Genre: %s\n    %s\n", i+1, rec.Title, rec.Genre, reasonLine(rec.Reasons))
	}
	b.sendMessage(chatID, sb.String())
}

// reasonLine turns machine reason tags into the display line shown under
// each recommendation.
func reasonLine(reasons []string) string {
	var labels []string
	for _, r := range reasons {
		switch r {
		case models.ReasonPopularFallback:
			labels = append(labels, "🔥 Popular among readers")
		case models.ReasonSimilarReaders:
			labels = append(labels, "👥 Similar readers")
		case models.ReasonGenreMatch:
			labels = append(labels, "📘 Genre match")
		}
	}
	return strings.Join(labels, " · ")
}

func (b *Bot) sendInsights(ctx context.Context, chatID int64) {
	top, err := b.lib.TopPopular(ctx, 8)
	if err != nil {
		log.Printf("top popular error: %v", err)
		b.sendMessage(chatID, "❌ Could not load insights.")
		return
	}
	if len(top) == 0 {
		b.sendMessage(chatID, "No borrowing activity yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 Most borrowed books:\n\n")
	for i, row := range top {
		fmt.Fprintf(&sb, "%d. %s — %d borrow(s)\n", i+1, row.Title, row.Count)
	}
	b.sendMessage(chatID, sb.String())
}

func (b *Bot) sendHistoryExport(ctx context.Context, chatID int64, userID int64) {
	saved, err := b.lib.ExportHistory(ctx, userID, b.reportsDir)
	if err != nil {
		log.Printf("export error: %v", err)
		b.sendMessage(chatID, "❌ Could not export your history.")
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(saved.Path))
	doc.Caption = "🧾 Your borrowing history."
	if _, err := b.bot.Send(doc); err != nil {
		log.Printf("send export error: %v", err)
		b.sendMessage(chatID, "❌ Could not send the export file.")
	}
}

// addBook extends the catalog. Catalog management is restricted to admins;
// the expected argument form is "Title | Genre".
func (b *Bot) addBook(ctx context.Context, chatID int64, userID int64, args string) {
	if !b.isAdmin(userID) {
		b.sendMessage(chatID, "Only catalog managers can add books.")
		return
	}

	parts := strings.SplitN(args, "|", 2)
	if len(parts) != 2 {
		b.sendMessage(chatID, "Usage: /add Title | Genre")
		return
	}

	book, err := b.lib.AddBook(ctx, strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	if err != nil {
		log.Printf("add book error: %v", err)
		b.sendMessage(chatID, "❌ Could not add the book: "+err.Error())
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ Added %s (%s), id=%d.", book.Title, book.Genre, book.ID))
}

func (b *Bot) isAdmin(userID int64) bool {
	for _, id := range b.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}

	ctx := context.Background()
	chatID := cb.Message.Chat.ID
	data := cb.Data

	if err := b.lib.RegisterUser(ctx, cb.From.ID, cb.From.UserName); err != nil {
		log.Printf("register user error: %v", err)
		return
	}

	switch {
	case strings.HasPrefix(data, cbPagePrefix):
		b.bot.Request(tgbotapi.NewCallback(cb.ID, "Flipping…"))

		page, err := strconv.Atoi(strings.TrimPrefix(data, cbPagePrefix))
		if err != nil {
			log.Printf("invalid page callback data: %q", data)
			b.sendMessage(chatID, "⚠️ Could not switch the page.")
			return
		}
		b.editCatalogPage(chatID, cb.Message.MessageID, page)

	case strings.HasPrefix(data, cbBorrowPrefix):
		b.handleAction(ctx, cb, cbBorrowPrefix, b.lib.Borrow, "✅ Borrowed. Enjoy!")

	case strings.HasPrefix(data, cbReturnPrefix):
		b.handleAction(ctx, cb, cbReturnPrefix, b.lib.Return, "✅ Returned, thank you!")
	}
}

// handleAction runs a borrow or return for the book encoded in the callback
// and refreshes the catalog view in place.
func (b *Bot) handleAction(ctx context.Context, cb *tgbotapi.CallbackQuery, prefix string, action func(context.Context, int64, int64) error, okText string) {
	chatID := cb.Message.Chat.ID

	bookID, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, prefix), 10, 64)
	if err != nil {
		log.Printf("invalid callback data: %q", cb.Data)
		b.bot.Request(tgbotapi.NewCallback(cb.ID, "⚠️ Bad button data"))
		return
	}

	if err := action(ctx, cb.From.ID, bookID); err != nil {
		b.bot.Request(tgbotapi.NewCallback(cb.ID, actionErrorText(err)))
		log.Printf("action %s book=%d user=%d: %v", strings.TrimSuffix(prefix, ":"), bookID, cb.From.ID, err)
		return
	}
	b.bot.Request(tgbotapi.NewCallback(cb.ID, okText))

	// Refresh the held set so the catalog buttons flip state.
	held, err := b.lib.Borrowed(ctx, cb.From.ID)
	if err != nil {
		log.Printf("borrow state error: %v", err)
		return
	}

	b.sessionsMu.Lock()
	session, ok := b.sessions[chatID]
	var page, messageID int
	if ok {
		session.held = held
		page = session.page
		messageID = session.messageID
	}
	b.sessionsMu.Unlock()

	// Only redraw when the button lives on the catalog message; buttons on
	// the /mine list just get the popup answer.
	if ok && messageID == cb.Message.MessageID {
		b.editCatalogPage(chatID, messageID, page)
	}
}

func actionErrorText(err error) string {
	switch {
	case errors.Is(err, service.ErrAlreadyBorrowed):
		return "⚠️ You already hold this book"
	case errors.Is(err, service.ErrNotBorrowed):
		return "⚠️ You do not hold this book"
	case errors.Is(err, db.ErrNotFound):
		return "⚠️ This book is gone from the catalog"
	default:
		return "❌ Something went wrong"
	}
}

// sendMessage is the plain-text send helper.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	b.bot.Send(msg)
}
