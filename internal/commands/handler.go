package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ad-rewards-go/internal/metrics"
	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	CommandStart           = "start"
	CommandHelp            = "help"
	CommandUnsub           = "unsub"
	CommandBalance         = "balance"
	CommandWithdraw        = "withdraw"
	CommandAds             = "ads"
	CommandAddAd           = "addad"
	CommandApproveWithdraw = "approve_withdraw"
	CommandStats           = "stats"
)

const (
	msgInternalError = "⚠️ Something went wrong, please try again later."
	usageAddAd       = "Usage: /addad <text> <url> <reward>"
	usageApprove     = "Usage: /approve_withdraw <request_id>"
)

// Ledger is the subset of the ledger service the command protocol drives
type Ledger interface {
	Subscribe(ctx context.Context, userId int64) (bool, error)
	Unsubscribe(ctx context.Context, userId int64) (bool, error)
	GetBalance(ctx context.Context, userId int64) (decimal.Decimal, error)
	RequestWithdrawal(ctx context.Context, userId int64) (*models.WithdrawalRequest, error)
	ListRecentAds(ctx context.Context, n int) ([]models.Ad, error)
	AddAd(ctx context.Context, text, destination string, reward decimal.Decimal) (*models.Ad, error)
	ApproveWithdrawal(ctx context.Context, requestId int64) (*models.WithdrawalRequest, error)
	Stats(ctx context.Context) (*models.Stats, error)
	MinWithdrawal() decimal.Decimal
	FormatAmount(amount decimal.Decimal) string
}

// AdminPolicy reports whether the caller may run admin commands
type AdminPolicy func(userId int64) bool

// StaticAdmin allows exactly one pre-configured identity
func StaticAdmin(adminId int64) AdminPolicy {
	return func(userId int64) bool {
		return userId == adminId
	}
}

// Request is one inbound command. Command carries no leading slash.
type Request struct {
	CallerId int64
	Command  string
	Args     []string
}

// Reply is one outbound message. LinkURL, when set, is rendered as a button labelled LinkLabel.
type Reply struct {
	Text      string
	LinkLabel string
	LinkURL   string
}

type Handler struct {
	ledger  Ledger
	isAdmin AdminPolicy
	baseURL string
	adLimit int
	metrics *metrics.Metrics
}

func NewHandler(ledger Ledger, isAdmin AdminPolicy, baseURL string, adLimit int, m *metrics.Metrics) *Handler {
	return &Handler{
		ledger:  ledger,
		isAdmin: isAdmin,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		adLimit: adLimit,
		metrics: m,
	}
}

// Handle runs one command and returns the replies to send back, in order.
// Unknown commands and admin commands from non-admins produce no replies.
func (h *Handler) Handle(ctx context.Context, req Request) []Reply {
	var replies []Reply

	switch req.Command {
	case CommandStart:
		replies = h.start(ctx, req)
	case CommandHelp:
		replies = text(helpText)
	case CommandUnsub:
		replies = h.unsub(ctx, req)
	case CommandBalance:
		replies = h.balance(ctx, req)
	case CommandWithdraw:
		replies = h.withdraw(ctx, req)
	case CommandAds:
		replies = h.ads(ctx, req)
	case CommandAddAd, CommandApproveWithdraw, CommandStats:
		if !h.isAdmin(req.CallerId) {
			zap.L().Debug("Ignoring admin command from non-admin",
				zap.String("command", req.Command),
				zap.Int64("caller_id", req.CallerId))
			return nil
		}
		replies = h.admin(ctx, req)
	default:
		return nil
	}

	h.metrics.ObserveCommand(req.Command)
	return replies
}

func (h *Handler) admin(ctx context.Context, req Request) []Reply {
	switch req.Command {
	case CommandAddAd:
		return h.addAd(ctx, req)
	case CommandApproveWithdraw:
		return h.approveWithdraw(ctx, req)
	default:
		return h.stats(ctx)
	}
}

const helpText = "/start - subscribe\n" +
	"/help - show commands\n" +
	"/ads - browse ads\n" +
	"/unsub - unsubscribe\n" +
	"/balance - show your balance\n" +
	"/withdraw - request a withdrawal"

func (h *Handler) start(ctx context.Context, req Request) []Reply {
	if _, err := h.ledger.Subscribe(ctx, req.CallerId); err != nil {
		return h.internalError(req, err)
	}
	return text("✅ Subscribed! Send /help to see the commands.")
}

func (h *Handler) unsub(ctx context.Context, req Request) []Reply {
	if _, err := h.ledger.Unsubscribe(ctx, req.CallerId); err != nil {
		return h.internalError(req, err)
	}
	return text("❌ You have unsubscribed.")
}

func (h *Handler) balance(ctx context.Context, req Request) []Reply {
	balance, err := h.ledger.GetBalance(ctx, req.CallerId)
	if err != nil {
		return h.internalError(req, err)
	}
	return text("💰 Your balance: " + h.ledger.FormatAmount(balance))
}

func (h *Handler) withdraw(ctx context.Context, req Request) []Reply {
	request, err := h.ledger.RequestWithdrawal(ctx, req.CallerId)
	if errors.Is(err, store.ErrInsufficientBalance) {
		return text(fmt.Sprintf("⚠️ Balance too low. At least %s is required.", h.ledger.FormatAmount(h.ledger.MinWithdrawal())))
	}
	if err != nil {
		return h.internalError(req, err)
	}
	return text(fmt.Sprintf("✅ Withdraw request #%d for %s sent. Admin approval is required.",
		request.Id, h.ledger.FormatAmount(request.Amount)))
}

func (h *Handler) ads(ctx context.Context, req Request) []Reply {
	ads, err := h.ledger.ListRecentAds(ctx, h.adLimit)
	if err != nil {
		return h.internalError(req, err)
	}
	if len(ads) == 0 {
		return text("No ads available right now.")
	}

	replies := make([]Reply, 0, len(ads))
	for _, ad := range ads {
		replies = append(replies, Reply{
			Text:      ad.Text,
			LinkLabel: "🔗 Open",
			LinkURL:   ClickURL(h.baseURL, req.CallerId, ad.Id),
		})
	}
	return replies
}

func (h *Handler) addAd(ctx context.Context, req Request) []Reply {
	adText, destination, reward, err := ParseAddAdArgs(req.Args)
	if err != nil {
		return text(fmt.Sprintf("Error: %v\n%s", err, usageAddAd))
	}

	ad, err := h.ledger.AddAd(ctx, adText, destination, reward)
	if errors.Is(err, store.ErrInvalidAd) {
		return text(fmt.Sprintf("Error: %v\n%s", err, usageAddAd))
	}
	if err != nil {
		return h.internalError(req, err)
	}
	return text(fmt.Sprintf("✅ Ad #%d added!", ad.Id))
}

func (h *Handler) approveWithdraw(ctx context.Context, req Request) []Reply {
	if len(req.Args) != 1 {
		return text("Error: request id is required\n" + usageApprove)
	}
	requestId, err := strconv.ParseInt(req.Args[0], 10, 64)
	if err != nil {
		return text(fmt.Sprintf("Error: invalid request id %q\n%s", req.Args[0], usageApprove))
	}

	_, err = h.ledger.ApproveWithdrawal(ctx, requestId)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return text(fmt.Sprintf("Error: withdraw request %d not found.", requestId))
	case errors.Is(err, store.ErrAlreadyApproved):
		return text(fmt.Sprintf("Error: withdraw request %d is already approved.", requestId))
	case err != nil:
		return h.internalError(req, err)
	}
	return text(fmt.Sprintf("✅ Withdraw request %d approved.", requestId))
}

func (h *Handler) stats(ctx context.Context) []Reply {
	stats, err := h.ledger.Stats(ctx)
	if err != nil {
		zap.L().Error("Failed to load stats", zap.Error(err))
		return text(msgInternalError)
	}
	return text(fmt.Sprintf("📊 Users: %d\n📊 Ads: %d", stats.Users, stats.Ads))
}

func (h *Handler) internalError(req Request, err error) []Reply {
	zap.L().Error("Command failed",
		zap.String("command", req.Command),
		zap.Int64("caller_id", req.CallerId),
		zap.Error(err))
	return text(msgInternalError)
}

// ParseAddAdArgs splits "<text...> <destination> <reward>". The last token is
// the reward, the one before it the destination, and the rest is joined as text.
func ParseAddAdArgs(args []string) (string, string, decimal.Decimal, error) {
	if len(args) < 2 {
		return "", "", decimal.Zero, fmt.Errorf("%w: destination and reward are required", store.ErrInvalidInput)
	}

	rawReward := args[len(args)-1]
	reward, err := decimal.NewFromString(rawReward)
	if err != nil {
		return "", "", decimal.Zero, fmt.Errorf("%w: reward %q is not a number", store.ErrInvalidInput, rawReward)
	}

	destination := args[len(args)-2]
	adText := strings.Join(args[:len(args)-2], " ")
	return adText, destination, reward, nil
}

// ClickURL builds the engagement link for a user and ad
func ClickURL(baseURL string, userId, adId int64) string {
	return fmt.Sprintf("%s/click?user_id=%d&ad_id=%d", strings.TrimSuffix(baseURL, "/"), userId, adId)
}

func text(s string) []Reply {
	return []Reply{{Text: s}}
}
