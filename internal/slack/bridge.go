package slack

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/af-corp/shipsense/internal/httputil"
	"github.com/af-corp/shipsense/internal/telemetry"
	"github.com/af-corp/shipsense/internal/types"
)

// OffTopicReply is posted instead of an answer when a message names no
// DevOps topic.
const OffTopicReply = "This Slack integration only answers DevOps/CI/CD topics (Terraform, Ansible, Jenkins, Argo, Kubernetes, Helm, DevSecOps)."

// SlashCommand is the command name the bridge answers.
const SlashCommand = "/shipsense"

const (
	maxBodyBytes  = 1 << 20
	noResponse    = "(no response)"
	answerFailure = "Error generating response: "
)

var mention = regexp.MustCompile(`<@[^>]+>`)

// Answerer produces the chat reply for a Slack prompt.
type Answerer interface {
	Chat(ctx context.Context, req types.ChatRequest) (types.ChatReply, error)
}

// BridgeOptions wires a Bridge. SigningSecret and Allowed are read per
// request so reloaded config applies without a restart.
type BridgeOptions struct {
	Client        *Client
	Answerer      Answerer
	Allowed       func(text string) bool
	SigningSecret func() string
	AnswerTimeout time.Duration
	// Dispatch runs one reply job. Nil starts a goroutine per job.
	Dispatch func(job func())
	Logger   *slog.Logger
}

// Bridge serves POST /slack/events. Requests are acknowledged right away
// and the answer is posted back through the Web API, since Slack retries
// anything not acknowledged within three seconds.
type Bridge struct {
	client        *Client
	answerer      Answerer
	allowed       func(string) bool
	secret        func() string
	answerTimeout time.Duration
	dispatch      func(func())
	logger        *slog.Logger
	now           func() time.Time
}

func NewBridge(opts BridgeOptions) *Bridge {
	b := &Bridge{
		client:        opts.Client,
		answerer:      opts.Answerer,
		allowed:       opts.Allowed,
		secret:        opts.SigningSecret,
		answerTimeout: opts.AnswerTimeout,
		dispatch:      opts.Dispatch,
		logger:        opts.Logger,
		now:           time.Now,
	}
	if b.allowed == nil {
		b.allowed = func(string) bool { return true }
	}
	if b.answerTimeout <= 0 {
		b.answerTimeout = 3 * time.Minute
	}
	if b.dispatch == nil {
		b.dispatch = func(job func()) { go job() }
	}
	return b
}

type envelope struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Event     *event `json:"event"`
}

type event struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Channel  string `json:"channel"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts"`
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}
	if len(body) > maxBodyBytes {
		http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
		return
	}

	if err := Verify(b.secret(), r.Header.Get(HeaderTimestamp), r.Header.Get(HeaderSignature), body, b.now()); err != nil {
		b.logger.Warn("slack request rejected",
			"request_id", telemetry.RequestID(r.Context()),
			"error", err,
		)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var env envelope
	if json.Unmarshal(body, &env) == nil {
		b.handleEvent(w, r, env)
		return
	}
	b.handleCommand(w, r, body)
}

func (b *Bridge) handleEvent(w http.ResponseWriter, r *http.Request, env envelope) {
	switch {
	case env.Type == "url_verification":
		httputil.WriteJSON(w, "", http.StatusOK, map[string]string{"challenge": env.Challenge})
		return
	case env.Type != "event_callback" || env.Event == nil:
	case env.Event.Type != "app_mention" || env.Event.Text == "" || env.Event.Channel == "":
	case r.Header.Get(headerRetryNum) != "":
		// The first delivery was acknowledged and is already being answered.
		writeText(w, http.StatusOK, "ok")
		return
	default:
		ev := env.Event
		prompt := strings.TrimSpace(mention.ReplaceAllString(ev.Text, ""))
		thread := ev.ThreadTS
		if thread == "" {
			thread = ev.TS
		}
		b.reply(r.Context(), Message{Channel: ev.Channel, ThreadTS: thread}, prompt)
		writeText(w, http.StatusOK, "ok")
		return
	}
	writeText(w, http.StatusOK, "ignored")
}

func (b *Bridge) handleCommand(w http.ResponseWriter, r *http.Request, body []byte) {
	form, err := url.ParseQuery(string(body))
	if err != nil || form.Get("command") != SlashCommand {
		writeText(w, http.StatusOK, "ignored")
		return
	}

	channel, err := b.client.ResolveChannel(r.Context(), form.Get("channel_id"))
	if err != nil {
		writeText(w, http.StatusBadRequest, "Channel error: "+err.Error())
		return
	}
	b.reply(r.Context(), Message{Channel: channel}, form.Get("text"))
	writeText(w, http.StatusOK, "ok")
}

// reply answers prompt and posts the result to msg's channel. The job
// outlives the Slack request, so it keeps the request's values but not its
// cancellation.
func (b *Bridge) reply(parent context.Context, msg Message, prompt string) {
	base := context.WithoutCancel(parent)
	b.dispatch(func() {
		ctx, cancel := context.WithTimeout(base, b.answerTimeout)
		defer cancel()

		msg.Text = b.answer(ctx, prompt)
		if err := b.client.PostMessage(ctx, msg); err != nil {
			b.logger.Error("slack reply failed",
				"request_id", telemetry.RequestID(ctx),
				"channel", msg.Channel,
				"error", err,
			)
		}
	})
}

func (b *Bridge) answer(ctx context.Context, prompt string) string {
	if !b.allowed(prompt) {
		return OffTopicReply
	}
	out, err := b.answerer.Chat(ctx, types.ChatRequest{Message: prompt})
	if err != nil {
		return answerFailure + err.Error()
	}
	if out.Output == "" {
		return noResponse
	}
	return out.Output
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, body)
}
