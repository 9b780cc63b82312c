package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"imchat/chatstore"
	"imchat/models"
	"imchat/provider/loopback"
)

const replHelp = `commands:
  /list                 list conversations
  /open <id|user>       select a conversation
  /show                 print the selected conversation
  /more                 load older messages
  /recv <user> <text>   simulate an incoming message
  /kick                 simulate being kicked out
  /status               show session status
  /quit                 leave
any other line is sent to the selected conversation`

// repl is the interactive sandbox prompt.
type repl struct {
	chat *chatstore.Store
	peer *loopback.Provider
	out  io.Writer
}

func newREPL(chat *chatstore.Store, peer *loopback.Provider, out io.Writer) *repl {
	return &repl{chat: chat, peer: peer, out: out}
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	r.printConversations()
	r.prompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if r.exec(ctx, line) {
				return nil
			}
			r.prompt()
		}
	}
}

// exec handles one input line and reports whether the session should end.
func (r *repl) exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		r.send(ctx, line)
		return false
	}

	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch command {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, replHelp)
	case "/list":
		r.printConversations()
	case "/open":
		r.open(ctx, rest)
	case "/show":
		r.printMessages()
	case "/more":
		if !r.chat.LoadOlderMessages(ctx) {
			fmt.Fprintln(r.out, "no older messages")
			return false
		}
		r.printMessages()
	case "/recv":
		from, text, ok := strings.Cut(rest, " ")
		if !ok || strings.TrimSpace(text) == "" {
			fmt.Fprintln(r.out, "usage: /recv <user> <text>")
			return false
		}
		r.peer.Deliver(from, strings.TrimSpace(text))
		fmt.Fprintf(r.out, "<- %s: %s\n", from, strings.TrimSpace(text))
	case "/kick":
		r.peer.EmitKickedOut()
		fmt.Fprintf(r.out, "status: %s\n", r.chat.Status())
	case "/status":
		r.printStatus()
	default:
		fmt.Fprintf(r.out, "unknown command %s (try /help)\n", command)
	}
	return false
}

func (r *repl) send(ctx context.Context, text string) {
	msg, err := r.chat.SendMessage(ctx, text)
	if err != nil {
		fmt.Fprintf(r.out, "send failed: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "-> %s [%s]\n", msg.Content, msg.Status)
}

func (r *repl) open(ctx context.Context, target string) {
	if target == "" {
		fmt.Fprintln(r.out, "usage: /open <conversation-id|user-id>")
		return
	}

	for _, conv := range r.chat.Conversations() {
		if conv.ConversationID == target || conv.ConversationID == loopback.C2CConversationID(target) {
			r.chat.SelectConversation(ctx, conv)
			r.printMessages()
			return
		}
	}
	fmt.Fprintf(r.out, "no conversation %q\n", target)
}

func (r *repl) printConversations() {
	conversations := r.chat.Conversations()
	if len(conversations) == 0 {
		fmt.Fprintln(r.out, "no conversations")
		return
	}

	current := r.chat.CurrentConversation()
	for _, conv := range conversations {
		marker := " "
		if current != nil && current.ConversationID == conv.ConversationID {
			marker = "*"
		}
		fmt.Fprintf(r.out, "%s %-16s %-10s unread=%d  %s\n",
			marker, conv.ConversationID, conv.Name, conv.UnreadCount, conv.LastMessage)
	}
}

func (r *repl) printMessages() {
	current := r.chat.CurrentConversation()
	if current == nil {
		fmt.Fprintln(r.out, "no conversation selected")
		return
	}

	fmt.Fprintf(r.out, "== %s (%s)\n", current.Name, current.ConversationID)
	for _, msg := range r.chat.CurrentMessages() {
		fmt.Fprintln(r.out, formatMessage(msg))
	}
	if r.chat.HasMoreMessages(current.ConversationID) {
		fmt.Fprintln(r.out, "(older messages available: /more)")
	}
}

func (r *repl) printStatus() {
	user := r.chat.CurrentUser()
	name := ""
	if user != nil {
		name = user.UserID
	}
	fmt.Fprintf(r.out, "user=%s logged_in=%t status=%s\n", name, r.chat.IsLogin(), r.chat.Status())
}

func (r *repl) prompt() {
	if current := r.chat.CurrentConversation(); current != nil {
		fmt.Fprintf(r.out, "%s> ", current.Name)
		return
	}
	fmt.Fprint(r.out, "> ")
}

func formatMessage(msg models.Message) string {
	arrow := "<-"
	if msg.Direction == models.DirectionSent {
		arrow = "->"
	}
	line := fmt.Sprintf("%s %s %s: %s",
		time.Unix(msg.Timestamp, 0).Format(time.TimeOnly), arrow, msg.From, msg.Content)
	if msg.Status != models.StatusSent {
		line += " [" + string(msg.Status) + "]"
	}
	return line
}
