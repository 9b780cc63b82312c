package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"imchat/chatstore"
	"imchat/config"
	"imchat/gateway"
	"imchat/metrics"
	"imchat/models"
	"imchat/provider"
	"imchat/provider/loopback"
	"imchat/storage"
)

const (
	sandboxAppID   = 1400000000
	sandboxUserID  = "me"
	sandboxUserSig = "sandbox"
)

func init() {
	sandboxCmd.Flags().String("user", "", "local user id (defaults to the configured user)")
	sandboxCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
	sandboxCmd.Flags().Bool("no-cache", false, "do not journal confirmed history to the local cache")
	rootCmd.AddCommand(sandboxCmd)
}

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Chat interactively against an in-memory provider",
	Long: `sandbox logs in to an in-memory provider seeded with two peers and
opens an interactive prompt. Plain lines are sent to the selected
conversation; type /help for commands.`,
	Args: cobra.NoArgs,
	RunE: runSandbox,
}

func runSandbox(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	log := env.log
	defer func() { _ = log.Sync() }()

	login := sandboxLogin(env.cfg)
	if user, _ := cmd.Flags().GetString("user"); user != "" {
		login.UserID = user
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	if metricsAddr == "" {
		metricsAddr = env.cfg.MetricsAddress
	}
	if metricsAddr != "" {
		shutdown := serveMetrics(metricsAddr, registry, log)
		defer shutdown()
	}

	var journal chatstore.Journal
	noCache, _ := cmd.Flags().GetBool("no-cache")
	if env.cfg.CacheEnabled() && !noCache {
		store, dbPath, err := storage.Open(env.dataDir)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn("database close error", zap.Error(err))
			}
		}()
		log.Info("history cache opened", zap.String("path", dbPath))
		journal = store
	}

	lb := newSandboxProvider(login)
	gw, err := gateway.New(gateway.Options{
		Provider: lb,
		Logger:   log,
		Metrics:  m,
		PageSize: env.cfg.PageSize,
	})
	if err != nil {
		return err
	}
	chat, err := chatstore.New(chatstore.Options{
		Gateway: gw,
		Journal: journal,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	if err := chat.Login(ctx, login); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer func() {
		logoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := chat.Logout(logoutCtx); err != nil {
			log.Warn("logout failed", zap.Error(err))
		}
	}()

	r := newREPL(chat, lb, cmd.OutOrStdout())
	return r.run(ctx, cmd.InOrStdin())
}

// sandboxLogin fills the credentials the sandbox provider needs from the
// persisted config and the environment, falling back to fixed defaults.
func sandboxLogin(cfg *config.ClientConfig) models.LoginConfig {
	login, err := config.LoginConfig(cfg)
	if err == nil {
		return login
	}

	login = models.LoginConfig{
		SDKAppID: cfg.SDKAppID,
		UserID:   cfg.UserID,
		UserSig:  os.Getenv(config.EnvUserSig),
	}
	if login.SDKAppID <= 0 {
		login.SDKAppID = sandboxAppID
	}
	if login.UserID == "" {
		login.UserID = sandboxUserID
	}
	if login.UserSig == "" {
		login.UserSig = sandboxUserSig
	}
	return login
}

// newSandboxProvider seeds a loopback provider with the local user, two
// one-to-one peers and a short history with the first of them.
func newSandboxProvider(login models.LoginConfig) *loopback.Provider {
	lb := loopback.New(loopback.WithCredential(login.UserID, login.UserSig))

	lb.AddUser(provider.ProfileDTO{UserID: login.UserID})
	peers := []provider.ProfileDTO{
		{UserID: "bob", NickName: "Bob"},
		{UserID: "carol", NickName: "Carol"},
	}
	for _, peer := range peers {
		lb.AddUser(peer)
		lb.AddConversation(provider.ConversationDTO{
			ConversationID: loopback.C2CConversationID(peer.UserID),
			Type:           provider.ConversationC2C,
			UserProfile:    &peer,
		})
	}

	start := time.Now().Add(-time.Hour).Unix()
	greetings := []struct{ from, to, text string }{
		{"bob", login.UserID, "hey, are you around?"},
		{login.UserID, "bob", "yes, what's up"},
		{"bob", login.UserID, "lunch at noon?"},
	}
	bobConversation := loopback.C2CConversationID("bob")
	for i, g := range greetings {
		lb.AddHistory(bobConversation, provider.MessageDTO{
			ID:      fmt.Sprintf("seed-%d", i+1),
			From:    g.from,
			To:      g.to,
			Type:    provider.ElemText,
			Time:    start + int64(i*60),
			Payload: &provider.MessagePayload{Text: g.text},
		})
	}
	last := greetings[len(greetings)-1]
	lb.AddConversation(provider.ConversationDTO{
		ConversationID: bobConversation,
		Type:           provider.ConversationC2C,
		UnreadCount:    1,
		UserProfile:    &peers[0],
		LastMessage: &provider.LastMessageDTO{
			LastTime: start + int64((len(greetings)-1)*60),
			Payload:  &provider.MessagePayload{Text: last.text},
		},
	})
	return lb
}

func serveMetrics(addr string, registry *prometheus.Registry, log *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("metrics listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
