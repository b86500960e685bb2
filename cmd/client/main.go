package main

import (
	"context"
	"encoding/hex"
	"flag"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cipherlink/internal/config"
	"cipherlink/internal/model"
	"cipherlink/internal/repository/participant"
	"cipherlink/internal/service/chat"
	"cipherlink/internal/transport"
	"cipherlink/internal/utils/log"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to TOML config")
		convID     = flag.String("conv", "", "conversation id (random if empty)")
		peerID     = flag.String("peer", "", "peer participant id for a direct conversation")
		groupKey   = flag.String("groupkey", "", "hex pre-shared key for a group conversation")
		admins     = flag.String("admins", "", "comma-separated admin ids for a group conversation")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	if *debug {
		log.SetLevel(zapcore.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("load config failed", zap.Error(err))
	}

	identity, err := model.NewIdentity()
	if err != nil {
		log.Fatal("generate identity failed", zap.Error(err))
	}

	ctx := context.Background()

	tr, err := buildTransport(ctx, cfg)
	if err != nil {
		log.Fatal("init transport failed", zap.Error(err))
	}

	client := chat.NewClient(identity, tr, chat.Options{
		TopicPrefix:     cfg.TopicPrefix,
		SendTimeout:     cfg.SendTimeout.Duration,
		MaxSendAttempts: cfg.MaxSendAttempts,
	})

	var repo *participant.Repo
	if cfg.MongoURI != "" {
		db, err := initMongo(cfg.MongoURI)
		if err != nil {
			log.Fatal("init mongo failed", zap.Error(err))
		}
		repo = participant.NewRepo(db)
		if err := repo.Put(ctx, client.Identity()); err != nil {
			log.Fatal("register participant failed", zap.Error(err))
		}
	}
	log.Info("participant id", zap.String("id", identity.ID))

	conversation, err := buildConversation(ctx, repo, cfg.PeerWaitTimeout.Duration, *convID, *peerID, *groupKey, *admins)
	if err != nil {
		log.Fatal("configure conversation failed", zap.Error(err))
	}

	if err := client.RegisterConversation(conversation); err != nil {
		log.Fatal("register conversation failed", zap.Error(err))
	}
	if err := client.Join(ctx, conversation.ID); err != nil {
		log.Fatal("join conversation failed", zap.Error(err))
	}
	log.Info("joined conversation", zap.String("conversation", conversation.ID))

	ui := newUI(client, conversation.ID, identity.ID)
	ui.run()

	client.Close()
	tr.Close()
}

func buildTransport(ctx context.Context, cfg *config.Config) (transport.Transport, error) {
	switch cfg.Transport {
	case "redis":
		var lastErr error
		for _, addr := range bootstrapCandidates(cfg.BootstrapPeers, cfg.RedisAddr) {
			rdb := redis.NewClient(&redis.Options{
				Addr: addr,
			})
			tr := transport.NewRedisTransport(rdb)
			if err := tr.WaitReady(ctx, cfg.PeerWaitTimeout.Duration); err != nil {
				lastErr = err
				rdb.Close()
				continue
			}
			return tr, nil
		}
		return nil, lastErr
	case "relay":
		var lastErr error
		for _, url := range bootstrapCandidates(cfg.BootstrapPeers, cfg.RelayURL) {
			dialCtx, cancel := context.WithTimeout(ctx, cfg.PeerWaitTimeout.Duration)
			tr, err := transport.DialRelay(dialCtx, url)
			cancel()
			if err != nil {
				lastErr = err
				continue
			}
			return tr, nil
		}
		return nil, lastErr
	default:
		return transport.NewMemoryBus(), nil
	}
}

// bootstrapCandidates prefers the configured bootstrap peer list and falls
// back to the single default address.
func bootstrapCandidates(peers []string, fallback string) []string {
	if len(peers) > 0 {
		return peers
	}
	return []string{fallback}
}

func buildConversation(ctx context.Context, repo *participant.Repo, wait time.Duration, convID, peerID, groupKey, admins string) (*model.ConversationConfig, error) {
	if convID == "" {
		convID = uuid.NewString()
	}

	if groupKey != "" {
		key, err := hex.DecodeString(groupKey)
		if err != nil {
			return nil, err
		}
		cfg := &model.ConversationConfig{
			ID:        convID,
			Kind:      model.ConversationGroup,
			SharedKey: key,
		}
		if admins != "" {
			cfg.Admins = strings.Split(admins, ",")
		}
		return cfg, nil
	}

	peer, err := waitForPeer(ctx, repo, peerID, wait)
	if err != nil {
		return nil, err
	}
	return &model.ConversationConfig{
		ID:   convID,
		Kind: model.ConversationDirect,
		Peer: peer,
	}, nil
}

// waitForPeer polls the directory until the peer has published its keys.
func waitForPeer(ctx context.Context, repo *participant.Repo, peerID string, wait time.Duration) (*model.Participant, error) {
	if repo == nil {
		return nil, &peerLookupError{peerID: peerID, reason: "no participant directory configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	for {
		peer, err := repo.Get(ctx, peerID)
		if err != nil {
			return nil, err
		}
		if peer != nil {
			return peer, nil
		}
		select {
		case <-ctx.Done():
			return nil, &peerLookupError{peerID: peerID, reason: "not found before deadline"}
		case <-time.After(time.Second):
		}
	}
}

type peerLookupError struct {
	peerID string
	reason string
}

func (e *peerLookupError) Error() string {
	return "peer " + e.peerID + ": " + e.reason
}

func initMongo(uri string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client.Database("cipherlink"), nil
}
