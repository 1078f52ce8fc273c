// Package gossip broadcasts commit-reveal order book traffic and published
// epoch solutions across a libp2p pubsub mesh. It is a direct descendant of
// pkg/p2p's gossip wiring, stripped of that package's leader-vote unicast and
// HotStuff view/cert machinery: there is no leader here, every node gossips
// the same three topics and reacts to whatever arrives.
package gossip

import (
	"bytes"
	"context"
	"encoding/gob"

	libp2p "github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"

	"github.com/convexfx/engine/pkg/orderbook"
	"github.com/convexfx/engine/pkg/types"
)

const (
	topicCommit   = "convexfx-commit"
	topicReveal   = "convexfx-reveal"
	topicSolution = "convexfx-solution"
)

func init() {
	gob.Register(CommitMsg{})
	gob.Register(RevealMsg{})
	gob.Register(SolutionMsg{})
}

// CommitMsg announces a trader's commitment hash for an epoch.
type CommitMsg struct {
	Epoch      types.EpochId
	Commitment orderbook.CommitmentHash
}

// RevealMsg announces the plaintext order and salt behind a prior commitment.
type RevealMsg struct {
	Epoch types.EpochId
	Order types.PairOrder
	Salt  []byte
}

// SolutionMsg announces a published clearing solution for an epoch. The
// solution itself is carried pre-encoded (gob of clearing.EpochSolution) by
// the caller so this package need not import pkg/clearing.
type SolutionMsg struct {
	Epoch       types.EpochId
	SolutionGob []byte
}

// Handlers are invoked as gossip messages for each topic arrive. A nil
// handler silently drops messages on that topic.
type Handlers struct {
	OnCommit   func(ctx context.Context, msg CommitMsg)
	OnReveal   func(ctx context.Context, msg RevealMsg)
	OnSolution func(ctx context.Context, msg SolutionMsg)
}

type Config struct {
	ListenAddr string
	Bootstrap  []string
	Logger     *zap.SugaredLogger
}

// Net is a libp2p-gossipsub broadcast fabric for the three commit-reveal
// wire messages above.
type Net struct {
	h  host.Host
	ps *pubsub.PubSub
	log *zap.SugaredLogger

	tCommit, tReveal, tSolution    *pubsub.Topic
	subCommit, subReveal, subSolution *pubsub.Subscription

	handlers Handlers
}

func New(ctx context.Context, cfg Config) (*Net, error) {
	var opts []libp2p.Option
	if cfg.ListenAddr != "" {
		maddr, err := ma.NewMultiaddr(cfg.ListenAddr)
		if err != nil {
			return nil, err
		}
		opts = append(opts, libp2p.ListenAddrs(maddr))
	}
	h, err := libp2p.New(opts...)
	if err != nil {
		return nil, err
	}
	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		return nil, err
	}

	n := &Net{h: h, ps: ps, log: cfg.Logger}

	for _, bs := range cfg.Bootstrap {
		if err := connectMultiaddr(ctx, h, bs); err != nil && cfg.Logger != nil {
			cfg.Logger.Warnw("gossip_bootstrap_failed", "addr", bs, "err", err)
		}
	}

	if err := n.joinTopics(); err != nil {
		return nil, err
	}

	go n.loop(ctx, n.subCommit, func(data []byte) {
		var m CommitMsg
		if err := gobDecode(data, &m); err == nil && n.handlers.OnCommit != nil {
			n.handlers.OnCommit(ctx, m)
		}
	})
	go n.loop(ctx, n.subReveal, func(data []byte) {
		var m RevealMsg
		if err := gobDecode(data, &m); err == nil && n.handlers.OnReveal != nil {
			n.handlers.OnReveal(ctx, m)
		}
	})
	go n.loop(ctx, n.subSolution, func(data []byte) {
		var m SolutionMsg
		if err := gobDecode(data, &m); err == nil && n.handlers.OnSolution != nil {
			n.handlers.OnSolution(ctx, m)
		}
	})

	if cfg.Logger != nil {
		cfg.Logger.Infow("gossip_ready", "peer", h.ID().String(), "listen", cfg.ListenAddr)
	}
	return n, nil
}

func connectMultiaddr(ctx context.Context, h host.Host, addr string) error {
	m, err := ma.NewMultiaddr(addr)
	if err != nil {
		return err
	}
	info, err := peer.AddrInfoFromP2pAddr(m)
	if err != nil {
		return err
	}
	return h.Connect(ctx, *info)
}

func (n *Net) joinTopics() error {
	var err error
	if n.tCommit, err = n.ps.Join(topicCommit); err != nil {
		return err
	}
	if n.tReveal, err = n.ps.Join(topicReveal); err != nil {
		return err
	}
	if n.tSolution, err = n.ps.Join(topicSolution); err != nil {
		return err
	}
	if n.subCommit, err = n.tCommit.Subscribe(); err != nil {
		return err
	}
	if n.subReveal, err = n.tReveal.Subscribe(); err != nil {
		return err
	}
	if n.subSolution, err = n.tSolution.Subscribe(); err != nil {
		return err
	}
	return nil
}

func (n *Net) SetHandlers(h Handlers) { n.handlers = h }

func (n *Net) Host() host.Host { return n.h }

func (n *Net) PublishCommit(ctx context.Context, msg CommitMsg) error {
	data, err := gobEncode(msg)
	if err != nil {
		return err
	}
	return n.tCommit.Publish(ctx, data)
}

func (n *Net) PublishReveal(ctx context.Context, msg RevealMsg) error {
	data, err := gobEncode(msg)
	if err != nil {
		return err
	}
	return n.tReveal.Publish(ctx, data)
}

func (n *Net) PublishSolution(ctx context.Context, msg SolutionMsg) error {
	data, err := gobEncode(msg)
	if err != nil {
		return err
	}
	return n.tSolution.Publish(ctx, data)
}

func (n *Net) loop(ctx context.Context, sub *pubsub.Subscription, handle func(data []byte)) {
	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			return
		}
		handle(msg.Data)
	}
}

func (n *Net) Close() error { return n.h.Close() }

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(b []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(v)
}
