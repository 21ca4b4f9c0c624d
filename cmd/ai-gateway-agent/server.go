package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/looplj/ai-gateway-agent/gateway/pipeline"
	"github.com/looplj/ai-gateway-agent/gateway/protocol"
	"github.com/looplj/ai-gateway-agent/internal/log"
	"github.com/looplj/ai-gateway-agent/internal/tracing"
)

// Server is the reference transport: one newline-delimited JSON envelope
// per line, in and out, over a Unix socket or TCP listener. It exists so
// the inspection core in gateway/pipeline is reachable end to end; it is
// not the envelope a production collaborator actually speaks.
type Server struct {
	cfg          BootConfig
	orchestrator *pipeline.Orchestrator

	listener net.Listener
}

// New builds a Server bound to cfg's network/address, dispatching every
// decoded event to orchestrator.
func New(cfg BootConfig, orchestrator *pipeline.Orchestrator) *Server {
	return &Server{cfg: cfg, orchestrator: orchestrator}
}

// Run listens and serves connections until the listener is closed by
// Shutdown, supervising the accept loop and every per-connection handler
// under one errgroup. Handlers report no errors; an accept failure other
// than a closed listener cancels the group's context and is returned once
// every open connection has finished.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen(s.cfg.Network, s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen on %s:%s: %w", s.cfg.Network, s.cfg.Address, err)
	}

	s.listener = listener

	log.Info(ctx, "ai-gateway-agent listening",
		log.String("network", s.cfg.Network),
		log.String("address", s.cfg.Address))

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return s.acceptLoop(groupCtx, group)
	})

	return group.Wait()
}

func (s *Server) acceptLoop(ctx context.Context, group *errgroup.Group) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("accept connection: %w", err)
		}

		group.Go(func() error {
			s.handleConn(ctx, conn)
			return nil
		})
	}
}

// Shutdown closes the listener, unblocking Accept so Run's errgroup can
// drain. It does not forcibly close in-flight connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}

	return s.listener.Close()
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		var env envelope
		if err := json.Unmarshal(scanner.Bytes(), &env); err != nil {
			log.Warn(ctx, "malformed envelope", log.Cause(err))
			continue
		}

		resp := s.dispatch(ctx, env)

		if err := encoder.Encode(toWireResponse(resp)); err != nil {
			log.Warn(ctx, "failed to write response", log.Cause(err))
			return
		}
	}

	if err := scanner.Err(); err != nil {
		log.Warn(ctx, "connection read error", log.Cause(err))
	}
}

func (s *Server) dispatch(ctx context.Context, env envelope) protocol.Response {
	reqCtx := tracing.WithOperationName(ctx, env.Type)
	if env.CorrelationID != "" {
		reqCtx = tracing.WithCorrelationID(reqCtx, env.CorrelationID)
	}

	switch env.Type {
	case "configure":
		return s.orchestrator.OnConfigure(env.toConfigureEvent())
	case "headers":
		return s.orchestrator.OnHeaders(env.toHeadersEvent())
	case "body_chunk":
		chunk, err := env.toBodyChunkEvent()
		if err != nil {
			log.Warn(reqCtx, "malformed body chunk", log.Cause(err))
			return protocol.Allow()
		}

		return s.orchestrator.OnBodyChunk(chunk)
	default:
		log.Warn(reqCtx, "unknown envelope type", log.String("type", env.Type))
		return protocol.Allow()
	}
}
