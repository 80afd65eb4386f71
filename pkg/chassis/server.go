// Package chassis serves the term API over TLS on one port:
//
//   - TCP: HTTP/1.1 and HTTP/2
//   - UDP: QUIC, demultiplexed by ALPN into HTTP/3 ("h3") and MCP
//     (mcpquic.ALPN)
//
// HTTP responses advertise HTTP/3 through Alt-Svc. Without cert/key files a
// self-signed development certificate is generated.
package chassis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hazyhaar/termfix/pkg/mcpquic"
	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
)

const alpnHTTP3 = "h3"

// Config configures a Server.
type Config struct {
	Addr      string // TCP and UDP, e.g. ":8443"
	CertFile  string
	KeyFile   string
	Handler   http.Handler
	MCPServer *server.MCPServer // nil disables MCP over QUIC
	Logger    *slog.Logger
}

// Server runs the TCP and QUIC listeners.
type Server struct {
	cfg    Config
	tlsCfg *tls.Config
	logger *slog.Logger
	mcp    *mcpquic.Handler

	tcpLn  net.Listener
	quicLn *quic.Listener
}

func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Handler == nil {
		return nil, errors.New("chassis: nil handler")
	}
	tlsCfg, err := mcpquic.ServerTLSConfig(cfg.CertFile, cfg.KeyFile, alpnHTTP3, mcpquic.ALPN)
	if err != nil {
		return nil, err
	}
	if cfg.CertFile == "" {
		cfg.Logger.Warn("using self-signed development certificate")
	}

	s := &Server{cfg: cfg, tlsCfg: tlsCfg, logger: cfg.Logger}
	if cfg.MCPServer != nil {
		s.mcp = mcpquic.NewHandler(cfg.MCPServer, cfg.Logger)
	}
	return s, nil
}

// Listen binds TCP on cfg.Addr and QUIC on the same UDP port. With port 0
// the port the kernel picks for TCP is reused for UDP.
func (s *Server) Listen() error {
	tcpTLS := s.tlsCfg.Clone()
	tcpTLS.NextProtos = []string{"h2", "http/1.1"}
	tcpLn, err := tls.Listen("tcp", s.cfg.Addr, tcpTLS)
	if err != nil {
		return fmt.Errorf("tcp listen: %w", err)
	}
	udpAddr := tcpLn.Addr().String()
	if host, _, err := net.SplitHostPort(s.cfg.Addr); err == nil && host == "" {
		_, port, _ := net.SplitHostPort(udpAddr)
		udpAddr = ":" + port
	}
	quicLn, err := quic.ListenAddr(udpAddr, s.tlsCfg, mcpquic.QUICConfig())
	if err != nil {
		tcpLn.Close()
		return fmt.Errorf("quic listen: %w", err)
	}
	s.tcpLn, s.quicLn = tcpLn, quicLn
	return nil
}

// Addr is the bound TCP address (the UDP port is the same). Empty before Listen.
func (s *Server) Addr() string {
	if s.tcpLn == nil {
		return ""
	}
	return s.tcpLn.Addr().String()
}

// Run listens and serves until ctx is cancelled or a listener fails.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve runs on the listeners bound by Listen, then shuts both down.
func (s *Server) Serve(ctx context.Context) error {
	if s.tcpLn == nil || s.quicLn == nil {
		return errors.New("chassis: Serve before Listen")
	}
	handler := securityHeaders(altSvc(s.Addr(), s.cfg.Handler))
	httpSrv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	h3 := &http3.Server{Handler: handler}

	errCh := make(chan error, 2)
	go func() {
		if err := httpSrv.Serve(s.tcpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("tcp: %w", err)
		}
	}()
	go func() {
		if err := s.acceptQUIC(ctx, s.quicLn, h3); err != nil {
			errCh <- err
		}
	}()

	s.logger.Info("listening", "addr", s.Addr(), "tcp", "h2,http/1.1", "udp", "h3,"+mcpquic.ALPN, "mcp", s.mcp != nil)

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	httpSrv.Shutdown(shutdownCtx)
	h3.Close()
	s.quicLn.Close()
	s.logger.Info("stopped", "addr", s.Addr())
	return err
}

func (s *Server) acceptQUIC(ctx context.Context, ln *quic.Listener, h3 *http3.Server) error {
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, quic.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("quic accept: %w", err)
		}

		switch alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn {
		case alpnHTTP3:
			go func() {
				if err := h3.ServeQUICConn(conn); err != nil {
					s.logger.Debug("h3 conn closed", "remote", conn.RemoteAddr(), "error", err)
				}
			}()
		case mcpquic.ALPN:
			if s.mcp == nil {
				conn.CloseWithError(mcpquic.ConnErrDisabled, "mcp disabled")
				continue
			}
			go s.mcp.ServeConn(ctx, conn)
		default:
			s.logger.Warn("unsupported ALPN", "alpn", alpn, "remote", conn.RemoteAddr())
			conn.CloseWithError(mcpquic.ConnErrUnsupportedALPN, "unsupported ALPN")
		}
	}
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// altSvc advertises HTTP/3 on the listen port.
func altSvc(addr string, next http.Handler) http.Handler {
	_, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return next
	}
	value := fmt.Sprintf(`h3=":%s"; ma=86400`, port)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Alt-Svc", value)
		next.ServeHTTP(w, r)
	})
}
