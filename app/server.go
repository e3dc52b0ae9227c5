// app/server.go
// API 服务器：HTTP/3 (QUIC) 为主，同端口再挂一个 TCP TLS 服务器
// 照顾不走 QUIC 的客户端与 pprof 工具。
package app

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"path/filepath"
	"strings"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"

	"ledger/crt"
	"ledger/logs"
	"ledger/middleware"
)

type apiServer struct {
	node        *Node
	http3Server *http3.Server
	tcpServer   *http.Server
	stopChan    chan struct{}
}

func newAPIServer(node *Node) *apiServer {
	return &apiServer{node: node, stopChan: make(chan struct{})}
}

func (s *apiServer) Start() error {
	cfg := s.node.Config
	mux := http.NewServeMux()
	s.node.HandlerManager.RegisterRoutes(mux)

	// pprof 路由，性能排查用
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	var handler http.Handler = mux
	if max := cfg.Server.MaxRequestBodySize; max > 0 {
		inner := handler
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, max)
			}
			inner.ServeHTTP(w, r)
		})
	}
	handler = middleware.RateLimit(handler)
	middleware.StartIPCleanup(s.stopChan)
	s.node.HandlerManager.TrackPipeline(s.stopChan)

	certFile := filepath.Join(cfg.Node.DataDir, "server.crt")
	keyFile := filepath.Join(cfg.Node.DataDir, "server.key")
	if err := crt.EnsureSelfSignedCert(certFile, keyFile, cfg.Server.CertValidityDays); err != nil {
		return fmt.Errorf("certificate: %w", err)
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return fmt.Errorf("load certificate: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tlsVersion(cfg.Server.TLSMinVersion),
		MaxVersion:   tlsVersion(cfg.Server.TLSMaxVersion),
		// h3 给 QUIC，http/1.1 给 TCP 回退
		NextProtos: []string{"h3", "http/1.1"},
	}
	quicConfig := &quic.Config{
		KeepAlivePeriod: cfg.Server.QUICKeepAlivePeriod,
		MaxIdleTimeout:  cfg.Server.QUICMaxIdleTimeout,
		Allow0RTT:       cfg.Server.QUICAllow0RTT,
	}

	s.http3Server = &http3.Server{
		Addr:       ":" + cfg.Server.Port,
		Handler:    handler,
		TLSConfig:  tlsConfig,
		QUICConfig: quicConfig,
	}
	listener, err := quic.ListenAddrEarly(":"+cfg.Server.Port, tlsConfig, quicConfig)
	if err != nil {
		return fmt.Errorf("quic listen: %w", err)
	}

	// WriteTimeout 不设：/events 是长连接推送
	s.tcpServer = &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     handler,
		TLSConfig:   tlsConfig,
		ReadTimeout: cfg.Server.HTTPTimeout,
	}

	go func() {
		if err := s.tcpServer.ListenAndServeTLS(certFile, keyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Error("[API] TCP TLS server: %v", err)
		}
	}()
	go func() {
		logs.Info("[API] HTTP/3 server listening on :%s", cfg.Server.Port)
		if err := s.http3Server.ServeListener(listener); err != nil && !isServerClosedErr(err) {
			logs.Error("[API] HTTP/3 server: %v", err)
		}
	}()
	return nil
}

func (s *apiServer) Stop() {
	close(s.stopChan)
	if s.http3Server != nil {
		if err := s.http3Server.Close(); err != nil && !isServerClosedErr(err) {
			logs.Warn("[API] close HTTP/3 server: %v", err)
		}
	}
	if s.tcpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.tcpServer.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Warn("[API] shutdown TCP server: %v", err)
		}
	}
}

// tlsVersion 配置字符串转 TLS 版本号，认不出来就按 1.3 收紧
func tlsVersion(v string) uint16 {
	switch v {
	case "1.2":
		return tls.VersionTLS12
	default:
		return tls.VersionTLS13
	}
}

func isServerClosedErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, http.ErrServerClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "server closed") ||
		strings.Contains(msg, "closed network connection") ||
		strings.Contains(msg, "use of closed network connection")
}
