package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

// DefaultShutdownGracePeriod is used when Config.ShutdownGracePeriod is zero.
const DefaultShutdownGracePeriod = 10 * time.Second

// Config describes the lifecycle of an HTTP server: listener address,
// handler, timeouts and the hooks invoked as the server transitions
// between states.
type Config struct {
	ListenAddr          string
	Handler             http.Handler
	TCPKeepAlive        time.Duration
	ShutdownGracePeriod time.Duration
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	IdleTimeout         time.Duration
	OnStarting          func()
	OnStopping          func()
	OnStopped           func()
}

// Run starts an HTTP server with the provided config and blocks until the
// process receives SIGINT or SIGTERM. The server is then drained for up to
// ShutdownGracePeriod before the function returns.
func Run(conf Config) {
	srv := newServer(conf)

	if conf.OnStarting != nil {
		conf.OnStarting()
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(srv, conf)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server terminated: %v", err)
		}
		return
	case <-sig:
	}

	if conf.OnStopping != nil {
		conf.OnStopping()
	}

	gracePeriod := conf.ShutdownGracePeriod
	if gracePeriod <= 0 {
		gracePeriod = DefaultShutdownGracePeriod
	}
	ctx, cancel := context.WithTimeout(context.Background(), gracePeriod)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("graceful shutdown exceeded the %s grace period: %v", gracePeriod, err)
	}

	if conf.OnStopped != nil {
		conf.OnStopped()
	}
}

func newServer(conf Config) *http.Server {
	return &http.Server{
		Addr:         conf.ListenAddr,
		Handler:      conf.Handler,
		ReadTimeout:  conf.ReadTimeout,
		WriteTimeout: conf.WriteTimeout,
		IdleTimeout:  conf.IdleTimeout,
	}
}

func listenAndServe(srv *http.Server, conf Config) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	if tcpLn, ok := ln.(*net.TCPListener); ok && conf.TCPKeepAlive > 0 {
		ln = tcpKeepAliveListener{TCPListener: tcpLn, keepAlivePeriod: conf.TCPKeepAlive}
	}
	return srv.Serve(ln)
}

// tcpKeepAliveListener enables TCP keep-alives on accepted connections so
// that dead clients eventually release their server-side resources.
type tcpKeepAliveListener struct {
	*net.TCPListener
	keepAlivePeriod time.Duration
}

func (ln tcpKeepAliveListener) Accept() (net.Conn, error) {
	conn, err := ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	if err = conn.SetKeepAlive(true); err != nil {
		return nil, err
	}
	if err = conn.SetKeepAlivePeriod(ln.keepAlivePeriod); err != nil {
		return nil, err
	}
	return conn, nil
}
