package lineproto

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"peershare/datamodel/resource"
)

// SnapshotSource supplies the entries a DISCOVER request is answered with.
type SnapshotSource interface {
	Snapshot() []resource.Resource
}

// Server answers protocol requests on an accepted listener. Each connection
// carries exactly one request and is closed right after the response.
type Server struct {
	listener net.Listener
	src      SnapshotSource
}

func NewServer(listener net.Listener, src SnapshotSource) *Server {
	return &Server{
		listener: listener,
		src:      src,
	}
}

// Addr returns the listener's bound address, useful when listening on an
// ephemeral port.
func (srv *Server) Addr() net.Addr {
	return srv.listener.Addr()
}

// Serve accepts connections until ctx is cancelled, handling each one in its
// own goroutine. A failed accept is logged and retried with backoff; only a
// closed listener ends the loop.
func (srv *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		log.Infof("lineproto.Server: context cancelled, closing listener %s", srv.listener.Addr())
		if err := srv.listener.Close(); err != nil {
			log.Warnf("lineproto.Server: error closing listener: %v", err)
		}
	}()

	log.Infof("lineproto.Server: listening on %s", srv.listener.Addr())

	var tempDelay time.Duration
	for {
		conn, err := srv.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				log.Infof("lineproto.Server: listener %s shut down", srv.listener.Addr())
				return ctx.Err()
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay *= 2
			}
			if tempDelay > time.Second {
				tempDelay = time.Second
			}
			log.Warnf("lineproto.Server: accept error on %s: %v, retrying in %v", srv.listener.Addr(), err, tempDelay)
			time.Sleep(tempDelay)
			continue
		}
		tempDelay = 0
		log.Debugf("lineproto.Server: accepted connection from %s", conn.RemoteAddr())
		go srv.serveConn(conn)
	}
}

// serveConn runs a connection through its whole lifecycle: read one line,
// answer it if it is a recognized command, close. Unknown commands and
// connections that close before a full line arrives get no response.
func (srv *Server) serveConn(conn net.Conn) {
	defer conn.Close()

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), MaxLineBytes)
	if !sc.Scan() {
		log.Debugf("lineproto.Server: %s closed before sending a request", conn.RemoteAddr())
		return
	}
	line := sc.Text()

	switch {
	case line == CommandDiscover:
		resp, err := EncodeResources(srv.src.Snapshot())
		if err != nil {
			log.Errorf("lineproto.Server: encoding resources for %s failed: %v", conn.RemoteAddr(), err)
			return
		}
		srv.writeLine(conn, resp)
	case strings.HasPrefix(line, CommandGetResourcePrefix):
		name := strings.TrimPrefix(line, CommandGetResourcePrefix)
		log.Debugf("lineproto.Server: %s requested resource %q", conn.RemoteAddr(), name)
		srv.writeLine(conn, EncodeAck(name))
	default:
		log.Debugf("lineproto.Server: dropping unrecognized request from %s", conn.RemoteAddr())
	}
}

func (srv *Server) writeLine(conn net.Conn, line string) {
	if _, err := io.WriteString(conn, line+"\n"); err != nil {
		log.Warnf("lineproto.Server: write to %s failed: %v", conn.RemoteAddr(), err)
	}
}
