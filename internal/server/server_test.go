package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/creditshop/internal/dependencies/mocks"
	"github.com/mcoot/creditshop/internal/metrics"
	"github.com/mcoot/creditshop/internal/model"
	"github.com/mcoot/creditshop/internal/protocol"
	"github.com/mcoot/creditshop/internal/router"
	"github.com/mcoot/creditshop/internal/services/catalog"
	"github.com/mcoot/creditshop/internal/services/ledger"
	"github.com/mcoot/creditshop/internal/session"
	"github.com/mcoot/creditshop/internal/storage/memory"
	"github.com/mcoot/creditshop/internal/testutil"
)

type testClient struct {
	conn   net.Conn
	reader *bufio.Reader
}

func (c *testClient) sendRaw(line string) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	_, err := io.WriteString(c.conn, line+"\n")
	return err
}

func (c *testClient) send(req protocol.Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return c.sendRaw(string(data))
}

func (c *testClient) receive() (protocol.Response, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return protocol.Response{}, err
	}
	var resp protocol.Response
	err = json.Unmarshal(line, &resp)
	return resp, err
}

func (c *testClient) do(req protocol.Request) (protocol.Response, error) {
	if err := c.send(req); err != nil {
		return protocol.Response{}, err
	}
	return c.receive()
}

type ServerSuite struct {
	suite.Suite
	storage  *memory.Storage
	random   *mocks.MockRandom
	sessions *session.Table
	server   *Server
	serveErr chan error
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.storage = memory.New()
	cat := catalog.New(s.storage, testutil.NopLogger())
	s.Require().NoError(cat.LoadItems(model.DefaultItems()))
	s.random = mocks.NewMockRandom()
	led := ledger.New(s.storage, cat, mocks.NewMockClock(time.Now()), s.random,
		ledger.DefaultConfig(), testutil.NopLogger())
	s.sessions = session.NewTable()
	m := metrics.New(false)
	r := router.New(led, cat, s.sessions, m, testutil.NopLogger())

	s.startServer(r, m)
}

func (s *ServerSuite) startServer(handler Handler, m *metrics.Metrics) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.MaxFrameBytes = 256
	cfg.ShutdownTimeout = 5 * time.Second
	s.server = New(cfg, handler, s.sessions, m, testutil.NopLogger())
	s.Require().NoError(s.server.Listen())

	s.serveErr = make(chan error, 1)
	go func() {
		s.serveErr <- s.server.Start()
	}()
}

func (s *ServerSuite) TearDownTest() {
	s.NoError(s.server.Shutdown(context.Background()))
	s.NoError(<-s.serveErr)
}

func (s *ServerSuite) dial() *testClient {
	conn, err := net.DialTimeout("tcp", s.server.Addr(), 2*time.Second)
	s.Require().NoError(err)
	s.T().Cleanup(func() { conn.Close() })
	return &testClient{conn: conn, reader: bufio.NewReader(conn)}
}

// requireClosed waits for the server to tear the connection down. Closing
// with unread input makes the kernel send a reset instead of a FIN, so both
// count; a read timeout means the connection is still open.
func (s *ServerSuite) requireClosed(c *testClient) {
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := c.reader.ReadByte()
	s.Require().Error(err)

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		s.Failf("connection still open", "read timed out: %v", err)
		return
	}
	s.True(errors.Is(err, io.EOF) || errors.Is(err, syscall.ECONNRESET),
		"unexpected read error: %v", err)
}

func (s *ServerSuite) TestSessionFlow() {
	s.random.QueueIntn(70)
	c := s.dial()

	resp, err := c.do(protocol.Request{Action: protocol.ActionBalance})
	s.Require().NoError(err)
	s.Equal(router.CodeNotAuthenticated, resp.Code)

	resp, err = c.do(protocol.Request{Action: protocol.ActionLogin, Nickname: "nova"})
	s.Require().NoError(err)
	s.Require().True(resp.IsOK())
	s.Equal(80, resp.Credits)

	resp, err = c.do(protocol.Request{Action: protocol.ActionBuy, ItemKey: "sword"})
	s.Require().NoError(err)
	s.Equal(30, resp.Credits)
	s.Equal([]string{"sword"}, resp.OwnedItems)

	resp, err = c.do(protocol.Request{Action: protocol.ActionQuit})
	s.Require().NoError(err)
	s.True(resp.IsOK())
	s.requireClosed(c)

	s.Eventually(func() bool { return s.sessions.Count() == 0 }, 2*time.Second, 10*time.Millisecond)

	// The account outlives the connection
	account, err := s.storage.GetAccount(context.Background(), "nova")
	s.Require().NoError(err)
	s.Equal(30, account.Credits)
}

func (s *ServerSuite) TestMalformedFrameKeepsConnectionOpen() {
	c := s.dial()

	s.Require().NoError(c.sendRaw(`{"action": "login", nick`))
	resp, err := c.receive()
	s.Require().NoError(err)
	s.Equal(router.CodeMalformedRequest, resp.Code)

	resp, err = c.do(protocol.Request{Action: protocol.ActionLogin, Nickname: "nova"})
	s.Require().NoError(err)
	s.True(resp.IsOK())
}

func (s *ServerSuite) TestOversizedFrameDropsOnlyThatConnection() {
	bad := s.dial()
	good := s.dial()

	resp, err := good.do(protocol.Request{Action: protocol.ActionLogin, Nickname: "vega"})
	s.Require().NoError(err)
	s.Require().True(resp.IsOK())

	s.Require().NoError(bad.sendRaw(strings.Repeat("x", 1024)))
	s.requireClosed(bad)

	resp, err = good.do(protocol.Request{Action: protocol.ActionBalance})
	s.Require().NoError(err)
	s.True(resp.IsOK())
	s.Equal("vega", resp.Nickname)
}

func (s *ServerSuite) TestDisconnectClearsSession() {
	c := s.dial()
	_, err := c.do(protocol.Request{Action: protocol.ActionLogin, Nickname: "nova"})
	s.Require().NoError(err)
	s.Equal(1, s.sessions.CountAuthenticated())

	c.conn.Close()
	s.Eventually(func() bool {
		return s.sessions.Count() == 0 && s.server.ActiveConnections() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *ServerSuite) TestConcurrentBuysAcrossConnections() {
	// Both logins get the minimum bonus of 10, so seed enough for one sword
	s.Require().NoError(s.storage.SaveAccount(context.Background(),
		model.NewAccount("nova", 30, time.Now())))

	clients := []*testClient{s.dial(), s.dial()}
	for _, c := range clients {
		resp, err := c.do(protocol.Request{Action: protocol.ActionLogin, Nickname: "nova"})
		s.Require().NoError(err)
		s.Require().True(resp.IsOK())
	}
	// 30 + 10 + 10 = 50, exactly one sword

	results := make([]protocol.Response, len(clients))
	var wg sync.WaitGroup
	for i, c := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := c.do(protocol.Request{Action: protocol.ActionBuy, ItemKey: "sword"})
			s.NoError(err)
			results[i] = resp
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, resp := range results {
		if resp.IsOK() {
			succeeded++
			continue
		}
		s.Contains([]string{router.CodeAlreadyOwned, router.CodeInsufficientCredits}, resp.Code)
	}
	s.Equal(1, succeeded)

	account, err := s.storage.GetAccount(context.Background(), "nova")
	s.Require().NoError(err)
	s.Zero(account.Credits)
	s.Equal([]string{"sword"}, account.OwnedItems)
}

// blockingHandler holds every request until released
type blockingHandler struct {
	entered chan struct{}
	release chan struct{}
}

func (h *blockingHandler) HandleFrame(_ context.Context, _ string, _ []byte) router.Result {
	h.entered <- struct{}{}
	<-h.release
	return router.Result{Response: protocol.OK("done")}
}

func (s *ServerSuite) TestShutdownCompletesInFlightRequest() {
	// Replace the default server with one whose handler blocks
	s.NoError(s.server.Shutdown(context.Background()))
	s.NoError(<-s.serveErr)

	handler := &blockingHandler{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s.startServer(handler, metrics.New(false))

	busy := s.dial()
	idle := s.dial()
	s.Require().NoError(busy.sendRaw(`{"action":"balance"}`))
	<-handler.entered

	shutdownErr := make(chan error, 1)
	go func() {
		shutdownErr <- s.server.Shutdown(context.Background())
	}()

	// Idle connections are closed without a response
	s.requireClosed(idle)

	close(handler.release)
	resp, err := busy.receive()
	s.Require().NoError(err)
	s.Equal("done", resp.Message)
	s.requireClosed(busy)

	s.NoError(<-shutdownErr)
	s.NoError(<-s.serveErr)

	// TearDownTest shuts down again
	s.serveErr = make(chan error, 1)
	s.serveErr <- nil
}

func (s *ServerSuite) TestRefusesNewConnectionsAfterShutdown() {
	addr := s.server.Addr()
	s.NoError(s.server.Shutdown(context.Background()))
	s.NoError(<-s.serveErr)

	_, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
	s.Error(err)

	s.serveErr = make(chan error, 1)
	s.serveErr <- nil
}

func TestStartFailsOnBoundAddress(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	cfg := DefaultConfig()
	cfg.Addr = l.Addr().String()
	srv := New(cfg, nil, session.NewTable(), metrics.New(false), testutil.NopLogger())

	err = srv.Start()
	if err == nil || errors.Is(err, net.ErrClosed) {
		t.Fatalf("expected listen error, got %v", err)
	}
}
