// Package fakeredis provides a fake Redis server for testing purposes.
// It speaks RESP2 over plain TCP and keeps a real in-memory keyspace, so
// command sequences behave the way tests expect: a SET is visible to the
// GET that follows it, SELECT switches databases, MULTI/EXEC queues and
// runs transactions, and WATCH aborts them.
//
// We don't currently have an executable binary for this package,
// but it can be used as a library to create a fake Redis server
// for integration tests.
//
// To flexibly inject failures, you can configure stub replies that match
// specific commands, along with failure configurations that specify how
// processing fails (e.g., delays, garbage bytes, dropped connections,
// TCP resets).
//
// Replies for unordered collections (sets, hashes) are sorted so tests
// can assert literal reply contents.
package fakeredis

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/alex-arzola-imp/glide-for-redis/pkg/resp"
)

// NumDatabases is how many logical databases the server keeps, matching
// the Redis default.
const NumDatabases = 16

// cryptoRandInt64 generates a cryptographically secure random int64 in [0, max)
func cryptoRandInt64(rMax int64) int64 {
	if rMax <= 0 {
		return 0
	}
	n, _ := rand.Int(rand.Reader, big.NewInt(rMax))
	return n.Int64()
}

// cryptoRandFloat64 generates a cryptographically secure random float64 in [0.0, 1.0)
func cryptoRandFloat64() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(1<<53))
	return float64(n.Int64()) / float64(1<<53)
}

// FailureType represents the type of failure to inject during command processing
type FailureType string

const (
	// FailureNone indicates no failure injection
	FailureNone FailureType = "none"
	// FailureReplyDelay delays the reply for a random duration within bounds
	FailureReplyDelay FailureType = "reply_delay"
	// FailureGarbageReply sends random bytes instead of a valid reply and drops the connection
	FailureGarbageReply FailureType = "garbage_reply"
	// FailurePartialReply sends only half of the encoded reply and drops the connection
	FailurePartialReply FailureType = "partial_reply"
	// FailureDropConnection closes the connection without replying
	FailureDropConnection FailureType = "drop_connection"
	// FailureTCPReset forcefully resets the TCP connection
	FailureTCPReset FailureType = "tcp_reset"
)

// FailureConfig defines how and when to inject a specific failure type
type FailureConfig struct {
	// Type specifies the type of failure to inject
	Type FailureType
	// Probability of triggering this failure (0.0 to 1.0)
	Probability float64
	// MinDelay is the minimum delay for delay-based failures
	MinDelay time.Duration
	// MaxDelay is the maximum delay for delay-based failures
	MaxDelay time.Duration
}

// RequestMatcher defines criteria for matching incoming commands.
// It can match by command name and optionally by argument values.
type RequestMatcher struct {
	// Command is the command name to match, case-insensitive
	Command string
	// Matcher is an optional function to match based on the full
	// argument list including the command name. If nil, only the command
	// name is used for matching.
	Matcher func(args []string) bool
}

// StubReply defines a pre-configured reply for matching commands. It can
// return either a value or an error reply, bypassing the built-in
// keyspace, and optionally inject failures during processing.
type StubReply struct {
	// Matcher determines which commands this stub should handle
	Matcher RequestMatcher
	// Reply is the value to return (mutually exclusive with Error)
	Reply resp.Value
	// Error is the error reply to return (mutually exclusive with Reply)
	Error string
	// Failures defines failure injection configurations for this reply
	Failures []FailureConfig
}

// MatchCommand creates a RequestMatcher that matches only by command name
func MatchCommand(command string) RequestMatcher {
	return RequestMatcher{
		Command: command,
		Matcher: nil,
	}
}

// MatchCommandWithArgs creates a RequestMatcher that matches by command
// name and argument values using a custom matcher function
func MatchCommandWithArgs(command string, matcher func(args []string) bool) RequestMatcher {
	return RequestMatcher{
		Command: command,
		Matcher: matcher,
	}
}

// SimpleStubReply creates a basic stub reply for a command without failure injection
func SimpleStubReply(command string, reply resp.Value) StubReply {
	return StubReply{
		Matcher: MatchCommand(command),
		Reply:   reply,
	}
}

// ErrorStubReply creates a stub that returns an error reply
func ErrorStubReply(command, message string) StubReply {
	return StubReply{
		Matcher: MatchCommand(command),
		Error:   message,
	}
}

type entryKind int

const (
	entryString entryKind = iota
	entrySet
	entryHash
)

// entry is one keyspace value. version increments on every modification
// and backs WATCH; an absent key has version 0, so entries start at 1.
// Expiry is lazy: an entry past expireAt is removed on the next lookup.
type entry struct {
	mu       sync.Mutex
	kind     entryKind
	version  uint64
	str      string
	set      map[string]struct{}
	hash     map[string]string
	expireAt time.Time
}

// expired reports whether the entry's TTL has lapsed. Callers hold e.mu.
func (e *entry) expired() bool {
	return !e.expireAt.IsZero() && time.Now().After(e.expireAt)
}

type database struct {
	keys *xsync.MapOf[string, *entry]
}

func newDatabase() *database {
	return &database{keys: xsync.NewMapOf[string, *entry]()}
}

// lookup returns the entry for key if present. It never creates one, and
// it reaps an entry whose TTL has lapsed.
func (d *database) lookup(key string) (*entry, bool) {
	e, ok := d.keys.Load(key)
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	gone := e.expired()
	e.mu.Unlock()
	if gone {
		d.keys.Delete(key)
		return nil, false
	}
	return e, true
}

// upsert returns the entry for key, creating an empty one if absent or
// expired. Callers must mutate the entry; an empty entry is
// indistinguishable from an empty string otherwise.
func (d *database) upsert(key string) *entry {
	for {
		e, loaded := d.keys.LoadOrStore(key, &entry{})
		if !loaded {
			return e
		}
		e.mu.Lock()
		gone := e.expired()
		e.mu.Unlock()
		if !gone {
			return e
		}
		d.keys.Delete(key)
	}
}

func (d *database) version(key string) uint64 {
	e, ok := d.lookup(key)
	if !ok {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

// Server is a fake Redis server that implements a useful subset of the
// command set with support for stub replies and failure injection
type Server struct {
	addr     string
	listener net.Listener

	mu             sync.RWMutex
	stubs          []StubReply
	globalFailures []FailureConfig
	conns          map[net.Conn]struct{}
	username       string
	password       string

	dbs [NumDatabases]*database

	// execMu makes EXEC bodies atomic with respect to each other and to
	// the WATCH version checks.
	execMu sync.Mutex

	accepted atomic.Int64
	handled  atomic.Int64

	wg sync.WaitGroup
}

// NewServer creates a new fake Redis server.
// Use "127.0.0.1:0" to bind to a random available port.
func NewServer(addr string) *Server {
	s := &Server{
		addr:  addr,
		conns: make(map[net.Conn]struct{}),
	}
	for i := range s.dbs {
		s.dbs[i] = newDatabase()
	}
	return s
}

// RequireAuth makes the server demand AUTH with the given credentials
// before serving other commands. An empty username permits both
// password-only AUTH and the "default" user.
func (s *Server) RequireAuth(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
	s.password = password
}

// AddStubReply adds a stub reply configuration to the server.
// Stub replies are matched in the order they were added.
func (s *Server) AddStubReply(stub StubReply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs = append(s.stubs, stub)
}

// ClearStubReplies removes every configured stub reply.
func (s *Server) ClearStubReplies() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs = nil
}

// SetGlobalFailures sets failure configurations that apply to all
// commands. These are checked before stub-specific failures.
func (s *Server) SetGlobalFailures(failures []FailureConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globalFailures = failures
}

// Start starts the server and begins accepting connections.
// Returns an error if the server cannot bind to the specified address.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop shuts down the server: the listener and every open connection are
// closed, and Stop returns once all connection handlers have finished.
func (s *Server) Stop() error {
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}

	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

// Address returns the actual address the server is listening on.
// This is useful when using "127.0.0.1:0" to get the assigned port.
func (s *Server) Address() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Accepted returns how many connections the server has accepted.
func (s *Server) Accepted() int {
	return int(s.accepted.Load())
}

// Handled returns how many commands the server has read.
func (s *Server) Handled() int {
	return int(s.handled.Load())
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Printf("fakeredis: accept: %v", err)
			}
			return
		}
		s.accepted.Add(1)

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	c := &client{
		server: s,
		conn:   conn,
		reader: resp.NewReader(conn),
		writer: resp.NewWriter(conn),
	}

	for {
		v, err := c.reader.ReadValue()
		if err != nil {
			return
		}
		args, err := v.Strings()
		if err != nil || len(args) == 0 {
			return
		}
		s.handled.Add(1)
		if !c.handle(args) {
			return
		}
	}
}

// client is the per-connection state: selected database, auth status,
// and any transaction in progress.
type client struct {
	server *Server
	conn   net.Conn
	reader *resp.Reader
	writer *resp.Writer

	db      int
	authed  bool
	inMulti bool
	queued  [][]string
	watches []watch
}

// watch records the version a key had when WATCH ran; EXEC aborts if any
// recorded version has moved.
type watch struct {
	db      int
	key     string
	version uint64
}

// cmdResult is the outcome of one command: a value, an error reply, or
// for EXEC a list of per-command outcomes streamed as one array.
type cmdResult struct {
	val    resp.Value
	err    string
	isExec bool
	exec   []cmdResult
}

func value(v resp.Value) cmdResult {
	return cmdResult{val: v}
}

func errResult(msg string) cmdResult {
	return cmdResult{err: msg}
}

func wrongArity(name string) cmdResult {
	return errResult(fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(name)))
}

func wrongType() cmdResult {
	return errResult("WRONGTYPE Operation against a key holding the wrong kind of value")
}

// handle runs one command. It returns false when the connection should
// be torn down.
func (c *client) handle(args []string) bool {
	name := strings.ToUpper(args[0])

	c.server.mu.RLock()
	globalFailures := c.server.globalFailures
	password := c.server.password
	c.server.mu.RUnlock()

	for _, failure := range globalFailures {
		if shouldTriggerFailure(failure.Probability) {
			if !c.applyFailure(failure, nil) {
				return false
			}
		}
	}

	if password != "" && !c.authed && name != "AUTH" {
		return c.writeError("NOAUTH Authentication required.")
	}

	if c.inMulti {
		switch name {
		case "MULTI", "EXEC", "DISCARD", "WATCH", "UNWATCH":
		default:
			c.queued = append(c.queued, args)
			return c.writeValue(resp.SimpleValue("QUEUED"))
		}
	}

	c.server.mu.RLock()
	var stub *StubReply
	for i := range c.server.stubs {
		candidate := &c.server.stubs[i]
		if strings.EqualFold(candidate.Matcher.Command, name) {
			if candidate.Matcher.Matcher == nil || candidate.Matcher.Matcher(args) {
				stub = candidate
				break
			}
		}
	}
	c.server.mu.RUnlock()

	if stub != nil {
		for _, failure := range stub.Failures {
			if shouldTriggerFailure(failure.Probability) {
				if !c.applyFailure(failure, stub) {
					return false
				}
			}
		}
		if stub.Error != "" {
			return c.writeError(stub.Error)
		}
		return c.writeValue(stub.Reply)
	}

	return c.writeResult(c.dispatch(name, args[1:]))
}

//nolint:gocyclo
func (c *client) dispatch(name string, args []string) cmdResult {
	switch name {
	case "PING":
		return c.cmdPing(args)
	case "ECHO":
		if len(args) != 1 {
			return wrongArity(name)
		}
		return value(resp.BulkValue(args[0]))
	case "AUTH":
		return c.cmdAuth(args)
	case "SELECT":
		return c.cmdSelect(args)
	case "INFO":
		return c.cmdInfo()
	case "DBSIZE":
		return value(resp.IntegerValue(int64(c.database().keys.Size())))
	case "FLUSHDB":
		c.database().keys.Clear()
		return value(resp.SimpleValue("OK"))
	case "FLUSHALL":
		for _, db := range c.server.dbs {
			db.keys.Clear()
		}
		return value(resp.SimpleValue("OK"))
	case "GET":
		return c.cmdGet(args)
	case "SET":
		return c.cmdSet(args)
	case "DEL":
		return c.cmdDel(args)
	case "EXISTS":
		return c.cmdExists(args)
	case "INCR":
		if len(args) != 1 {
			return wrongArity(name)
		}
		return c.cmdIncrBy(args[0], 1)
	case "DECR":
		if len(args) != 1 {
			return wrongArity(name)
		}
		return c.cmdIncrBy(args[0], -1)
	case "INCRBY", "DECRBY":
		if len(args) != 2 {
			return wrongArity(name)
		}
		n, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return errResult("ERR value is not an integer or out of range")
		}
		if name == "DECRBY" {
			n = -n
		}
		return c.cmdIncrBy(args[0], n)
	case "SADD":
		return c.cmdSAdd(args)
	case "SREM":
		return c.cmdSRem(args)
	case "SMEMBERS":
		return c.cmdSMembers(args)
	case "SCARD":
		return c.cmdSCard(args)
	case "SISMEMBER":
		return c.cmdSIsMember(args)
	case "HGET":
		return c.cmdHGet(args)
	case "HSET":
		return c.cmdHSet(args)
	case "HSETNX":
		return c.cmdHSetNX(args)
	case "HDEL":
		return c.cmdHDel(args)
	case "HLEN":
		return c.cmdHLen(args)
	case "HVALS":
		return c.cmdHVals(args)
	case "HMGET":
		return c.cmdHMGet(args)
	case "HEXISTS":
		return c.cmdHExists(args)
	case "HGETALL":
		return c.cmdHGetAll(args)
	case "HINCRBY":
		return c.cmdHIncrBy(args)
	case "HINCRBYFLOAT":
		return c.cmdHIncrByFloat(args)
	case "MULTI":
		if c.inMulti {
			return errResult("ERR MULTI calls can not be nested")
		}
		c.inMulti = true
		return value(resp.SimpleValue("OK"))
	case "EXEC":
		return c.cmdExec()
	case "DISCARD":
		if !c.inMulti {
			return errResult("ERR DISCARD without MULTI")
		}
		c.inMulti = false
		c.queued = nil
		c.watches = nil
		return value(resp.SimpleValue("OK"))
	case "WATCH":
		return c.cmdWatch(args)
	case "UNWATCH":
		c.watches = nil
		return value(resp.SimpleValue("OK"))
	default:
		return errResult(fmt.Sprintf("ERR unknown command '%s'", strings.ToLower(name)))
	}
}

func (c *client) database() *database {
	return c.server.dbs[c.db]
}

func (c *client) cmdPing(args []string) cmdResult {
	switch len(args) {
	case 0:
		return value(resp.SimpleValue("PONG"))
	case 1:
		return value(resp.BulkValue(args[0]))
	default:
		return wrongArity("ping")
	}
}

func (c *client) cmdAuth(args []string) cmdResult {
	c.server.mu.RLock()
	username, password := c.server.username, c.server.password
	c.server.mu.RUnlock()

	if password == "" {
		return errResult("ERR Client sent AUTH, but no password is set. Did you mean AUTH <username> <password>?")
	}

	var gotUser, gotPass string
	switch len(args) {
	case 1:
		gotPass = args[0]
	case 2:
		gotUser, gotPass = args[0], args[1]
	default:
		return wrongArity("auth")
	}

	userOK := gotUser == username || (username == "" && gotUser == "default")
	if userOK && gotPass == password {
		c.authed = true
		return value(resp.SimpleValue("OK"))
	}
	return errResult("WRONGPASS invalid username-password pair or user is disabled.")
}

func (c *client) cmdSelect(args []string) cmdResult {
	if len(args) != 1 {
		return wrongArity("select")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errResult("ERR value is not an integer or out of range")
	}
	if n < 0 || n >= NumDatabases {
		return errResult("ERR DB index is out of range")
	}
	c.db = n
	return value(resp.SimpleValue("OK"))
}

func (c *client) cmdInfo() cmdResult {
	c.server.mu.RLock()
	connected := len(c.server.conns)
	c.server.mu.RUnlock()

	var b strings.Builder
	b.WriteString("# Server\r\nredis_version:7.2.4\r\nredis_mode:standalone\r\n")
	fmt.Fprintf(&b, "# Clients\r\nconnected_clients:%d\r\n", connected)
	b.WriteString("# Keyspace\r\n")
	for i, db := range c.server.dbs {
		if size := db.keys.Size(); size > 0 {
			fmt.Fprintf(&b, "db%d:keys=%d,expires=0\r\n", i, size)
		}
	}
	return value(resp.BulkValue(b.String()))
}

func (c *client) cmdGet(args []string) cmdResult {
	if len(args) != 1 {
		return wrongArity("get")
	}
	e, ok := c.database().lookup(args[0])
	if !ok {
		return value(resp.NilValue())
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != entryString {
		return wrongType()
	}
	return value(resp.BulkValue(e.str))
}

// cmdSet implements SET with the NX/XX/GET/EX/PX/KEEPTTL options.
func (c *client) cmdSet(args []string) cmdResult {
	if len(args) < 2 {
		return wrongArity("set")
	}
	key, val := args[0], args[1]

	var nx, xx, get, keepTTL, hasExpire bool
	var expire time.Duration
	for i := 2; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "NX":
			nx = true
		case "XX":
			xx = true
		case "GET":
			get = true
		case "KEEPTTL":
			keepTTL = true
		case "EX", "PX":
			if i+1 >= len(args) {
				return errResult("ERR syntax error")
			}
			n, err := strconv.ParseInt(args[i+1], 10, 64)
			if err != nil || n <= 0 {
				return errResult("ERR invalid expire time in 'set' command")
			}
			if strings.ToUpper(args[i]) == "EX" {
				expire = time.Duration(n) * time.Second
			} else {
				expire = time.Duration(n) * time.Millisecond
			}
			hasExpire = true
			i++
		default:
			return errResult("ERR syntax error")
		}
	}
	if nx && xx {
		return errResult("ERR syntax error")
	}

	db := c.database()
	e, exists := db.lookup(key)

	oldValue := func() cmdResult {
		if !exists {
			return value(resp.NilValue())
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.kind != entryString {
			return wrongType()
		}
		return value(resp.BulkValue(e.str))
	}

	// Condition not met: nothing is stored. The reply is the old value
	// with GET, a nil reply otherwise.
	if (nx && exists) || (xx && !exists) {
		if get {
			return oldValue()
		}
		return value(resp.NilValue())
	}

	if !exists {
		e = db.upsert(key)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	reply := value(resp.SimpleValue("OK"))
	if get {
		switch {
		case !exists:
			reply = value(resp.NilValue())
		case e.kind != entryString:
			return wrongType()
		default:
			reply = value(resp.BulkValue(e.str))
		}
	}

	e.kind = entryString
	e.str = val
	e.set, e.hash = nil, nil
	switch {
	case hasExpire:
		e.expireAt = time.Now().Add(expire)
	case !keepTTL:
		e.expireAt = time.Time{}
	}
	e.version++
	return reply
}

// cmdIncrBy backs INCR, INCRBY, DECR and DECRBY. A missing key counts
// from zero.
func (c *client) cmdIncrBy(key string, delta int64) cmdResult {
	e := c.database().upsert(key)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.version == 0 {
		e.kind = entryString
		e.str = "0"
	}
	if e.kind != entryString {
		return wrongType()
	}
	current, err := strconv.ParseInt(e.str, 10, 64)
	if err != nil {
		return errResult("ERR value is not an integer or out of range")
	}
	current += delta
	e.str = strconv.FormatInt(current, 10)
	e.version++
	return value(resp.IntegerValue(current))
}

func (c *client) cmdDel(args []string) cmdResult {
	if len(args) == 0 {
		return wrongArity("del")
	}
	removed := 0
	for _, key := range args {
		if _, ok := c.database().keys.LoadAndDelete(key); ok {
			removed++
		}
	}
	return value(resp.IntegerValue(int64(removed)))
}

func (c *client) cmdExists(args []string) cmdResult {
	if len(args) == 0 {
		return wrongArity("exists")
	}
	found := 0
	for _, key := range args {
		if _, ok := c.database().lookup(key); ok {
			found++
		}
	}
	return value(resp.IntegerValue(int64(found)))
}

// asSet prepares e for set operations, claiming a freshly created entry.
func asSet(e *entry) bool {
	if e.version == 0 {
		e.kind = entrySet
		e.set = make(map[string]struct{})
		return true
	}
	return e.kind == entrySet
}

// asHash prepares e for hash operations, claiming a freshly created entry.
func asHash(e *entry) bool {
	if e.version == 0 {
		e.kind = entryHash
		e.hash = make(map[string]string)
		return true
	}
	return e.kind == entryHash
}

func (c *client) cmdSAdd(args []string) cmdResult {
	if len(args) < 2 {
		return wrongArity("sadd")
	}
	e := c.database().upsert(args[0])
	e.mu.Lock()
	defer e.mu.Unlock()
	if !asSet(e) {
		return wrongType()
	}
	added := 0
	for _, member := range args[1:] {
		if _, ok := e.set[member]; !ok {
			e.set[member] = struct{}{}
			added++
		}
	}
	e.version++
	return value(resp.IntegerValue(int64(added)))
}

func (c *client) cmdSRem(args []string) cmdResult {
	if len(args) < 2 {
		return wrongArity("srem")
	}
	e, ok := c.database().lookup(args[0])
	if !ok {
		return value(resp.IntegerValue(0))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != entrySet {
		return wrongType()
	}
	removed := 0
	for _, member := range args[1:] {
		if _, ok := e.set[member]; ok {
			delete(e.set, member)
			removed++
		}
	}
	if removed > 0 {
		e.version++
	}
	if len(e.set) == 0 {
		c.database().keys.Delete(args[0])
	}
	return value(resp.IntegerValue(int64(removed)))
}

func (c *client) cmdSMembers(args []string) cmdResult {
	if len(args) != 1 {
		return wrongArity("smembers")
	}
	e, ok := c.database().lookup(args[0])
	if !ok {
		return value(resp.ArrayValue())
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != entrySet {
		return wrongType()
	}
	members := make([]string, 0, len(e.set))
	for member := range e.set {
		members = append(members, member)
	}
	sort.Strings(members)
	vals := make([]resp.Value, len(members))
	for i, member := range members {
		vals[i] = resp.BulkValue(member)
	}
	return value(resp.ArrayValue(vals...))
}

func (c *client) cmdSCard(args []string) cmdResult {
	if len(args) != 1 {
		return wrongArity("scard")
	}
	e, ok := c.database().lookup(args[0])
	if !ok {
		return value(resp.IntegerValue(0))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != entrySet {
		return wrongType()
	}
	return value(resp.IntegerValue(int64(len(e.set))))
}

func (c *client) cmdSIsMember(args []string) cmdResult {
	if len(args) != 2 {
		return wrongArity("sismember")
	}
	e, ok := c.database().lookup(args[0])
	if !ok {
		return value(resp.IntegerValue(0))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != entrySet {
		return wrongType()
	}
	if _, ok := e.set[args[1]]; ok {
		return value(resp.IntegerValue(1))
	}
	return value(resp.IntegerValue(0))
}

func (c *client) cmdHGet(args []string) cmdResult {
	if len(args) != 2 {
		return wrongArity("hget")
	}
	e, ok := c.database().lookup(args[0])
	if !ok {
		return value(resp.NilValue())
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != entryHash {
		return wrongType()
	}
	v, ok := e.hash[args[1]]
	if !ok {
		return value(resp.NilValue())
	}
	return value(resp.BulkValue(v))
}

func (c *client) cmdHSet(args []string) cmdResult {
	if len(args) < 3 || (len(args)-1)%2 != 0 {
		return wrongArity("hset")
	}
	e := c.database().upsert(args[0])
	e.mu.Lock()
	defer e.mu.Unlock()
	if !asHash(e) {
		return wrongType()
	}
	added := 0
	for i := 1; i < len(args); i += 2 {
		if _, ok := e.hash[args[i]]; !ok {
			added++
		}
		e.hash[args[i]] = args[i+1]
	}
	e.version++
	return value(resp.IntegerValue(int64(added)))
}

func (c *client) cmdHSetNX(args []string) cmdResult {
	if len(args) != 3 {
		return wrongArity("hsetnx")
	}
	e := c.database().upsert(args[0])
	e.mu.Lock()
	defer e.mu.Unlock()
	if !asHash(e) {
		return wrongType()
	}
	if _, ok := e.hash[args[1]]; ok {
		return value(resp.IntegerValue(0))
	}
	e.hash[args[1]] = args[2]
	e.version++
	return value(resp.IntegerValue(1))
}

func (c *client) cmdHDel(args []string) cmdResult {
	if len(args) < 2 {
		return wrongArity("hdel")
	}
	e, ok := c.database().lookup(args[0])
	if !ok {
		return value(resp.IntegerValue(0))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != entryHash {
		return wrongType()
	}
	removed := 0
	for _, field := range args[1:] {
		if _, ok := e.hash[field]; ok {
			delete(e.hash, field)
			removed++
		}
	}
	if removed > 0 {
		e.version++
	}
	if len(e.hash) == 0 {
		c.database().keys.Delete(args[0])
	}
	return value(resp.IntegerValue(int64(removed)))
}

func (c *client) cmdHLen(args []string) cmdResult {
	if len(args) != 1 {
		return wrongArity("hlen")
	}
	e, ok := c.database().lookup(args[0])
	if !ok {
		return value(resp.IntegerValue(0))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != entryHash {
		return wrongType()
	}
	return value(resp.IntegerValue(int64(len(e.hash))))
}

func (c *client) cmdHVals(args []string) cmdResult {
	if len(args) != 1 {
		return wrongArity("hvals")
	}
	e, ok := c.database().lookup(args[0])
	if !ok {
		return value(resp.ArrayValue())
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != entryHash {
		return wrongType()
	}
	vals := make([]string, 0, len(e.hash))
	for _, v := range e.hash {
		vals = append(vals, v)
	}
	sort.Strings(vals)
	out := make([]resp.Value, len(vals))
	for i, v := range vals {
		out[i] = resp.BulkValue(v)
	}
	return value(resp.ArrayValue(out...))
}

func (c *client) cmdHMGet(args []string) cmdResult {
	if len(args) < 2 {
		return wrongArity("hmget")
	}
	fields := args[1:]
	out := make([]resp.Value, len(fields))
	for i := range out {
		out[i] = resp.NilValue()
	}

	e, ok := c.database().lookup(args[0])
	if ok {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.kind != entryHash {
			return wrongType()
		}
		for i, field := range fields {
			if v, ok := e.hash[field]; ok {
				out[i] = resp.BulkValue(v)
			}
		}
	}
	return value(resp.ArrayValue(out...))
}

func (c *client) cmdHExists(args []string) cmdResult {
	if len(args) != 2 {
		return wrongArity("hexists")
	}
	e, ok := c.database().lookup(args[0])
	if !ok {
		return value(resp.IntegerValue(0))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != entryHash {
		return wrongType()
	}
	if _, ok := e.hash[args[1]]; ok {
		return value(resp.IntegerValue(1))
	}
	return value(resp.IntegerValue(0))
}

func (c *client) cmdHGetAll(args []string) cmdResult {
	if len(args) != 1 {
		return wrongArity("hgetall")
	}
	e, ok := c.database().lookup(args[0])
	if !ok {
		return value(resp.ArrayValue())
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != entryHash {
		return wrongType()
	}
	fields := make([]string, 0, len(e.hash))
	for field := range e.hash {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	out := make([]resp.Value, 0, len(fields)*2)
	for _, field := range fields {
		out = append(out, resp.BulkValue(field), resp.BulkValue(e.hash[field]))
	}
	return value(resp.ArrayValue(out...))
}

func (c *client) cmdHIncrBy(args []string) cmdResult {
	if len(args) != 3 {
		return wrongArity("hincrby")
	}
	incr, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return errResult("ERR value is not an integer or out of range")
	}
	e := c.database().upsert(args[0])
	e.mu.Lock()
	defer e.mu.Unlock()
	if !asHash(e) {
		return wrongType()
	}
	current := int64(0)
	if raw, ok := e.hash[args[1]]; ok {
		current, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return errResult("ERR hash value is not an integer")
		}
	}
	current += incr
	e.hash[args[1]] = strconv.FormatInt(current, 10)
	e.version++
	return value(resp.IntegerValue(current))
}

func (c *client) cmdHIncrByFloat(args []string) cmdResult {
	if len(args) != 3 {
		return wrongArity("hincrbyfloat")
	}
	incr, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return errResult("ERR value is not a valid float")
	}
	e := c.database().upsert(args[0])
	e.mu.Lock()
	defer e.mu.Unlock()
	if !asHash(e) {
		return wrongType()
	}
	current := float64(0)
	if raw, ok := e.hash[args[1]]; ok {
		current, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return errResult("ERR hash value is not a float")
		}
	}
	current += incr
	formatted := strconv.FormatFloat(current, 'f', -1, 64)
	e.hash[args[1]] = formatted
	e.version++
	return value(resp.BulkValue(formatted))
}

func (c *client) cmdWatch(args []string) cmdResult {
	if c.inMulti {
		return errResult("ERR WATCH inside MULTI is not allowed")
	}
	if len(args) == 0 {
		return wrongArity("watch")
	}
	for _, key := range args {
		c.watches = append(c.watches, watch{
			db:      c.db,
			key:     key,
			version: c.database().version(key),
		})
	}
	return value(resp.SimpleValue("OK"))
}

func (c *client) cmdExec() cmdResult {
	if !c.inMulti {
		return errResult("ERR EXEC without MULTI")
	}
	queued := c.queued
	watches := c.watches
	c.inMulti = false
	c.queued = nil
	c.watches = nil

	c.server.execMu.Lock()
	defer c.server.execMu.Unlock()

	for _, w := range watches {
		if c.server.dbs[w.db].version(w.key) != w.version {
			return value(resp.NilArrayValue())
		}
	}

	results := make([]cmdResult, 0, len(queued))
	for _, q := range queued {
		results = append(results, c.dispatch(strings.ToUpper(q[0]), q[1:]))
	}
	return cmdResult{isExec: true, exec: results}
}

// applyFailure injects one failure. It reports whether the connection
// is still usable afterwards.
func (c *client) applyFailure(failure FailureConfig, stub *StubReply) bool {
	switch failure.Type {
	case FailureReplyDelay:
		time.Sleep(randomDuration(failure.MinDelay, failure.MaxDelay))

	case FailureGarbageReply:
		data := make([]byte, 64)
		if _, err := rand.Read(data); err != nil {
			log.Printf("fakeredis: generating garbage reply: %v", err)
		}
		if _, err := c.conn.Write(data); err != nil {
			log.Printf("fakeredis: writing garbage reply: %v", err)
		}
		return false

	case FailurePartialReply:
		if stub != nil {
			var buf bytes.Buffer
			bw := resp.NewWriter(&buf)
			if err := bw.WriteValue(stub.Reply); err != nil {
				log.Printf("fakeredis: encoding partial reply: %v", err)
				return false
			}
			if err := bw.Flush(); err != nil {
				log.Printf("fakeredis: encoding partial reply: %v", err)
				return false
			}
			data := buf.Bytes()
			if _, err := c.conn.Write(data[:len(data)/2]); err != nil {
				log.Printf("fakeredis: writing partial reply: %v", err)
			}
		}
		return false

	case FailureDropConnection:
		return false

	case FailureTCPReset:
		if tcpConn, ok := c.conn.(*net.TCPConn); ok {
			if err := tcpConn.SetLinger(0); err != nil {
				log.Printf("fakeredis: setting linger: %v", err)
			}
		}
		return false
	}

	return true
}

func (c *client) writeValue(v resp.Value) bool {
	if err := c.writer.WriteValue(v); err != nil {
		return false
	}
	return c.flush()
}

func (c *client) writeError(msg string) bool {
	if err := c.writer.WriteError(msg); err != nil {
		return false
	}
	return c.flush()
}

func (c *client) writeResult(res cmdResult) bool {
	switch {
	case res.err != "":
		return c.writeError(res.err)
	case res.isExec:
		if err := c.writer.WriteArrayHeader(len(res.exec)); err != nil {
			return false
		}
		for _, r := range res.exec {
			var err error
			if r.err != "" {
				err = c.writer.WriteError(r.err)
			} else {
				err = c.writer.WriteValue(r.val)
			}
			if err != nil {
				return false
			}
		}
		return c.flush()
	default:
		return c.writeValue(res.val)
	}
}

func (c *client) flush() bool {
	return c.writer.Flush() == nil
}

func shouldTriggerFailure(probability float64) bool {
	if probability <= 0 {
		return false
	}
	if probability >= 1 {
		return true
	}
	return cryptoRandFloat64() < probability
}

func randomDuration(dMin, dMax time.Duration) time.Duration {
	if dMin >= dMax {
		return dMin
	}
	return dMin + time.Duration(cryptoRandInt64(int64(dMax-dMin)))
}
