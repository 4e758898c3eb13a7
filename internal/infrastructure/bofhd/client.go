// Package bofhd implements ports.Transport over the bofhd XML-RPC protocol.
//
// The server exposes a handful of methods: get_motd, login, logout,
// get_commands, help, run_command and call_prompt_func. Every method except
// get_motd and login takes the session id as its first parameter.
package bofhd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kolo/xmlrpc"

	"github.com/cerebrum/bofh-go/internal/domain"
	"github.com/cerebrum/bofh-go/internal/pkg/logger"
	"github.com/cerebrum/bofh-go/internal/ports"
)

// Options configures a Client.
type Options struct {
	URL           string
	ClientName    string
	ClientVersion string
	// HTTP is the round tripper used for every call. Nil means
	// http.DefaultTransport.
	HTTP   http.RoundTripper
	Logger ports.Logger
}

// Client is a stateless bofhd adapter; the session travels with each call.
type Client struct {
	url     string
	name    string
	version string
	http    http.RoundTripper
	logger  ports.Logger
}

// New returns a client for the server at opts.URL.
func New(opts Options) *Client {
	rt := opts.HTTP
	if rt == nil {
		rt = http.DefaultTransport
	}
	var log ports.Logger = logger.NewNop()
	if opts.Logger != nil {
		log = opts.Logger
	}
	return &Client{
		url:     opts.URL,
		name:    opts.ClientName,
		version: opts.ClientVersion,
		http:    rt,
		logger:  log,
	}
}

// call performs one XML-RPC request bound to ctx.
func (c *Client) call(ctx context.Context, method string, params ...interface{}) (interface{}, error) {
	started := time.Now()
	client, err := xmlrpc.NewClient(c.url, &contextTransport{ctx: ctx, base: c.http})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	defer client.Close()

	if params == nil {
		params = []interface{}{}
	}
	var reply interface{}
	err = client.Call(method, params, &reply)
	c.logger.Debug("bofhd call", map[string]interface{}{
		"method":  method,
		"elapsed": time.Since(started).Round(time.Millisecond).String(),
		"ok":      err == nil,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, classify(err)
	}
	return unescape(reply), nil
}

func (c *Client) sessionCall(ctx context.Context, session domain.Session, method string, params ...interface{}) (interface{}, error) {
	if !session.Valid() {
		return nil, domain.ErrNoSession
	}
	return c.call(ctx, method, append([]interface{}{session.ID}, params...)...)
}

// MOTD fetches the message of the day. It needs no session and doubles as
// a reachability check.
func (c *Client) MOTD(ctx context.Context) (string, error) {
	motd, err := c.call(ctx, "get_motd", c.name, c.version)
	if err != nil {
		return "", err
	}
	return asString(motd), nil
}

// Connect fetches the message of the day and logs in.
func (c *Client) Connect(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	motd, err := c.MOTD(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	id, err := c.call(ctx, "login", escapeArg(creds.User), escapeArg(creds.Password))
	if err != nil {
		if domain.IsRemoteFault(err) {
			return domain.Session{}, fmt.Errorf("%w: %w", domain.ErrAuthFailed, err)
		}
		return domain.Session{}, err
	}
	session := domain.Session{ID: asString(id), User: creds.User, MOTD: motd}
	if !session.Valid() {
		return domain.Session{}, fmt.Errorf("%w: server returned no session", domain.ErrAuthFailed)
	}
	c.logger.Info("logged in", map[string]interface{}{"user": creds.User, "url": c.url})
	return session, nil
}

// ListCommands fetches the command catalog.
func (c *Client) ListCommands(ctx context.Context, session domain.Session) ([]domain.CommandSpec, error) {
	raw, err := c.sessionCall(ctx, session, "get_commands")
	if err != nil {
		return nil, err
	}
	return parseCommands(raw)
}

// ResolveEnumeratedValues asks the server's prompt function for the
// values of the next argument. Commands without one have nothing to offer.
func (c *Client) ResolveEnumeratedValues(ctx context.Context, session domain.Session, query domain.ValueQuery) ([]string, error) {
	if !query.Command.PromptFunc {
		return nil, nil
	}
	params := []interface{}{query.Command.Name}
	for _, p := range query.Preceding {
		params = append(params, escapeArg(p))
	}
	raw, err := c.sessionCall(ctx, session, "call_prompt_func", params...)
	if err != nil {
		return nil, err
	}
	return parsePromptValues(raw), nil
}

// Invoke runs a command.
func (c *Client) Invoke(ctx context.Context, session domain.Session, command string, args []string) (domain.Result, error) {
	params := []interface{}{command}
	for _, a := range args {
		params = append(params, escapeArg(a))
	}
	raw, err := c.sessionCall(ctx, session, "run_command", params...)
	if err != nil {
		return domain.Result{}, err
	}
	return domain.Result{Command: command, Value: raw}, nil
}

// Help returns general help, help for a group or help for one command.
func (c *Client) Help(ctx context.Context, session domain.Session, topic ...string) (string, error) {
	params := make([]interface{}, 0, len(topic))
	for _, t := range topic {
		params = append(params, t)
	}
	raw, err := c.sessionCall(ctx, session, "help", params...)
	if err != nil {
		return "", err
	}
	return asString(raw), nil
}

// Close logs out. An unset session is a no-op.
func (c *Client) Close(ctx context.Context, session domain.Session) error {
	if !session.Valid() {
		return nil
	}
	_, err := c.sessionCall(ctx, session, "logout")
	return err
}

var _ ports.Transport = (*Client)(nil)
