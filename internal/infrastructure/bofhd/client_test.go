package bofhd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerebrum/bofh-go/internal/domain"
)

var methodPattern = regexp.MustCompile(`<methodName>([^<]+)</methodName>`)

const responseTemplate = `<?xml version="1.0"?>
<methodResponse><params><param><value>%s</value></param></params></methodResponse>`

const faultTemplate = `<?xml version="1.0"?>
<methodResponse><fault><value><struct>
<member><name>faultCode</name><value><int>1</int></value></member>
<member><name>faultString</name><value><string>%s</string></value></member>
</struct></value></fault></methodResponse>`

type fakeServer struct {
	mu      sync.Mutex
	bodies  map[string]string
	replies map[string]string
	faults  map[string]string
	block   map[string]bool
}

func newFakeServer(t *testing.T) (*fakeServer, *Client) {
	t.Helper()
	fs := &fakeServer{
		bodies:  map[string]string{},
		replies: map[string]string{},
		faults:  map[string]string{},
		block:   map[string]bool{},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		m := methodPattern.FindSubmatch(body)
		if m == nil {
			http.Error(w, "no method", http.StatusBadRequest)
			return
		}
		method := string(m[1])
		fs.mu.Lock()
		fs.bodies[method] = string(body)
		reply, fault, block := fs.replies[method], fs.faults[method], fs.block[method]
		fs.mu.Unlock()

		if block {
			<-r.Context().Done()
			return
		}
		w.Header().Set("Content-Type", "text/xml")
		if fault != "" {
			fmt.Fprintf(w, faultTemplate, fault)
			return
		}
		fmt.Fprintf(w, responseTemplate, reply)
	}))
	t.Cleanup(srv.Close)
	return fs, New(Options{URL: srv.URL, ClientName: "bofh-go", ClientVersion: "test"})
}

func (f *fakeServer) body(method string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[method]
}

var session = domain.Session{ID: "sess-1", User: "alice"}

func TestConnect(t *testing.T) {
	fs, client := newFakeServer(t)
	fs.replies["get_motd"] = "<string>Welcome to bofhd</string>"
	fs.replies["login"] = "<string>sess-1</string>"

	got, err := client.Connect(context.Background(), domain.Credentials{User: "alice", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, domain.Session{ID: "sess-1", User: "alice", MOTD: "Welcome to bofhd"}, got)
	assert.Contains(t, fs.body("get_motd"), "bofh-go")
	assert.Contains(t, fs.body("login"), "s3cret")
}

func TestConnectAuthFailure(t *testing.T) {
	fs, client := newFakeServer(t)
	fs.replies["get_motd"] = "<string></string>"
	fs.faults["login"] = "Cerebrum.modules.bofhd.errors.CerebrumError:Unknown username or password"

	_, err := client.Connect(context.Background(), domain.Credentials{User: "alice", Password: "wrong"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
	assert.True(t, domain.IsRemoteFault(err))
}

func TestConnectNetworkFailure(t *testing.T) {
	client := New(Options{URL: "http://127.0.0.1:1/"})
	_, err := client.Connect(context.Background(), domain.Credentials{User: "alice"})
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestListCommands(t *testing.T) {
	fs, client := newFakeServer(t)
	fs.replies["get_commands"] = `<struct>
<member><name>user_info</name><value><array><data>
  <value><array><data><value><string>user</string></value><value><string>info</string></value></data></array></value>
  <value><array><data><value><struct>
    <member><name>type</name><value><string>accountName</string></value></member>
    <member><name>optional</name><value><boolean>0</boolean></value></member>
  </struct></value></data></array></value>
</data></array></value></member>
</struct>`

	specs, err := client.ListCommands(context.Background(), session)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "user_info", specs[0].Name)
	assert.Equal(t, "user", specs[0].Group)
	assert.Equal(t, domain.KindReference, specs[0].Args[0].Kind)
	assert.Contains(t, fs.body("get_commands"), "sess-1")
}

func TestInvokeMapsFaults(t *testing.T) {
	fs, client := newFakeServer(t)
	fs.faults["run_command"] = "Cerebrum.modules.bofhd.errors.CerebrumError:Unknown group: foo"

	_, err := client.Invoke(context.Background(), session, "group_list", []string{"foo"})
	var fault *domain.RemoteFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, domain.FaultCerebrum, fault.Kind)
	assert.Equal(t, "Unknown group: foo", fault.Message)

	fs.faults["run_command"] = "Cerebrum.modules.bofhd.errors.ServerRestartedError:"
	_, err = client.Invoke(context.Background(), session, "group_list", []string{"foo"})
	assert.ErrorIs(t, err, domain.ErrServerRestarted)
}

func TestInvokeDecodesResult(t *testing.T) {
	fs, client := newFakeServer(t)
	fs.replies["run_command"] = `<array><data>
<value><struct><member><name>name</name><value><string>staff</string></value></member>
<member><name>expire</name><value><string>:None</string></value></member></struct></value>
</data></array>`

	result, err := client.Invoke(context.Background(), session, "group_list", []string{":odd"})
	require.NoError(t, err)
	assert.Equal(t, "group_list", result.Command)
	assert.Equal(t, []interface{}{map[string]interface{}{"name": "staff", "expire": nil}}, result.Value)
	assert.Contains(t, fs.body("run_command"), "::odd", "leading colons are escaped")
}

func TestResolveEnumeratedValues(t *testing.T) {
	fs, client := newFakeServer(t)
	fs.replies["call_prompt_func"] = `<struct>
<member><name>prompt</name><value><string>Spread</string></value></member>
<member><name>map</name><value><array><data>
  <value><array><data><value><array><data><value><string>Name</string></value></data></array></value><value><string>:None</string></value></data></array></value>
  <value><array><data><value><array><data><value><string>posix</string></value></data></array></value><value><string>posix</string></value></data></array></value>
</data></array></value></member>
</struct>`

	promptCommand := domain.CommandSpec{Name: "user_create", PromptFunc: true}
	values, err := client.ResolveEnumeratedValues(context.Background(), session, domain.ValueQuery{Command: promptCommand, Preceding: []string{"alice"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"posix"}, values)
	assert.Contains(t, fs.body("call_prompt_func"), "alice")

	values, err = client.ResolveEnumeratedValues(context.Background(), session, domain.ValueQuery{Command: domain.CommandSpec{Name: "user_info"}})
	require.NoError(t, err)
	assert.Nil(t, values)
	assert.NotContains(t, fs.body("call_prompt_func"), "user_info")
}

func TestCallHonoursCancellation(t *testing.T) {
	fs, client := newFakeServer(t)
	fs.block["run_command"] = true

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	started := time.Now()
	_, err := client.Invoke(ctx, session, "group_list", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(started), 2*time.Second)
}

func TestSessionRequired(t *testing.T) {
	_, client := newFakeServer(t)
	_, err := client.ListCommands(context.Background(), domain.Session{})
	assert.ErrorIs(t, err, domain.ErrNoSession)
	assert.NoError(t, client.Close(context.Background(), domain.Session{}))
}

func TestHelpAndClose(t *testing.T) {
	fs, client := newFakeServer(t)
	fs.replies["help"] = "<string>user create: makes a user</string>"
	fs.replies["logout"] = "<string>:None</string>"

	text, err := client.Help(context.Background(), session, "user", "create")
	require.NoError(t, err)
	assert.Equal(t, "user create: makes a user", text)
	assert.Contains(t, fs.body("help"), "create")

	require.NoError(t, client.Close(context.Background(), session))
	assert.Contains(t, fs.body("logout"), "sess-1")
}
