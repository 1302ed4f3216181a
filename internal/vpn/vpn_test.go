package vpn

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PraveenPrabhuT/nvpn/internal/config"
	"github.com/PraveenPrabhuT/nvpn/internal/geoip"
	"github.com/PraveenPrabhuT/nvpn/internal/logging"
	"github.com/PraveenPrabhuT/nvpn/internal/nordvpn"
	"github.com/PraveenPrabhuT/nvpn/internal/ovpn"
	"github.com/PraveenPrabhuT/nvpn/internal/pidfile"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type fakeFinder map[int]string

func (f fakeFinder) Command(pid int) (string, bool, error) {
	name, ok := f[pid]
	return name, ok, nil
}

type fakeResolver struct {
	server    string
	err       error
	countries []nordvpn.Country
	calls     []string
}

func (r *fakeResolver) BestServer(ctx context.Context, country string, proto nordvpn.Protocol) (string, error) {
	r.calls = append(r.calls, "best:"+country+":"+string(proto))
	return r.server, r.err
}

func (r *fakeResolver) Countries(ctx context.Context, proto nordvpn.Protocol) ([]nordvpn.Country, error) {
	r.calls = append(r.calls, "countries:"+string(proto))
	return r.countries, nil
}

type fakeGeo struct {
	info geoip.Info
	err  error
}

func (g fakeGeo) Lookup(ctx context.Context) (geoip.Info, error) { return g.info, g.err }

type fakeUpdater struct{ calls int }

func (u *fakeUpdater) Update(ctx context.Context) (int, error) {
	u.calls++
	return 12, nil
}

type fakeSpawner struct {
	pid   int
	err   error
	calls [][2]string
}

func (s *fakeSpawner) Spawn(binary, configPath string) (int, error) {
	s.calls = append(s.calls, [2]string{binary, configPath})
	return s.pid, s.err
}

type fakeSignaler struct{ pids []int }

func (s *fakeSignaler) Terminate(pid int) error {
	s.pids = append(s.pids, pid)
	return nil
}

type fakePrompter struct{ user, pass string }

func (p fakePrompter) Credentials() (string, string, error) { return p.user, p.pass, nil }

type fakePicker struct{ seen []nordvpn.Country }

func (p *fakePicker) PickCountry(countries []nordvpn.Country) (nordvpn.Country, error) {
	p.seen = countries
	return countries[len(countries)-1], nil
}

type harness struct {
	ctl      *Controller
	out      *bytes.Buffer
	root     string
	finder   fakeFinder
	resolver *fakeResolver
	updater  *fakeUpdater
	spawner  *fakeSpawner
	signaler *fakeSignaler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.PIDFile = filepath.Join(dir, "nvpn.pid")
	cfg.ConfigRoot = filepath.Join(dir, "openvpn")
	cfg.CredentialsFile = filepath.Join(dir, "openvpn", "login.conf")

	h := &harness{
		out:      &bytes.Buffer{},
		root:     cfg.ConfigRoot,
		finder:   fakeFinder{},
		resolver: &fakeResolver{server: "nl812"},
		updater:  &fakeUpdater{},
		spawner:  &fakeSpawner{pid: 31337},
		signaler: &fakeSignaler{},
	}
	h.ctl = &Controller{
		Config:   cfg,
		PIDs:     &pidfile.Store{Path: cfg.PIDFile},
		Finder:   h.finder,
		Resolver: h.resolver,
		Geo:      fakeGeo{info: geoip.Info{IP: "185.1.2.3", Country: "Germany", City: "Berlin"}},
		Updater:  h.updater,
		Spawner:  h.spawner,
		Signaler: h.signaler,
		Prompter: fakePrompter{user: "user@example.com", pass: "hunter2"},
		Picker:   &fakePicker{},
		Out:      h.out,
		Log:      logging.Discard(),
	}
	return h
}

func (h *harness) writeServerConfig(t *testing.T, server string, proto nordvpn.Protocol) string {
	t.Helper()
	path := ovpn.ConfigPath(h.root, server, string(proto))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	body := "client\nremote 185.130.184.115 1194\nauth-user-pass\n<ca>\nabc\n</ca>\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func (h *harness) markRunning(t *testing.T, pid int) {
	t.Helper()
	require.NoError(t, h.ctl.PIDs.Save(pid))
	h.finder[pid] = "openvpn"
}

func pidFileExists(t *testing.T, h *harness) bool {
	t.Helper()
	_, err := os.Stat(h.ctl.Config.PIDFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		t.Fatal(err)
	}
	return err == nil
}

func TestUp_RefusesWhenRunning(t *testing.T) {
	h := newHarness(t)
	h.markRunning(t, 4242)

	err := h.ctl.Up(context.Background(), UpOptions{Server: "de123", Protocol: nordvpn.UDP})
	require.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Empty(t, h.spawner.calls)
	assert.Empty(t, h.resolver.calls)

	pid, err := h.ctl.PIDs.Load()
	require.NoError(t, err)
	assert.Equal(t, 4242, pid)
}

func TestUp_LiteralServerSkipsResolution(t *testing.T) {
	h := newHarness(t)
	path := h.writeServerConfig(t, "de123", nordvpn.TCP)

	err := h.ctl.Up(context.Background(), UpOptions{Server: "de123", Protocol: nordvpn.TCP})
	require.NoError(t, err)

	assert.Empty(t, h.resolver.calls)
	require.Len(t, h.spawner.calls, 1)
	assert.Equal(t, [2]string{"openvpn", path}, h.spawner.calls[0])

	pid, err := h.ctl.PIDs.Load()
	require.NoError(t, err)
	assert.Equal(t, 31337, pid)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\nauth-user-pass "+h.ctl.Config.CredentialsFile+"\n")
	assert.Contains(t, h.out.String(), "Requesting connection to de123")
	assert.Contains(t, h.out.String(), "185.130.184.115 1194/tcp")
}

func TestUp_NoTokenUsesBestOverall(t *testing.T) {
	h := newHarness(t)
	h.writeServerConfig(t, "nl812", nordvpn.UDP)

	require.NoError(t, h.ctl.Up(context.Background(), UpOptions{Protocol: nordvpn.UDP}))
	assert.Equal(t, []string{"best::udp"}, h.resolver.calls)
}

func TestUp_CountryEndToEnd(t *testing.T) {
	var (
		mu      sync.Mutex
		actions []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		mu.Lock()
		actions = append(actions, q.Get("action"))
		mu.Unlock()
		switch q.Get("action") {
		case "servers_technologies":
			w.Write([]byte(`[{"id":3,"name":"OpenVPN UDP","countries":[{"id":42,"name":"Germany","code":"DE"}]}]`))
		case "servers_recommendations":
			if q.Get("filters") != `{"country_id":42}` {
				http.Error(w, "unexpected filter "+q.Get("filters"), http.StatusBadRequest)
				return
			}
			w.Write([]byte(`[{"id":1,"hostname":"de123.nordvpn.com"}]`))
		}
	}))
	defer srv.Close()

	h := newHarness(t)
	h.ctl.Resolver = nordvpn.New(srv.URL, time.Second, nil)
	want := filepath.Join(h.root, "ovpn_udp", "de123.nordvpn.com.udp.ovpn")
	assert.Equal(t, want, h.writeServerConfig(t, "de123", nordvpn.UDP))

	require.NoError(t, h.ctl.Up(context.Background(), UpOptions{Server: "de", Protocol: nordvpn.UDP}))
	require.Len(t, h.spawner.calls, 1)
	assert.Equal(t, want, h.spawner.calls[0][1])
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"servers_technologies", "servers_recommendations"}, actions)
}

func TestUp_UnknownCountry(t *testing.T) {
	h := newHarness(t)
	h.resolver.err = nordvpn.ErrCountryNotFound

	err := h.ctl.Up(context.Background(), UpOptions{Server: "xx", Protocol: nordvpn.UDP})
	require.ErrorIs(t, err, nordvpn.ErrCountryNotFound)
	assert.Contains(t, err.Error(), "could not find country xx")
	assert.Empty(t, h.spawner.calls)
	assert.False(t, pidFileExists(t, h))
}

func TestUp_MissingConfig(t *testing.T) {
	h := newHarness(t)

	err := h.ctl.Up(context.Background(), UpOptions{Server: "de999", Protocol: nordvpn.UDP})
	require.ErrorIs(t, err, ErrConfigMissing)
	assert.Empty(t, h.spawner.calls)
	assert.False(t, pidFileExists(t, h))
}

func TestUp_SpawnFailureWritesNoPIDFile(t *testing.T) {
	h := newHarness(t)
	h.writeServerConfig(t, "de123", nordvpn.UDP)
	h.spawner.err = errors.New("exec: \"openvpn\": executable file not found in $PATH")

	err := h.ctl.Up(context.Background(), UpOptions{Server: "de123", Protocol: nordvpn.UDP})
	require.Error(t, err)
	assert.False(t, pidFileExists(t, h))
}

func TestUp_InvalidToken(t *testing.T) {
	h := newHarness(t)

	err := h.ctl.Up(context.Background(), UpOptions{Server: "123de", Protocol: nordvpn.UDP})
	require.ErrorIs(t, err, ErrInvalidServer)
	assert.Empty(t, h.resolver.calls)
	assert.Empty(t, h.spawner.calls)
}

func TestUp_PickCountry(t *testing.T) {
	h := newHarness(t)
	h.resolver.countries = []nordvpn.Country{{ID: 81, Code: "FR"}, {ID: 42, Code: "DE"}, {ID: 2, Code: "AL"}}
	h.resolver.server = "fr7"
	h.writeServerConfig(t, "fr7", nordvpn.UDP)

	require.NoError(t, h.ctl.Up(context.Background(), UpOptions{Protocol: nordvpn.UDP, Pick: true}))
	assert.Equal(t, []string{"countries:udp", "best:fr:udp"}, h.resolver.calls)

	picker := h.ctl.Picker.(*fakePicker)
	require.Len(t, picker.seen, 3)
	assert.Equal(t, "AL", picker.seen[0].Code)
}

func TestDown_NotRunning(t *testing.T) {
	h := newHarness(t)

	err := h.ctl.Down(context.Background())
	require.ErrorIs(t, err, ErrNotRunning)
	assert.Empty(t, h.signaler.pids)
	assert.False(t, pidFileExists(t, h))
}

func TestDown_Running(t *testing.T) {
	h := newHarness(t)
	h.markRunning(t, 4242)

	require.NoError(t, h.ctl.Down(context.Background()))
	assert.Equal(t, []int{4242}, h.signaler.pids)
	assert.False(t, pidFileExists(t, h))
}

func TestStatus_NotRunning(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.ctl.Status(context.Background()))
	want := "No process currently running.\n" +
		"Current IP:   185.1.2.3\n" +
		"Country:      Germany\n" +
		"Approx. City: Berlin\n"
	assert.Equal(t, want, h.out.String())
}

func TestStatus_RunningWithoutCity(t *testing.T) {
	h := newHarness(t)
	h.markRunning(t, 4242)
	h.ctl.Geo = fakeGeo{info: geoip.Info{IP: "185.1.2.3", Country: "Germany"}}

	require.NoError(t, h.ctl.Status(context.Background()))
	out := h.out.String()
	assert.True(t, strings.HasPrefix(out, "PID: "+strconv.Itoa(4242)+"\n"), out)
	assert.NotContains(t, out, "City")
}

func TestStatus_LookupFailure(t *testing.T) {
	h := newHarness(t)
	h.ctl.Geo = fakeGeo{err: errors.New("dial tcp: no route to host")}

	err := h.ctl.Status(context.Background())
	require.Error(t, err)
	assert.Contains(t, h.out.String(), "No process currently running.")
}

func TestInit_WritesCredentialsThenUpdates(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.ctl.Init(context.Background()))

	data, err := os.ReadFile(h.ctl.Config.CredentialsFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"user@example.com", "hunter2"}, strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"))

	info, err := os.Stat(h.ctl.Config.CredentialsFile)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0400), info.Mode().Perm())
	assert.Equal(t, 1, h.updater.calls)
}

func TestInit_EmptyUsernameSkipsUpdate(t *testing.T) {
	h := newHarness(t)
	h.ctl.Prompter = fakePrompter{pass: "hunter2"}

	require.Error(t, h.ctl.Init(context.Background()))
	assert.Equal(t, 0, h.updater.calls)
}

func TestUpdate_ReportsCount(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.ctl.Update(context.Background()))
	assert.Contains(t, h.out.String(), "Extracted 12 server configs into "+h.root)
}

func TestCountries_SortedTable(t *testing.T) {
	h := newHarness(t)
	h.resolver.countries = []nordvpn.Country{{ID: 81, Name: "France", Code: "FR"}, {ID: 42, Name: "Germany", Code: "DE"}}

	require.NoError(t, h.ctl.Countries(context.Background(), nordvpn.TCP))
	lines := strings.Split(strings.TrimSpace(h.out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "CODE"))
	assert.True(t, strings.HasPrefix(lines[1], "de"))
	assert.True(t, strings.HasPrefix(lines[2], "fr"))
}
