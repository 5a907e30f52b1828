package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"dev.acmcsuf.com/christmas/lib/xcolor"
	"github.com/google/go-cmp/cmp"
	"github.com/jvanderberg/pixelblit"
	"github.com/jvanderberg/pixelblit/boardconfig"
	"github.com/jvanderberg/pixelblit/pbled"
	"github.com/neilotoole/slogt"
	"libdb.so/ledctl"
)

func assertEq[T any](t *testing.T, expected, actual T, opts ...cmp.Option) {
	t.Helper()

	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}
}

type fakeStrip struct {
	mu      sync.Mutex
	leds    map[int]ledctl.RGB
	flushes int
}

func (s *fakeStrip) SetRGBAt(i int, color ledctl.RGB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leds[i] = color
}

func (s *fakeStrip) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return nil
}

func TestWS281xEngine(t *testing.T) {
	board, err := boardconfig.Parse(strings.NewReader("2,RGB\n0\n1,GRB\n"), 0)
	if err != nil {
		t.Fatal(err)
	}

	strip := &fakeStrip{leds: make(map[int]ledctl.RGB)}
	engine := newWS281xEngineWith(strip, board, slogt.New(t))

	cfg, err := board.DriverConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.ColorOrder = pbled.RGBOrder
	cfg.Engine = engine
	cfg.Logger = slogt.New(t)

	d, err := pbled.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	d.SetPixel(0, 0, 0x112233)
	d.SetPixel(0, 1, 0x445566)
	d.SetPixel(2, 0, 0x778899)
	d.Show()
	d.ShowWait()
	engine.Close()

	// ledctl swaps to BGR, so the wire bytes go in reversed.
	want := map[int]uint32{0: 0x332211, 1: 0x665544, 2: 0x998877}
	assertEq(t, len(want), len(strip.leds))
	for i, c := range want {
		if got, want := strip.leds[i], ledctl.RGB(xcolor.RGBFromUint(c)); got != want {
			t.Errorf("LED %d = %v, want %v", i, got, want)
		}
	}
	assertEq(t, 1, strip.flushes)
	assertEq(t, 3, chainLength(board))
}

func TestAdminStatus(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "show.fseq"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	controller := pixelblit.NewController(pixelblit.ControllerOpts{
		Library: pixelblit.Library{Dir: dir},
		Board:   boardconfig.Defaults(0),
		Logger:  slogt.New(t),
	})
	defer controller.Close()

	server := pixelblit.NewServer(pixelblit.ServerOpts{Logger: slogt.New(t)})
	admin := httptest.NewServer(newAdminHandler(controller, server, newRequestLogger("pixelblitd-admin")))
	defer admin.Close()

	var status statusResponse
	getJSON(t, admin.URL+"/status", &status)
	assertEq(t, pixelblit.TaskIdle, status.Task)
	assertEq(t, uint8(255), status.Brightness)
	assertEq(t, 0, status.PreviewSessions)

	var sequences []string
	getJSON(t, admin.URL+"/sequences", &sequences)
	assertEq(t, []string{"show.fseq"}, sequences)

	req, _ := http.NewRequest(http.MethodPatch, admin.URL+"/brightness?value=300", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode < 400 {
		t.Errorf("out of range brightness accepted with status %d", resp.StatusCode)
	}

	resp, err = http.Post(admin.URL+"/rainbow/next", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode < 400 {
		t.Errorf("next string without a rainbow returned status %d", resp.StatusCode)
	}
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("GET %s: invalid JSON: %v", url, err)
	}
}
